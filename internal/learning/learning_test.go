package learning

import (
	"context"
	"errors"
	"io"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/camerpulse/sentinel/internal/localctx"
)

type fakeMerger struct {
	patches []localctx.Patch
	err     error
}

func (f *fakeMerger) Merge(_ context.Context, patch localctx.Patch) error {
	f.patches = append(f.patches, patch)
	return f.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newRecorder(t *testing.T, merger ContextMerger) (*Recorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecorder(db, merger, quietLogger()), mock
}

func TestRecordWritesLogWithoutPatch(t *testing.T) {
	merger := &fakeMerger{}
	recorder, mock := newRecorder(t, merger)

	mock.ExpectExec(`INSERT INTO sentinel\.learning_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := recorder.Record(context.Background(),
		map[string]string{"content": "ordinary text"}, "routine classification", 0)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(merger.patches) != 0 {
		t.Errorf("untagged description must not evolve the bundle, got %v", merger.patches)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRecordNewFigureTriggersMerge(t *testing.T) {
	merger := &fakeMerger{}
	recorder, mock := newRecorder(t, merger)

	mock.ExpectExec(`INSERT INTO sentinel\.learning_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := recorder.Record(context.Background(),
		map[string]string{"content": "akere muna spoke today"},
		"new_political_figure:akere muna", 0.7)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(merger.patches) != 1 {
		t.Fatalf("expected one merge, got %d", len(merger.patches))
	}
	figures := merger.patches[0].Figures
	if len(figures) != 1 || figures[0].Name != "akere muna" || figures[0].Confidence != 0.7 {
		t.Errorf("unexpected figure patch: %+v", figures)
	}
}

func TestRecordNewSlangTriggersMerge(t *testing.T) {
	merger := &fakeMerger{}
	recorder, mock := newRecorder(t, merger)

	mock.ExpectExec(`INSERT INTO sentinel\.learning_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := recorder.Record(context.Background(), nil,
		"new_slang:pidgin:emotions.anger:dem don finish us", 0.6)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(merger.patches) != 1 {
		t.Fatalf("expected one merge, got %d", len(merger.patches))
	}
	slang := merger.patches[0].Slang
	if len(slang) != 1 {
		t.Fatalf("expected one slang patch, got %v", slang)
	}
	if slang[0].Language != "pidgin" || slang[0].Bucket != "emotions.anger" || slang[0].Phrase != "dem don finish us" {
		t.Errorf("unexpected slang patch: %+v", slang[0])
	}
}

func TestRecordSurvivesMergeFailure(t *testing.T) {
	merger := &fakeMerger{err: errors.New("db down")}
	recorder, mock := newRecorder(t, merger)

	mock.ExpectExec(`INSERT INTO sentinel\.learning_log`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := recorder.Record(context.Background(), nil, "new_political_figure:someone", 0.5)
	if err != nil {
		t.Errorf("merge failure must not fail the record, got %v", err)
	}
}

func TestRecordFailsWhenLogInsertFails(t *testing.T) {
	merger := &fakeMerger{}
	recorder, mock := newRecorder(t, merger)

	mock.ExpectExec(`INSERT INTO sentinel\.learning_log`).
		WillReturnError(errors.New("disk full"))

	if err := recorder.Record(context.Background(), nil, "anything", 0); err == nil {
		t.Error("expected insert failure to surface")
	}
}
