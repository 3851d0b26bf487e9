package localctx

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/camerpulse/sentinel/pkg/cache"
	"github.com/camerpulse/sentinel/pkg/logging"
)

func testLogger() logging.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestBundleLoadsRowsOverDefaults(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	parties, _ := json.Marshal([]string{"cpdm", "upc"})
	multipliers, _ := json.Marshal(map[string]float64{"kill": 3, "machete": 2})
	mock.ExpectQuery(`SELECT config_key, config_value FROM sentinel\.local_context`).
		WithArgs("local_context").
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "config_value"}).
			AddRow("political_parties", parties).
			AddRow("threat_multipliers", multipliers).
			AddRow("future_dictionary", []byte(`{"ignored": true}`)))

	store := NewStore(db, time.Minute, testLogger(), cache.Hooks{})
	b := store.Bundle(context.Background())

	if len(b.PoliticalParties) != 2 || b.PoliticalParties[1] != "upc" {
		t.Errorf("expected parties from database, got %v", b.PoliticalParties)
	}
	if b.ThreatMultipliers["machete"] != 2 {
		t.Errorf("expected threat multipliers from database, got %v", b.ThreatMultipliers)
	}
	// Rows not present in the table keep their defaults.
	if len(b.SlangPatterns["pidgin"]) == 0 {
		t.Error("expected default slang patterns to survive partial load")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestBundleFallsBackToDefaultsOnQueryError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT config_key, config_value FROM sentinel\.local_context`).
		WillReturnError(context.DeadlineExceeded)

	store := NewStore(db, time.Minute, testLogger(), cache.Hooks{})
	b := store.Bundle(context.Background())

	if b == nil {
		t.Fatal("expected default bundle, got nil")
	}
	if len(b.ThreatMultipliers) == 0 {
		t.Error("expected default threat multipliers")
	}
}

func TestBundleIsCachedBetweenCalls(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT config_key, config_value FROM sentinel\.local_context`).
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "config_value"}))

	store := NewStore(db, time.Minute, testLogger(), cache.Hooks{})
	store.Bundle(context.Background())
	store.Bundle(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("second call should have hit the cache: %v", err)
	}
}

func TestMergePersistsAndRefreshesCache(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT config_key, config_value FROM sentinel\.local_context`).
		WillReturnRows(sqlmock.NewRows([]string{"config_key", "config_value"}))
	mock.ExpectBegin()
	for i := 0; i < 8; i++ {
		mock.ExpectExec(`INSERT INTO sentinel\.local_context`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	store := NewStore(db, time.Minute, testLogger(), cache.Hooks{})
	patch := Patch{Figures: []DetectedFigure{{Name: "edith kah walla", Confidence: 0.6}}}
	if err := store.Merge(context.Background(), patch); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// The cached bundle now carries the new figure without another query.
	b := store.Bundle(context.Background())
	if len(b.DetectedFigures) != 1 || b.DetectedFigures[0].Name != "edith kah walla" {
		t.Errorf("expected merged figure in cached bundle, got %v", b.DetectedFigures)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestMergeEmptyPatchIsNoop(t *testing.T) {
	store := NewStore(nil, time.Minute, testLogger(), cache.Hooks{})
	if err := store.Merge(context.Background(), Patch{}); err != nil {
		t.Fatalf("empty patch should be a no-op, got %v", err)
	}
}
