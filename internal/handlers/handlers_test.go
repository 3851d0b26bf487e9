package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/camerpulse/sentinel/internal/alerts"
	"github.com/camerpulse/sentinel/internal/analyzer"
	"github.com/camerpulse/sentinel/internal/signal"
)

type fakeService struct {
	result  signal.Result
	err     error
	bulk    analyzer.BulkSummary
	stats   analyzer.Stats
	ackErr  error
	ackedID string
}

func (f *fakeService) Analyze(context.Context, signal.AnalyzeRequest) (signal.Result, error) {
	return f.result, f.err
}

func (f *fakeService) AnalyzeBulk(context.Context, []signal.AnalyzeRequest) analyzer.BulkSummary {
	return f.bulk
}

func (f *fakeService) Stats(context.Context) analyzer.Stats { return f.stats }

func (f *fakeService) AcknowledgeAlert(_ context.Context, id string) error {
	f.ackedID = id
	return f.ackErr
}

func setupRouter(service Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	router := gin.New()
	NewHandlers(service, logger).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeReturnsResult(t *testing.T) {
	service := &fakeService{result: signal.Result{
		Polarity:    signal.PolarityPositive,
		Score:       0.5,
		Language:    "en",
		ThreatLevel: signal.ThreatNone,
	}}
	router := setupRouter(service)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze",
		signal.AnalyzeRequest{Content: "I love this"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result signal.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Polarity != signal.PolarityPositive || result.Score != 0.5 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestAnalyzeEmptyContentIsBadRequest(t *testing.T) {
	service := &fakeService{err: analyzer.ErrEmptyContent}
	router := setupRouter(service)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze",
		signal.AnalyzeRequest{Content: ""})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeMalformedBody(t *testing.T) {
	router := setupRouter(&fakeService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAnalyzeBulk(t *testing.T) {
	service := &fakeService{bulk: analyzer.BulkSummary{
		Items:     []analyzer.ItemResult{{Success: true}, {Success: false, Error: "content is required"}},
		Succeeded: 1,
		Failed:    1,
	}}
	router := setupRouter(service)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/bulk", bulkRequest{
		Items: []signal.AnalyzeRequest{{Content: "one"}, {Content: ""}},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary analyzer.BulkSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestAnalyzeBulkRejectsEmptyAndOversizedBatches(t *testing.T) {
	router := setupRouter(&fakeService{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/analyze/bulk", bulkRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch: expected 400, got %d", rec.Code)
	}

	oversized := bulkRequest{Items: make([]signal.AnalyzeRequest, maxBulkItems+1)}
	for i := range oversized.Items {
		oversized.Items[i].Content = "x"
	}
	rec = doJSON(t, router, http.MethodPost, "/api/v1/analyze/bulk", oversized)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized batch: expected 400, got %d", rec.Code)
	}
}

func TestStats(t *testing.T) {
	service := &fakeService{stats: analyzer.Stats{
		TotalAnalyzed:  321,
		ActiveAlerts:   2,
		TrendingTopics: []string{"security"},
		Status:         "operational",
	}}
	router := setupRouter(service)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/stats", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var stats analyzer.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalAnalyzed != 321 || stats.ActiveAlerts != 2 || stats.Status != "operational" {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestAcknowledgeAlert(t *testing.T) {
	service := &fakeService{}
	router := setupRouter(service)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/alerts/abc-123/acknowledge", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if service.ackedID != "abc-123" {
		t.Errorf("expected alert id passed through, got %q", service.ackedID)
	}
}

func TestAcknowledgeAlertNotFound(t *testing.T) {
	service := &fakeService{ackErr: alerts.ErrNotFound}
	router := setupRouter(service)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/alerts/missing/acknowledge", nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
