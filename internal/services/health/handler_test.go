package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func serve(t *testing.T, svc *Service) (*httptest.ResponseRecorder, Report) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var report Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return w, report
}

func TestHealthWithoutDatabase(t *testing.T) {
	svc := NewService(nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	w, report := serve(t, svc)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if report.Status != "ok" || report.Timestamp != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.Database != "" {
		t.Fatalf("expected no database field, got %q", report.Database)
	}
}

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	w, report := serve(t, NewService(fakePinger{err: errors.New("connection refused")}))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if report.Database != "unreachable" {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestHealthWithDatabase(t *testing.T) {
	w, report := serve(t, NewService(fakePinger{}))
	if w.Code != http.StatusOK || report.Database != "ok" {
		t.Fatalf("unexpected %d %+v", w.Code, report)
	}
}
