package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(limiter *RateLimiter, rules map[string]RateLimitRule) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodGet && c.FullPath() == "/api/ai/status" {
				return "PROBE"
			}
			return "DEFAULT"
		},
		Limiter: limiter,
		Rules:   rules,
	}))
	ok := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	r.GET("/api/ai/status", ok)
	r.POST("/api/ai/recommend-stack", ok)
	return r
}

func send(r http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRateLimitProbeHigherThanDefault(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		"DEFAULT": {Rate: 1, Burst: 2},
		"PROBE":   {Rate: 5, Burst: 10},
	})

	for i := 0; i < 3; i++ {
		if resp := send(r, http.MethodGet, "/api/ai/status", "192.0.2.1:1000"); resp.Code != http.StatusOK {
			t.Fatalf("probe request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	for i := 0; i < 2; i++ {
		if resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.1:1000"); resp.Code != http.StatusOK {
			t.Fatalf("default request %d expected 200, got %d", i+1, resp.Code)
		}
	}
	if resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.1:1000"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("default request 3 expected 429, got %d", resp.Code)
	}
}

func TestRateLimitBucketsPerClient(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		"DEFAULT": {Rate: 1, Burst: 1},
	})

	if resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.1:1000"); resp.Code != http.StatusOK {
		t.Fatalf("first client expected 200, got %d", resp.Code)
	}
	if resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.2:1000"); resp.Code != http.StatusOK {
		t.Fatalf("second client expected 200, got %d", resp.Code)
	}
	if resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.1:1000"); resp.Code != http.StatusTooManyRequests {
		t.Fatalf("first client again expected 429, got %d", resp.Code)
	}
}

func TestRateLimitRefillsOverTime(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 2, Burst: 1}

	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected first token")
	}
	ok, retry := limiter.Allow("k", rule)
	if ok {
		t.Fatalf("expected bucket to be empty")
	}
	if retry != 500*time.Millisecond {
		t.Fatalf("expected 500ms retry, got %s", retry)
	}
	now = now.Add(500 * time.Millisecond)
	if ok, _ := limiter.Allow("k", rule); !ok {
		t.Fatalf("expected refill after 500ms")
	}
}

func TestRateLimit429IncludesRetryAfter(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := newLimitedRouter(NewRateLimiter(func() time.Time { return now }), map[string]RateLimitRule{
		"DEFAULT": {Rate: 1, Burst: 1},
	})

	if resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.9:1"); resp.Code != http.StatusOK {
		t.Fatalf("expected first request 200, got %d", resp.Code)
	}
	resp := send(r, http.MethodPost, "/api/ai/recommend-stack", "192.0.2.9:1")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}

	var payload struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error.Code != "rate_limited" {
		t.Fatalf("expected code=rate_limited, got %q", payload.Error.Code)
	}
	if _, ok := payload.Error.Details["retry_after_ms"]; !ok {
		t.Fatalf("expected retry_after_ms in details")
	}
}

func TestRateLimiterEvictsRefilledBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 2}

	for i := 0; i < 100; i++ {
		limiter.Allow("198.51.100."+strconv.Itoa(i)+"|DEFAULT", rule)
	}
	limiter.Allow("203.0.113.1|DEFAULT", rule)
	limiter.Allow("203.0.113.1|DEFAULT", rule)
	if got := len(limiter.buckets); got != 101 {
		t.Fatalf("expected 101 buckets, got %d", got)
	}

	now = now.Add(idleSweepInterval)
	if allowed, _ := limiter.Allow("203.0.113.2|DEFAULT", rule); !allowed {
		t.Fatalf("new client should be allowed")
	}
	if got := len(limiter.buckets); got != 1 {
		t.Fatalf("expected refilled buckets to be evicted, %d remain", got)
	}
}

func TestRateLimiterKeepsDrainedBucketsAcrossSweep(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	slow := RateLimitRule{Rate: 0.01, Burst: 1}

	if allowed, _ := limiter.Allow("192.0.2.7|DEFAULT", slow); !allowed {
		t.Fatalf("first request should pass")
	}
	now = now.Add(idleSweepInterval)
	if allowed, _ := limiter.Allow("192.0.2.7|DEFAULT", slow); allowed {
		t.Fatalf("drained bucket must survive the sweep and keep limiting")
	}
}
