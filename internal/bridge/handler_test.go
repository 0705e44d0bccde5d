package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stackbridge/internal/bridge/model"
	"stackbridge/internal/fallback"
	"stackbridge/internal/shared/server/middleware"
)

// spyBridge records calls and answers from the fallback catalog.
type spyBridge struct {
	mu          sync.Mutex
	calls       int
	lastRec     model.RecommendationRequest
	lastCompat  model.CompatibilityRequest
	panicOnCall bool
}

func (s *spyBridge) called() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.panicOnCall {
		panic("engine exploded")
	}
}

func (s *spyBridge) Recommend(ctx context.Context, req model.RecommendationRequest) model.RecommendationResult {
	s.called()
	s.lastRec = req
	res := fallback.Recommendation()
	res.Source = model.SourceEngine
	return res
}

func (s *spyBridge) AnalyzeCompatibility(ctx context.Context, req model.CompatibilityRequest) model.CompatibilityResult {
	s.called()
	s.lastCompat = req
	return fallback.Compatibility(req.Technologies)
}

func (s *spyBridge) ListSupportedTechnologies(ctx context.Context) model.SupportedTechnologies {
	s.called()
	return fallback.SupportedTechnologies()
}

func (s *spyBridge) CheckStatus(ctx context.Context) model.Status {
	s.called()
	return model.Status{EngineStatus: model.EngineUnavailable, Features: model.Features(), Error: "spawn failed"}
}

func newRouter(b Bridge, maxBody int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())
	NewHandler(b, maxBody).RegisterRoutes(r.Group("/api/ai"))
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string       `json:"code"`
		Message string       `json:"message"`
		Details []FieldIssue `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func fields(env errorEnvelope) []string {
	out := make([]string, 0, len(env.Error.Details))
	for _, d := range env.Error.Details {
		out = append(out, d.Field)
	}
	return out
}

func TestCompatibilityValidationRejectsBeforeBridge(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "empty list", body: `{"technologies": []}`, field: "technologies"},
		{name: "missing list", body: `{}`, field: "technologies"},
		{name: "blank entry", body: `{"technologies": ["React", "  "]}`, field: "technologies[1]"},
		{name: "too many", body: `{"technologies": [` + strings.TrimSuffix(strings.Repeat(`"x",`, 51), ",") + `]}`, field: "technologies"},
		{name: "wrong type", body: `{"technologies": "React"}`, field: "technologies"},
		{name: "not an object", body: `["React"]`, field: "body"},
		{name: "not json", body: `{technologies`, field: "body"},
		{name: "empty body", body: ``, field: "body"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spy := &spyBridge{}
			w := do(newRouter(spy, 0), http.MethodPost, "/api/ai/analyze-compatibility", tc.body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			env := decodeError(t, w)
			assert.Equal(t, "validation_error", env.Error.Code)
			assert.Contains(t, fields(env), tc.field)
			assert.Zero(t, spy.calls, "bridge must not run for invalid input")
		})
	}
}

func TestRecommendValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{name: "bad experience", body: `{"experience_level": "guru"}`, field: "experience_level"},
		{name: "team too small", body: `{"team_size": 0}`, field: "team_size"},
		{name: "team too large", body: `{"team_size": 1001}`, field: "team_size"},
		{name: "blank project type", body: `{"project_type": "   "}`, field: "project_type"},
		{name: "blank requirement", body: `{"requirements": ["auth", ""]}`, field: "requirements[1]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spy := &spyBridge{}
			w := do(newRouter(spy, 0), http.MethodPost, "/api/ai/recommend-stack", tc.body)

			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, fields(decodeError(t, w)), tc.field)
			assert.Zero(t, spy.calls)
		})
	}
}

func TestRecommendPassesSourceThrough(t *testing.T) {
	spy := &spyBridge{}
	w := do(newRouter(spy, 0), http.MethodPost, "/api/ai/recommend-stack",
		`{"project_type": "mobile", "team_size": 1000, "experience_level": "expert", "requirements": ["offline"]}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var got model.RecommendationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, model.SourceEngine, got.Source)
	assert.Equal(t, model.RecommendationRequest{
		ProjectType:     "mobile",
		TeamSize:        1000,
		ExperienceLevel: "expert",
		Requirements:    []string{"offline"},
	}, spy.lastRec)
}

func TestOversizedBodyIs413(t *testing.T) {
	spy := &spyBridge{}
	body := `{"technologies": ["` + strings.Repeat("a", 2048) + `"]}`
	w := do(newRouter(spy, 1024), http.MethodPost, "/api/ai/analyze-compatibility", body)

	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Equal(t, "payload_too_large", decodeError(t, w).Error.Code)
	assert.Zero(t, spy.calls)
}

func TestBridgePanicIs500(t *testing.T) {
	spy := &spyBridge{panicOnCall: true}
	w := do(newRouter(spy, 0), http.MethodGet, "/api/ai/supported-technologies", "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal", decodeError(t, w).Error.Code)
}

func TestStatusAndTechnologiesRoutes(t *testing.T) {
	r := newRouter(&spyBridge{}, 0)

	w := do(r, http.MethodGet, "/api/ai/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, false, status["ai_service_available"])
	assert.Nil(t, status["engine_version"])
	assert.Contains(t, status, "engine_version")
	assert.Equal(t, "unavailable", status["engine_status"])

	w = do(r, http.MethodGet, "/api/ai/supported-technologies", "")
	require.Equal(t, http.StatusOK, w.Code)
	var techs model.SupportedTechnologies
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &techs))
	assert.Equal(t, fallback.SupportedTechnologies(), techs)
}

func TestEndToEndWithoutEngine(t *testing.T) {
	b := newTestBridge(t, "fixture", missingEngine(t))
	r := newRouter(b.svc, 0)

	w := do(r, http.MethodPost, "/api/ai/analyze-compatibility", `{"technologies": ["React", "Node.js"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var compat map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &compat))
	assert.Equal(t, "fallback", compat["source"])
	assert.Equal(t, 0.8, compat["overall_score"])
	assert.Equal(t, map[string]any{
		"React":   map[string]any{"score": 0.8, "notes": "React is generally compatible with modern development stacks", "category": "frontend"},
		"Node.js": map[string]any{"score": 0.8, "notes": "Node.js is generally compatible with modern development stacks", "category": "backend"},
	}, compat["compatibility_matrix"])

	w = do(r, http.MethodPost, "/api/ai/recommend-stack", `{"project_type": "web"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec model.RecommendationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, model.SourceFallback, rec.Source)
	assert.Equal(t, 0.88, rec.OverallScore)
	assert.ElementsMatch(t,
		[]string{model.CategoryFrontend, model.CategoryBackend, model.CategoryDatabase},
		keysOf(rec.RecommendedStack),
	)
	for _, pick := range rec.RecommendedStack {
		assert.Equal(t, model.LearningModerate, pick.LearningCurve)
	}
	b.assertNoPayloadFiles(t)
}

func keysOf(m map[string]model.TechnologyPick) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
