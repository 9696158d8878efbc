package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/algo-insight/code-mentor/internal/config"
	"github.com/algo-insight/code-mentor/internal/types"
)

const binarySearchCode = `def search(nums, target):
    left, right = 0, len(nums) - 1
    while left <= right:
        mid = (left + right) // 2
        if nums[mid] == target:
            return mid
        elif nums[mid] < target:
            left = mid + 1
        else:
            right = mid - 1
    return -1`

func newTestApp(t *testing.T, mutate func(*config.Config)) (*app, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Server.DataDir = t.TempDir()
	if mutate != nil {
		mutate(cfg)
	}

	a, err := newApp(cfg)
	require.NoError(t, err)
	t.Cleanup(a.close)

	return a, a.setupRouter()
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func getJSON(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	_, r := newTestApp(t, nil)

	w := getJSON(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["model_version"])
	assert.Equal(t, false, body["training"])
}

func TestAnalyzeEndpoint_HappyPath(t *testing.T) {
	a, r := newTestApp(t, nil)

	w := postJSON(r, "/analyze", types.AnalyzeRequest{
		Code:     binarySearchCode,
		Error:    "IndexError: list index out of range",
		Language: "python",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "Binary Search", resp.Concept)
	assert.Greater(t, resp.Confidence, 0.0)
	assert.NotEmpty(t, resp.Suggestion)
	assert.False(t, resp.LLMUsed, "no API key configured, template tier expected")

	_, total, err := a.repo.ConceptCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestAnalyzeEndpoint_ValidationFailures(t *testing.T) {
	a, r := newTestApp(t, nil)

	tests := []struct {
		name       string
		body       map[string]interface{}
		wantStatus int
	}{
		{"missing code", map[string]interface{}{"language": "python"}, http.StatusBadRequest},
		{"empty code", map[string]interface{}{"code": ""}, http.StatusBadRequest},
		{"whitespace code", map[string]interface{}{"code": "   "}, http.StatusBadRequest},
		{"code too long", map[string]interface{}{"code": strings.Repeat("a", 10001)}, http.StatusBadRequest},
		{"null byte in code", map[string]interface{}{"code": "print(1)\x00"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(r, "/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}

	t.Run("malformed JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/analyze", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodPost, "/analyze", strings.NewReader("code=x"))
		req.Header.Set("Content-Type", "text/plain")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	_, total, err := a.repo.ConceptCounts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, total, "rejected requests must not be persisted")
}

func TestAnalyzeEndpoint_DefaultLanguage(t *testing.T) {
	a, r := newTestApp(t, nil)

	w := postJSON(r, "/analyze", map[string]interface{}{"code": "print('hi')"})
	require.Equal(t, http.StatusOK, w.Code)

	subs, err := a.repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "python", subs[0].Language)
}

func TestRetrainEndpoint_InsufficientSubmissions(t *testing.T) {
	_, r := newTestApp(t, nil)

	w := postJSON(r, "/retrain", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp types.RetrainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestRetrainEndpoint_AdminToken(t *testing.T) {
	_, r := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.AdminToken = "sekrit"
	})

	w := postJSON(r, "/retrain", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/retrain", nil)
	req.Header.Set("X-Admin-Token", "sekrit")
	r.ServeHTTP(w, req)
	// Authenticated but no stored submissions yet.
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRetrainEndpoint_PublishesNewVersion(t *testing.T) {
	_, r := newTestApp(t, nil)

	for i := 0; i < 5; i++ {
		w := postJSON(r, "/analyze", types.AnalyzeRequest{Code: binarySearchCode, Language: "python"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := postJSON(r, "/retrain", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp types.RetrainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Version)

	// The new model serves subsequent requests.
	hw := getJSON(r, "/health")
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(hw.Body.Bytes(), &health))
	assert.Equal(t, float64(2), health["model_version"])
}

func TestStatsEndpoint(t *testing.T) {
	_, r := newTestApp(t, nil)

	for i := 0; i < 3; i++ {
		w := postJSON(r, "/analyze", types.AnalyzeRequest{Code: binarySearchCode, Language: "python"})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := getJSON(r, "/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.TotalSubmissions)
	assert.Equal(t, int64(3), resp.ConceptCounts["Binary Search"])
	assert.Equal(t, 1, resp.ModelVersion)
}

func TestMetricsEndpoint(t *testing.T) {
	_, r := newTestApp(t, nil)

	w := postJSON(r, "/analyze", types.AnalyzeRequest{Code: binarySearchCode})
	require.Equal(t, http.StatusOK, w.Code)

	mw := getJSON(r, "/metrics")
	require.Equal(t, http.StatusOK, mw.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(mw.Body.Bytes(), &stats))
	assert.Equal(t, float64(1), stats["analyses"])
	assert.Equal(t, float64(1), stats["llm_fallbacks"])
}
