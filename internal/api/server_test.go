package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vramcheck/vramcheck/internal/catalog"
	"github.com/vramcheck/vramcheck/internal/estimate"
	"github.com/vramcheck/vramcheck/internal/modelcat"
	"github.com/vramcheck/vramcheck/pkg/models"
)

func setupTestServer(opts ...Option) *Server {
	cat := catalog.New()
	calc := estimate.New(cat)
	presets := modelcat.New()

	server := New(calc, cat, presets, opts...)
	// Set server as ready by default in tests
	server.SetReady(true)
	return server
}

func postJSON(server *Server, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response HealthResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "true", response.Services["ready"])
	assert.Equal(t, "ok", response.Services["catalog"])
}

func TestHealthNotReady(t *testing.T) {
	server := setupTestServer()
	server.SetReady(false)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response HealthResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "unavailable", response.Status)
	assert.Equal(t, "false", response.Services["ready"])
}

func TestReadyEndpoint(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response ReadyResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.True(t, response.Ready)
}

func TestReadyEndpointNotReady(t *testing.T) {
	server := setupTestServer()
	server.SetReady(false)

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response ReadyResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.False(t, response.Ready)
}

func TestEstimateInference(t *testing.T) {
	server := setupTestServer()

	body := `{
		"params_billions": 7,
		"precision": "FP16",
		"gpu": "l40s",
		"num_gpus": 1,
		"batch_size": 1,
		"seq_length": 2048,
		"concurrent_requests": 1
	}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.InferenceResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.True(t, result.WillItFit)
	assert.Equal(t, 20.55, result.NeededVRAM)
	assert.Equal(t, 1.07, result.TotalKVCache)
	assert.Equal(t, 14.0, result.Details.ModelWeights)
	assert.Equal(t, 42.82, result.Details.VRAMUsagePercent)
	assert.Equal(t, 4096, result.Details.Architecture.HiddenDim)
	assert.Empty(t, result.Suggestions)

	// An empty suggestion list serializes as [] rather than null
	assert.Contains(t, w.Body.String(), `"suggestions":[]`)
}

func TestEstimateInferenceDefaults(t *testing.T) {
	server := setupTestServer()

	// Only params and GPU; precision FP16, one GPU, batch 1, seq 2048,
	// one concurrent request are filled in by the handler.
	body := `{"params_billions": 7, "gpu": "l40s"}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.InferenceResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.True(t, result.WillItFit)
	assert.Equal(t, 20.55, result.NeededVRAM)
}

func TestEstimateInferenceModelPreset(t *testing.T) {
	server := setupTestServer()

	body := `{"model": "mistral-7b", "gpu": "l40s"}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.InferenceResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)
	assert.Equal(t, 20.55, result.NeededVRAM)

	// Preset ids resolve case-insensitively
	w = postJSON(server, "/api/v1/estimates/inference", `{"model": "Mistral-7B", "gpu": "l40s"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEstimateInferenceModelConflict(t *testing.T) {
	server := setupTestServer()

	body := `{"model": "mistral-7b", "params_billions": 13, "gpu": "l40s"}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "not both")
	assert.NotEmpty(t, response.RequestID)
}

func TestEstimateInferenceUnknownModel(t *testing.T) {
	server := setupTestServer()

	body := `{"model": "gpt-12", "gpu": "l40s"}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "unknown model preset")
}

func TestEstimateInferenceMissingGPU(t *testing.T) {
	server := setupTestServer()

	body := `{"params_billions": 7}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "gpu is required")
}

func TestEstimateInferenceNegativeParams(t *testing.T) {
	server := setupTestServer()

	body := `{"params_billions": -7, "gpu": "l40s"}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "params_billions")
}

func TestEstimateInferenceBadPrecision(t *testing.T) {
	server := setupTestServer()

	body := `{"params_billions": 7, "precision": "FP64", "gpu": "l40s"}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "precision")
}

func TestEstimateInferenceDoesNotFit(t *testing.T) {
	server := setupTestServer()

	body := `{
		"params_billions": 7,
		"precision": "FP16",
		"gpu": "rtx-4090",
		"batch_size": 16,
		"seq_length": 2048
	}`
	w := postJSON(server, "/api/v1/estimates/inference", body)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.InferenceResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.False(t, result.WillItFit)
	require.Len(t, result.Suggestions, 3)
	assert.Equal(t, models.SuggestReduceBatch, result.Suggestions[0].Type)
	assert.Equal(t, models.SuggestQuantize, result.Suggestions[1].Type)
	assert.Equal(t, models.SuggestMoreGPUs, result.Suggestions[2].Type)
}

func TestEstimateFinetune(t *testing.T) {
	server := setupTestServer()

	body := `{
		"params_billions": 7,
		"method": "qlora",
		"gpu": "a100",
		"num_gpus": 1,
		"batch_size": 4,
		"seq_length": 2048,
		"grad_accum_steps": 1
	}`
	w := postJSON(server, "/api/v1/estimates/finetune", body)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.FinetuneResult
	err := json.Unmarshal(w.Body.Bytes(), &result)
	require.NoError(t, err)

	assert.True(t, result.WillItFit)
	assert.Equal(t, 8.22, result.NeededVRAM)
	assert.Equal(t, 3.5, result.Details.ModelWeights)
	assert.Equal(t, 0.35, result.Details.OptimizerStates)
	assert.True(t, result.Details.GradientCheckpointing)
	assert.Equal(t, 4.0, result.Details.EffectiveBatchSize)
	assert.Equal(t, 10.27, result.Details.VRAMUsagePercent)
}

func TestEstimateFinetuneUnknownMethod(t *testing.T) {
	server := setupTestServer()

	body := `{"params_billions": 7, "method": "dpo", "gpu": "a100"}`
	w := postJSON(server, "/api/v1/estimates/finetune", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "unknown fine-tuning method")
	assert.Contains(t, response.Error, "qlora")
}

func TestEstimateFinetuneMissingMethod(t *testing.T) {
	server := setupTestServer()

	body := `{"params_billions": 7, "gpu": "a100"}`
	w := postJSON(server, "/api/v1/estimates/finetune", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "method is required")
}

func TestCatalogGPUs(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/catalog/gpus", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		GPUs  []models.GPUProfile `json:"gpus"`
		Count int                 `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 14, response.Count)
	assert.Equal(t, "rtx-3060", response.GPUs[0].Name)
}

func TestCatalogPrecisions(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/catalog/precisions", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 10, int(response["count"].(float64)))
}

func TestCatalogMethods(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/catalog/methods", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Methods []models.MethodProfile `json:"methods"`
		Count   int                    `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 3, response.Count)
	assert.Equal(t, models.MethodFull, response.Methods[0].Name)
}

func TestCatalogArchitectures(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/catalog/architectures", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Architectures []models.ArchitectureBucket `json:"architectures"`
		Count         int                         `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 9, response.Count)
	assert.Equal(t, "7B", response.Architectures[2].Label)
	assert.Greater(t, response.Architectures[2].ApproxParams, 0.0)
}

func TestListModels(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/models", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Models []models.ModelPreset `json:"models"`
		Count  int                  `json:"count"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, 9, response.Count)
	// Stable order: ascending parameter count
	assert.LessOrEqual(t, response.Models[0].ParamsB, response.Models[response.Count-1].ParamsB)
}

func TestGetModel(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/models/mistral-7b", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var preset models.ModelPreset
	err := json.Unmarshal(w.Body.Bytes(), &preset)
	require.NoError(t, err)
	assert.Equal(t, "mistral-7b", preset.ID)
	assert.Equal(t, 7.0, preset.ParamsB)

	// Lookup is case-insensitive
	req = httptest.NewRequest("GET", "/api/v1/models/MISTRAL-7B", nil)
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetModelNotFound(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest("GET", "/api/v1/models/nonexistent", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "model preset not found")
}

func TestRequestIDMiddleware(t *testing.T) {
	server := setupTestServer()

	// Without X-Request-ID header
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// With X-Request-ID header
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "custom-request-id")
	w = httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	assert.Equal(t, "custom-request-id", w.Header().Get("X-Request-ID"))
}

func TestRateLimit(t *testing.T) {
	server := setupTestServer(WithRateLimit(1, 1))

	// First request consumes the single token
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Second immediate request is rejected
	req = httptest.NewRequest("GET", "/health", nil)
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var response ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Contains(t, response.Error, "rate limit")
}

func TestRateLimitDisabled(t *testing.T) {
	server := setupTestServer()

	// With no limiter configured, a burst of requests all succeed
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()
		server.Router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
