package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/vramcheck/vramcheck/internal/estimate"
	"github.com/vramcheck/vramcheck/internal/logging"
	"github.com/vramcheck/vramcheck/internal/metrics"
	"github.com/vramcheck/vramcheck/pkg/models"
)

// Request/Response types

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services,omitempty"`
}

// ReadyResponse is the readiness check response
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
}

// EstimateInferenceRequest is the request body for an inference estimate.
// Either model (a preset id) or params_billions supplies the parameter
// count; omitted optional fields take the handler defaults.
type EstimateInferenceRequest struct {
	Model              string  `json:"model,omitempty"`
	ParamsBillions     float64 `json:"params_billions,omitempty" binding:"omitempty,gt=0"`
	Precision          string  `json:"precision,omitempty"`
	GPU                string  `json:"gpu" binding:"required"`
	NumGPUs            int     `json:"num_gpus,omitempty" binding:"omitempty,min=1"`
	BatchSize          int     `json:"batch_size,omitempty" binding:"omitempty,min=1"`
	SeqLength          int     `json:"seq_length,omitempty" binding:"omitempty,min=1"`
	ConcurrentRequests int     `json:"concurrent_requests,omitempty" binding:"omitempty,min=1"`
	IsReasoning        bool    `json:"is_reasoning,omitempty"`
}

// EstimateFinetuneRequest is the request body for a fine-tuning estimate
type EstimateFinetuneRequest struct {
	Model          string  `json:"model,omitempty"`
	ParamsBillions float64 `json:"params_billions,omitempty" binding:"omitempty,gt=0"`
	Method         string  `json:"method" binding:"required"`
	GPU            string  `json:"gpu" binding:"required"`
	NumGPUs        int     `json:"num_gpus,omitempty" binding:"omitempty,min=1"`
	BatchSize      int     `json:"batch_size,omitempty" binding:"omitempty,min=1"`
	SeqLength      int     `json:"seq_length,omitempty" binding:"omitempty,min=1"`
	GradAccumSteps int     `json:"grad_accum_steps,omitempty" binding:"omitempty,min=1"`
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Services:  make(map[string]string),
	}

	// Check services
	if s.catalog != nil {
		response.Services["catalog"] = "ok"
	}
	if s.presets != nil {
		response.Services["models"] = "ok"
	}

	// Return 503 if not ready (e.g., during manifest loading)
	if !s.ready.Load() {
		response.Status = "unavailable"
		response.Services["ready"] = "false"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	response.Services["ready"] = "true"
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleReady(c *gin.Context) {
	response := ReadyResponse{
		Ready:     s.ready.Load(),
		Timestamp: time.Now(),
	}

	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (s *Server) handleEstimateInference(c *gin.Context) {
	start := time.Now()

	var req EstimateInferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordValidationFailure("inference")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     sanitizeValidationError(err),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	paramsBillions, err := s.resolveParams(req.Model, req.ParamsBillions)
	if err != nil {
		metrics.RecordValidationFailure("inference")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     err.Error(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	// Apply defaults for omitted optional fields
	if req.Precision == "" {
		req.Precision = string(models.PrecisionFP16)
	}
	if req.NumGPUs == 0 {
		req.NumGPUs = 1
	}
	if req.BatchSize == 0 {
		req.BatchSize = 1
	}
	if req.SeqLength == 0 {
		req.SeqLength = 2048
	}
	if req.ConcurrentRequests == 0 {
		req.ConcurrentRequests = 1
	}

	result, err := s.calculator.Inference(models.InferenceRequest{
		ParamsBillions:     paramsBillions,
		Precision:          models.Precision(req.Precision),
		GPU:                req.GPU,
		NumGPUs:            req.NumGPUs,
		BatchSize:          req.BatchSize,
		SeqLength:          req.SeqLength,
		ConcurrentRequests: req.ConcurrentRequests,
		IsReasoning:        req.IsReasoning,
	})
	if err != nil {
		status := estimateErrorStatus(err)
		if status == http.StatusBadRequest {
			metrics.RecordValidationFailure("inference")
		}
		c.JSON(status, ErrorResponse{
			Error:     err.Error(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	metrics.RecordEstimate("inference", result.WillItFit, len(result.Suggestions), time.Since(start))

	ctx := logging.WithEstimateKind(c.Request.Context(), "inference")
	ctx = logging.WithRequestID(ctx, c.GetString("request_id"))
	logging.Debug(ctx, "estimate computed",
		slog.Float64("params_billions", paramsBillions),
		slog.Float64("total_vram", result.Details.TotalVRAM),
		slog.Bool("will_it_fit", result.WillItFit),
		slog.Int("suggestions", len(result.Suggestions)))

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleEstimateFinetune(c *gin.Context) {
	start := time.Now()

	var req EstimateFinetuneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		metrics.RecordValidationFailure("finetune")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     sanitizeValidationError(err),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	paramsBillions, err := s.resolveParams(req.Model, req.ParamsBillions)
	if err != nil {
		metrics.RecordValidationFailure("finetune")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     err.Error(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	// Apply defaults for omitted optional fields
	if req.NumGPUs == 0 {
		req.NumGPUs = 1
	}
	if req.BatchSize == 0 {
		req.BatchSize = 1
	}
	if req.SeqLength == 0 {
		req.SeqLength = 2048
	}
	if req.GradAccumSteps == 0 {
		req.GradAccumSteps = 1
	}

	result, err := s.calculator.Finetune(models.FinetuneRequest{
		ParamsBillions: paramsBillions,
		Method:         models.FinetuneMethod(req.Method),
		GPU:            req.GPU,
		NumGPUs:        req.NumGPUs,
		BatchSize:      req.BatchSize,
		SeqLength:      req.SeqLength,
		GradAccumSteps: req.GradAccumSteps,
	})
	if err != nil {
		status := estimateErrorStatus(err)
		if status == http.StatusBadRequest {
			metrics.RecordValidationFailure("finetune")
		}
		c.JSON(status, ErrorResponse{
			Error:     err.Error(),
			RequestID: c.GetString("request_id"),
		})
		return
	}

	metrics.RecordEstimate("finetune", result.WillItFit, len(result.Suggestions), time.Since(start))

	ctx := logging.WithEstimateKind(c.Request.Context(), "finetune")
	ctx = logging.WithRequestID(ctx, c.GetString("request_id"))
	logging.Debug(ctx, "estimate computed",
		slog.Float64("params_billions", paramsBillions),
		slog.String("method", req.Method),
		slog.Float64("total_vram", result.Details.TotalVRAM),
		slog.Bool("will_it_fit", result.WillItFit),
		slog.Int("suggestions", len(result.Suggestions)))

	c.JSON(http.StatusOK, result)
}

// resolveParams resolves the parameter count from an explicit value or a
// model preset. Supplying both is rejected so a preset lookup can never
// silently shadow an explicit count.
func (s *Server) resolveParams(model string, paramsBillions float64) (float64, error) {
	if model == "" {
		return paramsBillions, nil
	}
	if paramsBillions > 0 {
		return 0, &estimate.ValidationError{
			Field:  "model",
			Reason: "provide either a model preset or params_billions, not both",
		}
	}
	preset, ok := s.presets.Get(model)
	if !ok {
		return 0, &estimate.ValidationError{
			Field:  "model",
			Reason: fmt.Sprintf("unknown model preset %q", model),
		}
	}
	return preset.ParamsB, nil
}

// estimateErrorStatus maps estimator errors to HTTP status codes
func estimateErrorStatus(err error) int {
	if estimate.IsValidationError(err) || estimate.IsInvalidMethodError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// sanitizeValidationError converts internal field names to JSON field names
// in validation error messages to avoid leaking internal implementation details.
func sanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	var messages []string
	for _, fe := range validationErrs {
		// Convert field name to JSON tag name (snake_case)
		jsonFieldName := toSnakeCase(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", jsonFieldName))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", jsonFieldName, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", jsonFieldName, fe.Param()))
		case "gt":
			messages = append(messages, fmt.Sprintf("%s must be greater than %s", jsonFieldName, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation (%s)", jsonFieldName, fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

// toSnakeCase converts a PascalCase or camelCase string to snake_case
func toSnakeCase(s string) string {
	// Handle common field name mappings
	fieldMappings := map[string]string{
		"ParamsBillions":     "params_billions",
		"Precision":          "precision",
		"GPU":                "gpu",
		"NumGPUs":            "num_gpus",
		"BatchSize":          "batch_size",
		"SeqLength":          "seq_length",
		"ConcurrentRequests": "concurrent_requests",
		"IsReasoning":        "is_reasoning",
		"GradAccumSteps":     "grad_accum_steps",
		"Method":             "method",
		"Model":              "model",
	}
	if mapped, ok := fieldMappings[s]; ok {
		return mapped
	}
	// Fallback: convert PascalCase to snake_case using regex
	re := regexp.MustCompile("([a-z0-9])([A-Z])")
	return strings.ToLower(re.ReplaceAllString(s, "${1}_${2}"))
}
