package estimate

import (
	"fmt"

	"github.com/vramcheck/vramcheck/pkg/models"
)

// inferenceFigures holds the unrounded component memory figures for an
// inference configuration.
type inferenceFigures struct {
	arch       models.Architecture
	weights    float64
	activation float64
	kvCache    float64
	base       float64
	overhead   float64
	total      float64
}

// Inference estimates the VRAM required to serve a model and reports
// whether it fits the requested GPU configuration. When it does not
// fit, the result carries alternative configurations that would.
func (c *Calculator) Inference(req models.InferenceRequest) (*models.InferenceResult, error) {
	if err := c.validateInference(&req); err != nil {
		return nil, err
	}

	gpuVRAM, _ := c.catalog.ResolveGPU(req.GPU)
	f := c.inferenceFigures(req)
	fit := willFit(f.total, gpuVRAM, req.NumGPUs)

	result := &models.InferenceResult{
		WillItFit:    fit,
		NeededVRAM:   round2(f.total),
		TotalKVCache: round2(f.kvCache),
		Details: models.InferenceDetails{
			ModelWeights:     round2(f.weights),
			ActivationMemory: round2(f.activation),
			KVCache:          round2(f.kvCache),
			BaseVRAM:         round2(f.base),
			OverheadFactor:   f.overhead,
			TotalVRAM:        round2(f.total),
			VRAMPerGPU:       round2(perGPU(f.total, req.NumGPUs)),
			VRAMUsagePercent: round2(usagePercent(f.total, gpuVRAM, req.NumGPUs)),
			Architecture:     f.arch,
		},
		Suggestions: []models.Suggestion{},
	}

	if !fit {
		result.Suggestions = c.suggestInference(req, gpuVRAM)
	}
	return result, nil
}

// validateInference rejects out-of-contract inputs and canonicalizes
// the precision in place.
func (c *Calculator) validateInference(req *models.InferenceRequest) error {
	if req.ParamsBillions <= 0 {
		return &ValidationError{Field: "params_billions", Reason: "must be greater than 0"}
	}
	canonical, ok := c.catalog.NormalizePrecision(req.Precision)
	if !ok {
		return &ValidationError{Field: "precision", Reason: fmt.Sprintf("unknown precision %q", req.Precision)}
	}
	req.Precision = canonical
	if req.BatchSize < 1 {
		return &ValidationError{Field: "batch_size", Reason: "must be at least 1"}
	}
	if req.SeqLength < 1 {
		return &ValidationError{Field: "seq_length", Reason: "must be at least 1"}
	}
	if req.ConcurrentRequests < 1 {
		return &ValidationError{Field: "concurrent_requests", Reason: "must be at least 1"}
	}
	if req.NumGPUs < 0 {
		return &ValidationError{Field: "num_gpus", Reason: "must not be negative"}
	}
	return nil
}

// inferenceFigures computes the unrounded memory components. The
// request must already be validated.
func (c *Calculator) inferenceFigures(req models.InferenceRequest) inferenceFigures {
	bytesPerParam, _ := c.catalog.BytesPerParam(req.Precision)
	arch := c.catalog.ResolveShape(req.ParamsBillions)

	weights := req.ParamsBillions * bytesPerParam
	activation := weights * inferenceActivationFactor
	kvCache := float64(req.BatchSize) * float64(req.SeqLength) *
		kvCachePerTokenGB(arch, bytesPerParam) * float64(req.ConcurrentRequests)

	base := weights + activation + kvCache
	overhead := overheadStandard
	if req.IsReasoning {
		overhead = overheadReasoning
	}

	return inferenceFigures{
		arch:       arch,
		weights:    weights,
		activation: activation,
		kvCache:    kvCache,
		base:       base,
		overhead:   overhead,
		total:      base * overhead,
	}
}
