package estimate

import (
	"github.com/vramcheck/vramcheck/pkg/models"
)

// finetuneFigures holds the unrounded component memory figures for a
// fine-tuning configuration.
type finetuneFigures struct {
	arch           models.Architecture
	profile        *models.MethodProfile
	effectiveBatch float64
	weights        float64
	activation     float64
	optimizer      float64
	kvCache        float64
	adapter        float64
	base           float64
	total          float64
}

// Finetune estimates the VRAM required to fine-tune a model with the
// requested method and reports whether it fits the GPU configuration.
// An unrecognized method is a hard error, never a silent default.
func (c *Calculator) Finetune(req models.FinetuneRequest) (*models.FinetuneResult, error) {
	if err := c.validateFinetune(&req); err != nil {
		return nil, err
	}

	gpuVRAM, _ := c.catalog.ResolveGPU(req.GPU)
	f := c.finetuneFigures(req)
	fit := willFit(f.total, gpuVRAM, req.NumGPUs)

	result := &models.FinetuneResult{
		WillItFit:  fit,
		NeededVRAM: round2(f.total),
		Details: models.FinetuneDetails{
			ModelWeights:          round2(f.weights),
			ActivationMemory:      round2(f.activation),
			OptimizerStates:       round2(f.optimizer),
			KVCache:               round2(f.kvCache),
			GradientCheckpointing: f.profile.GradientCheckpointing,
			MethodDescription:     f.profile.Description,
			TotalVRAM:             round2(f.total),
			VRAMPerGPU:            round2(perGPU(f.total, req.NumGPUs)),
			VRAMUsagePercent:      round2(usagePercent(f.total, gpuVRAM, req.NumGPUs)),
			EffectiveBatchSize:    f.effectiveBatch,
			Architecture:          f.arch,
		},
		Suggestions: []models.Suggestion{},
	}

	if !fit {
		result.Suggestions = c.suggestFinetune(req, gpuVRAM)
	}
	return result, nil
}

// validateFinetune rejects out-of-contract inputs and canonicalizes
// the method name in place.
func (c *Calculator) validateFinetune(req *models.FinetuneRequest) error {
	if req.ParamsBillions <= 0 {
		return &ValidationError{Field: "params_billions", Reason: "must be greater than 0"}
	}
	profile, ok := c.catalog.Method(req.Method)
	if !ok {
		return &InvalidMethodError{Method: req.Method, Valid: c.catalog.MethodNames()}
	}
	req.Method = profile.Name
	if req.BatchSize < 1 {
		return &ValidationError{Field: "batch_size", Reason: "must be at least 1"}
	}
	if req.SeqLength < 1 {
		return &ValidationError{Field: "seq_length", Reason: "must be at least 1"}
	}
	if req.GradAccumSteps < 1 {
		return &ValidationError{Field: "grad_accum_steps", Reason: "must be at least 1"}
	}
	if req.NumGPUs < 0 {
		return &ValidationError{Field: "num_gpus", Reason: "must not be negative"}
	}
	return nil
}

// finetuneFigures computes the unrounded memory components. The
// request must already be validated. Weights are held at the method's
// weight precision; gradient accumulation shrinks the effective batch
// feeding the KV cache.
func (c *Calculator) finetuneFigures(req models.FinetuneRequest) finetuneFigures {
	profile, _ := c.catalog.Method(req.Method)
	bytesPerParam, _ := c.catalog.BytesPerParam(profile.WeightPrecision)
	arch := c.catalog.ResolveShape(req.ParamsBillions)

	effectiveBatch := float64(req.BatchSize) / float64(req.GradAccumSteps)

	weights := req.ParamsBillions * bytesPerParam
	activation := weights * profile.ActivationFactor
	optimizer := weights * profile.OptimizerFactor
	kvCache := effectiveBatch * float64(req.SeqLength) * kvCachePerTokenGB(arch, bytesPerParam)
	adapter := weights * profile.AdapterOverhead

	base := weights + activation + optimizer + kvCache + adapter

	return finetuneFigures{
		arch:           arch,
		profile:        profile,
		effectiveBatch: effectiveBatch,
		weights:        weights,
		activation:     activation,
		optimizer:      optimizer,
		kvCache:        kvCache,
		adapter:        adapter,
		base:           base,
		total:          base * overheadTraining,
	}
}
