package estimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vramcheck/vramcheck/pkg/models"
)

func validFinetuneRequest() models.FinetuneRequest {
	return models.FinetuneRequest{
		ParamsBillions: 7,
		Method:         models.MethodQLoRA,
		GPU:            "a100",
		NumGPUs:        1,
		BatchSize:      4,
		SeqLength:      2048,
		GradAccumSteps: 1,
	}
}

func TestCalculator_Finetune_QLoRA7BOnA100(t *testing.T) {
	calc := newTestCalculator()

	result, err := calc.Finetune(validFinetuneRequest())
	require.NoError(t, err)

	assert.True(t, result.WillItFit)
	assert.Equal(t, 8.22, result.NeededVRAM)
	assert.Empty(t, result.Suggestions)

	d := result.Details
	// QLoRA holds the base model at INT4: 7 * 0.5 GB.
	assert.Equal(t, 3.5, d.ModelWeights)
	assert.Equal(t, 1.75, d.ActivationMemory)
	assert.Equal(t, 0.35, d.OptimizerStates)
	assert.Equal(t, 1.07, d.KVCache)
	assert.True(t, d.GradientCheckpointing)
	assert.Equal(t, "Quantized Low-Rank Adaptation with 4-bit quantization", d.MethodDescription)
	assert.Equal(t, 8.22, d.TotalVRAM)
	assert.Equal(t, 8.22, d.VRAMPerGPU)
	assert.Equal(t, 10.27, d.VRAMUsagePercent)
	assert.Equal(t, 4.0, d.EffectiveBatchSize)
	assert.Equal(t, 4096, d.Architecture.HiddenDim)
	assert.Equal(t, 32, d.Architecture.NumLayers)
}

func TestCalculator_Finetune_Full7BDoesNotFit(t *testing.T) {
	calc := newTestCalculator()

	req := validFinetuneRequest()
	req.Method = models.MethodFull

	result, err := calc.Finetune(req)
	require.NoError(t, err)

	assert.False(t, result.WillItFit)
	// FP16 weights plus 4x Adam optimizer states and full activations.
	assert.Equal(t, 14.0, result.Details.ModelWeights)
	assert.Equal(t, 28.0, result.Details.ActivationMemory)
	assert.Equal(t, 56.0, result.Details.OptimizerStates)
	assert.Equal(t, 122.75, result.NeededVRAM)
	assert.False(t, result.Details.GradientCheckpointing)
	assert.NotEmpty(t, result.Suggestions)
}

func TestCalculator_Finetune_GradAccumShrinksKVOnly(t *testing.T) {
	calc := newTestCalculator()

	base := validFinetuneRequest()
	accum := validFinetuneRequest()
	accum.GradAccumSteps = 2

	a, err := calc.Finetune(base)
	require.NoError(t, err)
	b, err := calc.Finetune(accum)
	require.NoError(t, err)

	assert.Equal(t, a.Details.ModelWeights, b.Details.ModelWeights)
	assert.Equal(t, a.Details.OptimizerStates, b.Details.OptimizerStates)
	assert.Equal(t, a.Details.ActivationMemory, b.Details.ActivationMemory)
	assert.Equal(t, 2.0, b.Details.EffectiveBatchSize)
	assert.Less(t, b.Details.KVCache, a.Details.KVCache)
}

func TestCalculator_Finetune_FractionalEffectiveBatch(t *testing.T) {
	calc := newTestCalculator()

	req := validFinetuneRequest()
	req.BatchSize = 1
	req.GradAccumSteps = 4

	result, err := calc.Finetune(req)
	require.NoError(t, err)

	// The effective batch is reported as the raw quotient.
	assert.Equal(t, 0.25, result.Details.EffectiveBatchSize)
}

func TestCalculator_Finetune_MethodCaseInsensitive(t *testing.T) {
	calc := newTestCalculator()

	mixed := validFinetuneRequest()
	mixed.Method = "QLoRA"

	a, err := calc.Finetune(validFinetuneRequest())
	require.NoError(t, err)
	b, err := calc.Finetune(mixed)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestCalculator_Finetune_UnknownMethod(t *testing.T) {
	calc := newTestCalculator()

	for _, method := range []models.FinetuneMethod{"dpo", "rlhf", ""} {
		req := validFinetuneRequest()
		req.Method = method

		_, err := calc.Finetune(req)
		require.Error(t, err)

		var merr *InvalidMethodError
		require.ErrorAs(t, err, &merr)
		assert.Equal(t, method, merr.Method)
		assert.Equal(t, []models.FinetuneMethod{models.MethodFull, models.MethodLoRA, models.MethodQLoRA}, merr.Valid)
		assert.True(t, IsInvalidMethodError(err))
		assert.False(t, IsValidationError(err))
	}
}

func TestCalculator_Finetune_Validation(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name   string
		mutate func(*models.FinetuneRequest)
		field  string
	}{
		{"zero params", func(r *models.FinetuneRequest) { r.ParamsBillions = 0 }, "params_billions"},
		{"negative params", func(r *models.FinetuneRequest) { r.ParamsBillions = -1 }, "params_billions"},
		{"zero batch", func(r *models.FinetuneRequest) { r.BatchSize = 0 }, "batch_size"},
		{"zero seq", func(r *models.FinetuneRequest) { r.SeqLength = 0 }, "seq_length"},
		{"zero grad accum", func(r *models.FinetuneRequest) { r.GradAccumSteps = 0 }, "grad_accum_steps"},
		{"negative gpus", func(r *models.FinetuneRequest) { r.NumGPUs = -1 }, "num_gpus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validFinetuneRequest()
			tt.mutate(&req)

			_, err := calc.Finetune(req)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCalculator_Finetune_ZeroGPUs(t *testing.T) {
	calc := newTestCalculator()

	req := validFinetuneRequest()
	req.NumGPUs = 0

	result, err := calc.Finetune(req)
	require.NoError(t, err)

	assert.False(t, result.WillItFit)
	assert.Equal(t, result.Details.TotalVRAM, result.Details.VRAMPerGPU)
	assert.True(t, math.IsInf(result.Details.VRAMUsagePercent, 1))
}

func TestCalculator_Finetune_Idempotent(t *testing.T) {
	calc := newTestCalculator()

	req := models.FinetuneRequest{
		ParamsBillions: 13,
		Method:         models.MethodLoRA,
		GPU:            "rtx-4090",
		NumGPUs:        1,
		BatchSize:      2,
		SeqLength:      4096,
		GradAccumSteps: 2,
	}

	a, err := calc.Finetune(req)
	require.NoError(t, err)
	b, err := calc.Finetune(req)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}
