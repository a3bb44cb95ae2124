// Package estimate computes the VRAM required to run or fine-tune a
// large language model on a given GPU configuration. Both estimators
// are pure functions over their request and the static catalog tables;
// repeated calls with identical inputs produce identical results.
package estimate

import (
	"math"

	"github.com/vramcheck/vramcheck/internal/catalog"
	"github.com/vramcheck/vramcheck/pkg/models"
)

const (
	// Inference activations are a fraction of the weight footprint.
	inferenceActivationFactor = 0.2

	// Runtime overhead on top of the component sum.
	overheadStandard  = 1.15
	overheadReasoning = 1.25
	overheadTraining  = 1.2

	// Fraction of physical VRAM usable after system and CUDA overhead.
	usableVRAMFraction = 0.95

	// Suggestion search does not propose GPU counts at or above this.
	maxSuggestGPUs = 8
)

// Calculator produces VRAM estimates against a fixed catalog.
type Calculator struct {
	catalog *catalog.Catalog
}

// New creates a calculator backed by the given catalog.
func New(cat *catalog.Catalog) *Calculator {
	return &Calculator{catalog: cat}
}

// round2 rounds to two decimals for presentation. Fit decisions are
// made on unrounded values.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// kvCachePerTokenGB returns the KV cache footprint of a single token.
// The factor 2 covers the key and value tensors.
func kvCachePerTokenGB(arch models.Architecture, bytesPerParam float64) float64 {
	return float64(arch.HiddenDim) * 2 * bytesPerParam * float64(arch.NumLayers) / 1e9
}

// willFit reports whether the total fits in the usable capacity of the
// GPU configuration.
func willFit(totalVRAM, gpuVRAM float64, numGPUs int) bool {
	available := gpuVRAM * float64(numGPUs) * usableVRAMFraction
	return totalVRAM <= available
}

// perGPU distributes the total across GPUs. With zero GPUs the
// undivided total is reported instead of dividing by zero.
func perGPU(totalVRAM float64, numGPUs int) float64 {
	if numGPUs > 0 {
		return totalVRAM / float64(numGPUs)
	}
	return totalVRAM
}

// usagePercent is the total as a percentage of raw capacity. Zero
// capacity yields +Inf rather than a division failure.
func usagePercent(totalVRAM, gpuVRAM float64, numGPUs int) float64 {
	available := gpuVRAM * float64(numGPUs)
	if available <= 0 {
		return math.Inf(1)
	}
	return totalVRAM / available * 100
}
