package cmd

import "github.com/vramcheck/vramcheck/pkg/models"

// Re-export wire types from models for CLI use. Estimate results carry
// only numbers, strings, and bools, so the server structs decode as-is.
type (
	InferenceResult    = models.InferenceResult
	FinetuneResult     = models.FinetuneResult
	Suggestion         = models.Suggestion
	GPUProfile         = models.GPUProfile
	PrecisionInfo      = models.PrecisionInfo
	MethodProfile      = models.MethodProfile
	ArchitectureBucket = models.ArchitectureBucket
	ModelPreset        = models.ModelPreset
)
