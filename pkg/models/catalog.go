package models

// GPUProfile maps a device name to its VRAM capacity.
type GPUProfile struct {
	Name    string   `json:"name"`              // Canonical name, e.g. "rtx-4090"
	VRAMGB  float64  `json:"vram_gb"`           // Capacity in GB
	Aliases []string `json:"aliases,omitempty"` // Short codes resolving to this device
}

// PrecisionInfo is one row of the precision table.
type PrecisionInfo struct {
	Name          Precision `json:"name"`
	BytesPerParam float64   `json:"bytes_per_param"`
}

// MethodProfile holds the fixed constants for one fine-tuning method.
// WeightPrecision is the numeric format the method assumes for the base
// model; the optimizer, activation, and adapter factors are multiples of
// the weight footprint.
type MethodProfile struct {
	Name                  FinetuneMethod `json:"name"`
	Description           string         `json:"description"`
	WeightPrecision       Precision      `json:"weight_precision"`
	OptimizerFactor       float64        `json:"optimizer_states_factor"`
	ActivationFactor      float64        `json:"activation_factor"`
	AdapterOverhead       float64        `json:"adapter_overhead"`
	GradientCheckpointing bool           `json:"gradient_checkpointing"`
}

// ArchitectureBucket is one row of the parameter-count lookup table.
// ApproxParams is the parameter count implied by the shape itself,
// reported so callers can see how coarse the bucket approximation is.
type ArchitectureBucket struct {
	Label        string       `json:"label"` // e.g. "7B"
	ParamsB      float64      `json:"params_billions"`
	Architecture Architecture `json:"architecture"`
	ApproxParams float64      `json:"approx_params_billions,omitempty"`
}

// ModelTier is a coarse size category for model presets.
type ModelTier string

const (
	TierSmall  ModelTier = "small"
	TierMedium ModelTier = "medium"
	TierLarge  ModelTier = "large"
)

// ModelPreset maps a model preset name to the parameter count used for
// estimates, e.g. "mistral-7b" -> 7.0.
type ModelPreset struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Family  string    `json:"family"`
	ParamsB float64   `json:"params_billions"`
	Tier    ModelTier `json:"tier"`
	Notes   string    `json:"notes,omitempty"`
}
