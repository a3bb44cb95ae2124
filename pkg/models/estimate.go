package models

// Precision identifies a numeric representation for model parameters.
// The byte cost of each label lives in the catalog.
type Precision string

const (
	PrecisionFP32 Precision = "FP32"
	PrecisionFP16 Precision = "FP16"
	PrecisionBF16 Precision = "BF16"
	PrecisionINT8 Precision = "INT8"
	PrecisionQ8   Precision = "Q8"
	PrecisionQ6   Precision = "Q6"
	PrecisionQ5   Precision = "Q5"
	PrecisionINT4 Precision = "INT4"
	PrecisionQ4   Precision = "Q4"
	PrecisionQ2   Precision = "Q2"
)

// FinetuneMethod identifies a fine-tuning strategy.
type FinetuneMethod string

const (
	MethodFull  FinetuneMethod = "full"
	MethodLoRA  FinetuneMethod = "lora"
	MethodQLoRA FinetuneMethod = "qlora"
)

// InferenceRequest describes a single inference estimate.
// GPU accepts a device name, a short code, or a numeric capacity in GB;
// unrecognized values resolve to the default capacity rather than failing.
type InferenceRequest struct {
	ParamsBillions     float64   `json:"params_billions"`
	Precision          Precision `json:"precision"`
	GPU                string    `json:"gpu"`
	NumGPUs            int       `json:"num_gpus"`
	BatchSize          int       `json:"batch_size"`
	SeqLength          int       `json:"seq_length"`
	ConcurrentRequests int       `json:"concurrent_requests"`
	IsReasoning        bool      `json:"is_reasoning"`
}

// FinetuneRequest describes a single fine-tuning estimate.
type FinetuneRequest struct {
	ParamsBillions float64        `json:"params_billions"`
	Method         FinetuneMethod `json:"method"`
	GPU            string         `json:"gpu"`
	NumGPUs        int            `json:"num_gpus"`
	BatchSize      int            `json:"batch_size"`
	SeqLength      int            `json:"seq_length"`
	GradAccumSteps int            `json:"grad_accum_steps"`
}

// Architecture is the approximate transformer shape used to size the KV cache.
type Architecture struct {
	HiddenDim int `json:"hidden_dim"`
	NumLayers int `json:"num_layers"`
}

// Suggestion is one alternative configuration that would fit. Type selects
// which of the category fields is populated; the others are omitted.
type Suggestion struct {
	Type           SuggestionType `json:"type"`
	BatchSize      int            `json:"batch_size,omitempty"`
	SequenceLength int            `json:"sequence_length,omitempty"`
	Precision      Precision      `json:"precision,omitempty"`
	NumGPUs        int            `json:"num_gpus,omitempty"`
	Method         FinetuneMethod `json:"method,omitempty"`
	GradAccumSteps int            `json:"grad_accum_steps,omitempty"`
	NeededVRAM     float64        `json:"needed_vram"`
}

// SuggestionType tags the perturbation category a suggestion belongs to.
type SuggestionType string

const (
	SuggestReduceBatch   SuggestionType = "reduce_batch_size"
	SuggestReduceSeq     SuggestionType = "reduce_sequence_length"
	SuggestQuantize      SuggestionType = "more_quantization"
	SuggestMoreGPUs      SuggestionType = "increase_gpus"
	SuggestChangeMethod  SuggestionType = "change_method"
	SuggestMoreGradAccum SuggestionType = "increase_grad_accum"
)

// InferenceDetails is the component breakdown of an inference estimate.
// All magnitudes are GB rounded to 2 decimals.
type InferenceDetails struct {
	ModelWeights     float64      `json:"model_weights"`
	ActivationMemory float64      `json:"activation_memory"`
	KVCache          float64      `json:"kv_cache"`
	BaseVRAM         float64      `json:"base_vram"`
	OverheadFactor   float64      `json:"overhead_factor"`
	TotalVRAM        float64      `json:"total_vram"`
	VRAMPerGPU       float64      `json:"vram_per_gpu"`
	VRAMUsagePercent float64      `json:"vram_usage_percent"`
	Architecture     Architecture `json:"architecture"`
}

// InferenceResult is the verdict for one inference estimate.
type InferenceResult struct {
	WillItFit    bool             `json:"will_it_fit"`
	NeededVRAM   float64          `json:"needed_vram"`
	TotalKVCache float64          `json:"total_kv_cache"`
	Details      InferenceDetails `json:"details"`
	Suggestions  []Suggestion     `json:"suggestions"`
}

// FinetuneDetails is the component breakdown of a fine-tuning estimate.
// EffectiveBatchSize is batch size divided by gradient accumulation steps
// and may be fractional. GradientCheckpointing describes the method's usual
// setup; it does not change the totals.
type FinetuneDetails struct {
	ModelWeights          float64      `json:"model_weights"`
	ActivationMemory      float64      `json:"activation_memory"`
	OptimizerStates       float64      `json:"optimizer_states"`
	KVCache               float64      `json:"kv_cache"`
	GradientCheckpointing bool         `json:"gradient_checkpointing"`
	MethodDescription     string       `json:"method_description"`
	TotalVRAM             float64      `json:"total_vram"`
	VRAMPerGPU            float64      `json:"vram_per_gpu"`
	VRAMUsagePercent      float64      `json:"vram_usage_percent"`
	EffectiveBatchSize    float64      `json:"effective_batch_size"`
	Architecture          Architecture `json:"architecture"`
}

// FinetuneResult is the verdict for one fine-tuning estimate.
type FinetuneResult struct {
	WillItFit   bool            `json:"will_it_fit"`
	NeededVRAM  float64         `json:"needed_vram"`
	Details     FinetuneDetails `json:"details"`
	Suggestions []Suggestion    `json:"suggestions"`
}
