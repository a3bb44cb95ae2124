// Package catalog holds the static reference tables the estimators run
// against: transformer architecture shapes, precision byte widths, GPU
// VRAM capacities and fine-tuning method profiles. The tables never
// change at runtime, so a Catalog is safe for concurrent use.
package catalog

import (
	"strconv"
	"strings"

	"github.com/vramcheck/vramcheck/pkg/models"
)

// DefaultVRAMGB is assumed when a GPU cannot be resolved by name or
// parsed as a capacity. Unknown hardware degrades to a guess, not an
// error.
const DefaultVRAMGB = 24.0

// paramsPerShapeFactor approximates params ~= hidden_dim^2 * num_layers * 2.5.
const paramsPerShapeFactor = 2.5

// Catalog provides lookups over the reference tables.
type Catalog struct {
	shapes      []*models.ArchitectureBucket
	precisions  map[models.Precision]*models.PrecisionInfo
	precOrder   []models.Precision
	gpus        map[string]*models.GPUProfile
	gpuOrder    []string
	gpuAliases  map[string]string
	methods     map[models.FinetuneMethod]*models.MethodProfile
	methodOrder []models.FinetuneMethod
}

// New creates a catalog with the default tables.
func New() *Catalog {
	c := &Catalog{
		precisions: make(map[models.Precision]*models.PrecisionInfo),
		gpus:       make(map[string]*models.GPUProfile),
		gpuAliases: make(map[string]string),
		methods:    make(map[models.FinetuneMethod]*models.MethodProfile),
	}
	c.initShapes()
	c.initPrecisions()
	c.initGPUs()
	c.initMethods()
	return c
}

func (c *Catalog) initShapes() {
	// Ascending by parameter count; ResolveShape depends on the order.
	c.shapes = []*models.ArchitectureBucket{
		{Label: "1B", ParamsB: 1, Architecture: models.Architecture{HiddenDim: 2048, NumLayers: 22}},
		{Label: "3B", ParamsB: 3, Architecture: models.Architecture{HiddenDim: 3072, NumLayers: 26}},
		{Label: "7B", ParamsB: 7, Architecture: models.Architecture{HiddenDim: 4096, NumLayers: 32}},
		{Label: "13B", ParamsB: 13, Architecture: models.Architecture{HiddenDim: 5120, NumLayers: 40}},
		{Label: "30B", ParamsB: 30, Architecture: models.Architecture{HiddenDim: 7168, NumLayers: 60}},
		{Label: "65B", ParamsB: 65, Architecture: models.Architecture{HiddenDim: 8192, NumLayers: 80}},
		{Label: "120B", ParamsB: 120, Architecture: models.Architecture{HiddenDim: 12288, NumLayers: 96}},
		{Label: "405B", ParamsB: 405, Architecture: models.Architecture{HiddenDim: 16384, NumLayers: 120}},
		{Label: "671B", ParamsB: 671, Architecture: models.Architecture{HiddenDim: 20480, NumLayers: 160}},
	}
	for _, s := range c.shapes {
		s.ApproxParams = c.EstimateParams(s.Architecture)
	}
}

func (c *Catalog) initPrecisions() {
	precisions := []*models.PrecisionInfo{
		{Name: models.PrecisionFP32, BytesPerParam: 4.0},
		{Name: models.PrecisionFP16, BytesPerParam: 2.0},
		{Name: models.PrecisionBF16, BytesPerParam: 2.0},
		{Name: models.PrecisionINT8, BytesPerParam: 1.0},
		{Name: models.PrecisionQ8, BytesPerParam: 1.0},
		{Name: models.PrecisionQ6, BytesPerParam: 0.75},
		{Name: models.PrecisionQ5, BytesPerParam: 0.625},
		{Name: models.PrecisionINT4, BytesPerParam: 0.5},
		{Name: models.PrecisionQ4, BytesPerParam: 0.5},
		{Name: models.PrecisionQ2, BytesPerParam: 0.25},
	}
	for _, p := range precisions {
		c.precisions[p.Name] = p
		c.precOrder = append(c.precOrder, p.Name)
	}
}

func (c *Catalog) initGPUs() {
	gpus := []*models.GPUProfile{
		// Consumer GPUs
		{Name: "rtx-3060", VRAMGB: 12},
		{Name: "rtx-3070", VRAMGB: 8},
		{Name: "rtx-3080", VRAMGB: 10},
		{Name: "rtx-3090", VRAMGB: 24},
		{Name: "rtx-4060", VRAMGB: 8},
		{Name: "rtx-4070", VRAMGB: 12},
		{Name: "rtx-4080", VRAMGB: 16},
		{Name: "rtx-4090", VRAMGB: 24},

		// Professional GPUs
		{Name: "rtx-6000", VRAMGB: 48},
		{Name: "l40s", VRAMGB: 48},

		// Data center GPUs
		{Name: "a100-40g", VRAMGB: 40},
		{Name: "a100-80g", VRAMGB: 80, Aliases: []string{"a100"}},
		{Name: "h100", VRAMGB: 80},
		{Name: "h200", VRAMGB: 141},
	}
	for _, g := range gpus {
		c.gpus[g.Name] = g
		c.gpuOrder = append(c.gpuOrder, g.Name)
		for _, alias := range g.Aliases {
			c.gpuAliases[alias] = g.Name
		}
	}
}

func (c *Catalog) initMethods() {
	methods := []*models.MethodProfile{
		{
			Name:                  models.MethodFull,
			Description:           "Full fine-tuning of all model parameters",
			WeightPrecision:       models.PrecisionFP16,
			OptimizerFactor:       4.0,
			ActivationFactor:      2.0,
			AdapterOverhead:       0,
			GradientCheckpointing: false,
		},
		{
			Name:                  models.MethodLoRA,
			Description:           "Low-Rank Adaptation with adapter modules",
			WeightPrecision:       models.PrecisionFP16,
			OptimizerFactor:       0.1,
			ActivationFactor:      1.0,
			AdapterOverhead:       0.05,
			GradientCheckpointing: true,
		},
		{
			Name:                  models.MethodQLoRA,
			Description:           "Quantized Low-Rank Adaptation with 4-bit quantization",
			WeightPrecision:       models.PrecisionINT4,
			OptimizerFactor:       0.1,
			ActivationFactor:      0.5,
			AdapterOverhead:       0.05,
			GradientCheckpointing: true,
		},
	}
	for _, m := range methods {
		c.methods[m.Name] = m
		c.methodOrder = append(c.methodOrder, m.Name)
	}
}

// ResolveShape returns the hidden dimension and layer count for a
// parameter count: the smallest bucket that covers it, or the largest
// bucket when the count exceeds every threshold.
func (c *Catalog) ResolveShape(paramsB float64) models.Architecture {
	for _, s := range c.shapes {
		if s.ParamsB >= paramsB {
			return s.Architecture
		}
	}
	return c.shapes[len(c.shapes)-1].Architecture
}

// EstimateParams approximates the parameter count in billions implied
// by an architecture shape.
func (c *Catalog) EstimateParams(arch models.Architecture) float64 {
	h := float64(arch.HiddenDim)
	return h * h * float64(arch.NumLayers) * paramsPerShapeFactor / 1e9
}

// NormalizePrecision maps a precision to its canonical form,
// case-insensitively. Returns false for precisions not in the table.
func (c *Catalog) NormalizePrecision(p models.Precision) (models.Precision, bool) {
	canonical := models.Precision(strings.ToUpper(strings.TrimSpace(string(p))))
	if _, ok := c.precisions[canonical]; !ok {
		return "", false
	}
	return canonical, true
}

// BytesPerParam returns the byte width of one parameter at the given
// precision. Returns false for precisions not in the table.
func (c *Catalog) BytesPerParam(p models.Precision) (float64, bool) {
	canonical, ok := c.NormalizePrecision(p)
	if !ok {
		return 0, false
	}
	return c.precisions[canonical].BytesPerParam, true
}

// ResolveGPU maps a GPU name or a raw capacity string to a VRAM
// capacity in GB, along with the resolved name. Names are matched
// case-insensitively with spaces treated as dashes ("RTX 4090" and
// "rtx-4090" are the same device), then checked against aliases. A
// value that parses as a positive number is taken as a capacity in GB.
// Anything else falls back to DefaultVRAMGB.
func (c *Catalog) ResolveGPU(gpu string) (float64, string) {
	key := normalizeGPUName(gpu)
	if canonical, ok := c.gpuAliases[key]; ok {
		key = canonical
	}
	if g, ok := c.gpus[key]; ok {
		return g.VRAMGB, g.Name
	}
	if v, err := strconv.ParseFloat(key, 64); err == nil && v > 0 {
		return v, key
	}
	return DefaultVRAMGB, key
}

func normalizeGPUName(gpu string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(gpu)), " ", "-")
}

// GPU returns a GPU profile by name, applying the same normalization
// as ResolveGPU.
func (c *Catalog) GPU(name string) (*models.GPUProfile, bool) {
	key := normalizeGPUName(name)
	if canonical, ok := c.gpuAliases[key]; ok {
		key = canonical
	}
	g, ok := c.gpus[key]
	return g, ok
}

// Method returns a fine-tuning method profile by name,
// case-insensitively. Returns false for unknown methods.
func (c *Catalog) Method(name models.FinetuneMethod) (*models.MethodProfile, bool) {
	canonical := models.FinetuneMethod(strings.ToLower(strings.TrimSpace(string(name))))
	m, ok := c.methods[canonical]
	return m, ok
}

// MethodNames returns the known method names in canonical order.
func (c *Catalog) MethodNames() []models.FinetuneMethod {
	out := make([]models.FinetuneMethod, len(c.methodOrder))
	copy(out, c.methodOrder)
	return out
}

// Architectures returns the shape buckets in ascending parameter order.
func (c *Catalog) Architectures() []*models.ArchitectureBucket {
	out := make([]*models.ArchitectureBucket, len(c.shapes))
	copy(out, c.shapes)
	return out
}

// Precisions returns the precision table in descending byte width order.
func (c *Catalog) Precisions() []*models.PrecisionInfo {
	out := make([]*models.PrecisionInfo, 0, len(c.precOrder))
	for _, name := range c.precOrder {
		out = append(out, c.precisions[name])
	}
	return out
}

// GPUs returns the GPU table in a stable order for listings.
func (c *Catalog) GPUs() []*models.GPUProfile {
	out := make([]*models.GPUProfile, 0, len(c.gpuOrder))
	for _, name := range c.gpuOrder {
		out = append(out, c.gpus[name])
	}
	return out
}

// Methods returns the method profiles in canonical order.
func (c *Catalog) Methods() []*models.MethodProfile {
	out := make([]*models.MethodProfile, 0, len(c.methodOrder))
	for _, name := range c.methodOrder {
		out = append(out, c.methods[name])
	}
	return out
}
