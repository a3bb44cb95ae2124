// Package modelcat maintains the model preset registry: named models
// with known parameter counts that estimate requests can reference by
// ID instead of passing a raw count.
package modelcat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/vramcheck/vramcheck/pkg/models"
)

// Registry holds model presets keyed by ID. Built-in presets are
// registered at construction; manifest directories can add to or
// override them before serving starts.
type Registry struct {
	logger *slog.Logger

	mu      sync.RWMutex
	presets map[string]*models.ModelPreset
}

// Option configures the registry
type Option func(*Registry)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a registry seeded with the built-in presets.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:  slog.Default(),
		presets: make(map[string]*models.ModelPreset),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.initBuiltins()
	return r
}

func (r *Registry) initBuiltins() {
	builtins := []*models.ModelPreset{
		{ID: "mistral-7b", Name: "Mistral 7B Instruct v0.3", Family: "mistral", ParamsB: 7.0, Tier: models.TierSmall},
		{ID: "qwen2.5-7b", Name: "Qwen 2.5 7B Instruct", Family: "qwen", ParamsB: 7.0, Tier: models.TierSmall},
		{ID: "llama3.1-8b", Name: "Llama 3.1 8B Instruct", Family: "llama", ParamsB: 8.0, Tier: models.TierSmall},
		{ID: "qwen2.5-32b", Name: "Qwen 2.5 32B Instruct", Family: "qwen", ParamsB: 32.0, Tier: models.TierMedium},
		{ID: "deepseek-33b", Name: "DeepSeek LLM 33B Chat", Family: "deepseek", ParamsB: 33.0, Tier: models.TierMedium},
		{ID: "deepseek-67b", Name: "DeepSeek LLM 67B Chat", Family: "deepseek", ParamsB: 67.0, Tier: models.TierLarge},
		{ID: "llama3.1-70b", Name: "Llama 3.1 70B Instruct", Family: "llama", ParamsB: 70.0, Tier: models.TierLarge},
		{ID: "qwen2.5-72b", Name: "Qwen 2.5 72B Instruct", Family: "qwen", ParamsB: 72.0, Tier: models.TierLarge},
		{ID: "deepseek-r1", Name: "DeepSeek R1", Family: "deepseek", ParamsB: 671.0, Tier: models.TierLarge,
			Notes: "Reasoning model; estimate inference with is_reasoning set"},
	}
	for _, p := range builtins {
		r.presets[p.ID] = p
	}
}

// LoadManifestDir merges preset manifests from dir into the registry.
// Each *.json file holds an array of presets. Malformed files and
// invalid entries are skipped with a warning; a valid entry replaces
// any existing preset with the same ID.
func (r *Registry) LoadManifestDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read manifest dir: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		n, err := r.loadManifest(path)
		if err != nil {
			r.logger.Warn("skipping model manifest", "path", path, "error", err)
			continue
		}
		loaded += n
	}

	r.logger.Info("model manifests loaded", "dir", dir, "presets", loaded)
	return nil
}

func (r *Registry) loadManifest(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var presets []models.ModelPreset
	if err := json.Unmarshal(data, &presets); err != nil {
		return 0, fmt.Errorf("failed to parse manifest: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for i := range presets {
		p := presets[i]
		p.ID = strings.ToLower(strings.TrimSpace(p.ID))
		if p.ID == "" || p.ParamsB <= 0 {
			r.logger.Warn("skipping invalid preset", "path", path, "id", p.ID)
			continue
		}
		if p.Tier == "" {
			p.Tier = tierFor(p.ParamsB)
		}
		r.presets[p.ID] = &p
		n++
	}
	return n, nil
}

func tierFor(paramsB float64) models.ModelTier {
	switch {
	case paramsB <= 13:
		return models.TierSmall
	case paramsB <= 40:
		return models.TierMedium
	default:
		return models.TierLarge
	}
}

// Get returns a preset by ID, case-insensitively.
func (r *Registry) Get(id string) (*models.ModelPreset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[strings.ToLower(strings.TrimSpace(id))]
	return p, ok
}

// All returns presets ordered by ascending parameter count, then ID.
func (r *Registry) All() []*models.ModelPreset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.ModelPreset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParamsB != out[j].ParamsB {
			return out[i].ParamsB < out[j].ParamsB
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of registered presets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.presets)
}
