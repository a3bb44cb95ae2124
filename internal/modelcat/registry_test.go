package modelcat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vramcheck/vramcheck/pkg/models"
)

func TestRegistry_Builtins(t *testing.T) {
	r := New()

	p, ok := r.Get("mistral-7b")
	require.True(t, ok)
	assert.Equal(t, 7.0, p.ParamsB)
	assert.Equal(t, models.TierSmall, p.Tier)

	p, ok = r.Get("deepseek-r1")
	require.True(t, ok)
	assert.Equal(t, 671.0, p.ParamsB)

	assert.Equal(t, 9, r.Count())
}

func TestRegistry_GetCaseInsensitive(t *testing.T) {
	r := New()

	p, ok := r.Get("  Qwen2.5-72B ")
	require.True(t, ok)
	assert.Equal(t, "qwen2.5-72b", p.ID)

	_, ok = r.Get("no-such-model")
	assert.False(t, ok)
}

func TestRegistry_AllOrderedByParams(t *testing.T) {
	r := New()

	all := r.All()
	require.Len(t, all, r.Count())

	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		ordered := prev.ParamsB < cur.ParamsB ||
			(prev.ParamsB == cur.ParamsB && prev.ID < cur.ID)
		assert.True(t, ordered, "%s before %s", prev.ID, cur.ID)
	}
}

func TestRegistry_LoadManifestDir(t *testing.T) {
	dir := t.TempDir()

	manifest := `[
		{"id": "Custom-9B", "name": "Custom 9B", "family": "custom", "params_billions": 9.0},
		{"id": "mistral-7b", "name": "Mistral 7B v0.9", "family": "mistral", "params_billions": 7.5, "tier": "small"},
		{"id": "", "name": "missing id", "params_billions": 1.0},
		{"id": "negative", "name": "bad params", "params_billions": -3.0}
	]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "models.json"), []byte(manifest), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	r := New()
	before := r.Count()
	require.NoError(t, r.LoadManifestDir(dir))

	// One new entry; the override and the two invalid entries do not
	// change the count.
	assert.Equal(t, before+1, r.Count())

	p, ok := r.Get("custom-9b")
	require.True(t, ok)
	assert.Equal(t, 9.0, p.ParamsB)
	assert.Equal(t, models.TierSmall, p.Tier)

	// Manifest entries replace built-ins with the same ID.
	p, ok = r.Get("mistral-7b")
	require.True(t, ok)
	assert.Equal(t, 7.5, p.ParamsB)
	assert.Equal(t, "Mistral 7B v0.9", p.Name)
}

func TestRegistry_LoadManifestDir_Missing(t *testing.T) {
	r := New()
	err := r.LoadManifestDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRegistry_TierFor(t *testing.T) {
	assert.Equal(t, models.TierSmall, tierFor(7))
	assert.Equal(t, models.TierSmall, tierFor(13))
	assert.Equal(t, models.TierMedium, tierFor(32))
	assert.Equal(t, models.TierLarge, tierFor(70))
}
