package assets

import (
	"os"
	"path/filepath"
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	l := DefaultLibrary()
	assert.Equal(t, []string{"asphalt", "concrete", "dirt", "grass", "ice", "rubber"}, l.Names())

	ice, ok := l.Get("ice")
	require.True(t, ok)
	m := ice.Material()
	assert.InDelta(t, 0.05, m.Friction, 1e-6)
	assert.Zero(t, m.Bounce)

	_, ok = l.Get("lava")
	assert.False(t, ok)
}

func TestLookupColor(t *testing.T) {
	assert.Equal(t, rl.Maroon, LookupColor("Maroon"))
	assert.Equal(t, rl.White, LookupColor("Chartreuse"))
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "surfaces.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadLibrary(t *testing.T) {
	l, err := LoadLibrary(writeFile(t, `[
		{"name": "sand", "color": "Beige", "friction": 0.4},
		{"name": "ice", "color": "White", "friction": 0.02},
		{"name": "trampoline", "bounce": 0.9}
	]`))
	require.NoError(t, err)

	sand, ok := l.Get("sand")
	require.True(t, ok)
	assert.Equal(t, rl.Beige, sand.Color)
	assert.InDelta(t, 0.4, sand.Friction, 1e-6)

	ice, _ := l.Get("ice")
	assert.InDelta(t, 0.02, ice.Friction, 1e-6, "file overrides the default")

	tramp, _ := l.Get("trampoline")
	assert.InDelta(t, 1, tramp.Friction, 1e-6, "missing friction defaults to 1")

	_, ok = l.Get("asphalt")
	assert.True(t, ok, "defaults stay available")
}

func TestLoadLibraryErrors(t *testing.T) {
	_, err := LoadLibrary(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	for name, body := range map[string]string{
		"syntax":   `[{"name": }]`,
		"unnamed":  `[{"friction": 1}]`,
		"negative": `[{"name": "x", "friction": -1}]`,
		"bouncy":   `[{"name": "x", "bounce": 2}]`,
	} {
		_, err := LoadLibrary(writeFile(t, body))
		assert.Error(t, err, name)
	}
}

func TestRepositorySurfaces(t *testing.T) {
	l, err := LoadLibrary(filepath.Join("..", "..", "assets", "scenes", "surfaces.json"))
	require.NoError(t, err)
	for _, name := range []string{"gravel", "wet_asphalt", "mud"} {
		_, ok := l.Get(name)
		assert.True(t, ok, name)
	}
}
