package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Render.FramesInFlight)
	assert.Equal(t, uint32(800), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg := Default()
	err := Parse([]byte(`
[render]
frames_in_flight = 2
validation = true

[log]
level = "debug"
`), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Render.FramesInFlight)
	assert.True(t, cfg.Render.Validation)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "assets/shaders/vert.spv", cfg.Render.VertexShader)
	assert.Equal(t, "meshview", cfg.Window.Title)
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"too many frames", "[render]\nframes_in_flight = 4\n"},
		{"zero frames", "[render]\nframes_in_flight = 0\n"},
		{"zero width", "[window]\nwidth = 0\n"},
		{"no samples", "[render]\nmax_samples = 0\n"},
		{"empty shader", "[render]\nfragment_shader = \"\"\n"},
		{"empty model", "[model]\npath = \"\"\n"},
		{"bad toml", "[render\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Parse([]byte(tt.data), Default()))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window]\ntitle = \"cube\"\nwidth = 1024\n"), 0o644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cube", cfg.Window.Title)
	assert.Equal(t, uint32(1024), cfg.Window.Width)
	assert.Equal(t, uint32(600), cfg.Window.Height)
}
