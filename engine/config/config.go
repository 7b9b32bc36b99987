package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config is the viewer configuration, loaded from a TOML file.
type Config struct {
	Window WindowConfig `toml:"window"`
	Render RenderConfig `toml:"render"`
	Model  ModelConfig  `toml:"model"`
	Log    LogConfig    `toml:"log"`
}

type WindowConfig struct {
	Title  string `toml:"title"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
}

type RenderConfig struct {
	// FramesInFlight bounds how far the CPU may run ahead of the GPU.
	FramesInFlight int `toml:"frames_in_flight"`
	// MaxSamples caps the MSAA sample count, 1 disables multisampling.
	MaxSamples     int    `toml:"max_samples"`
	Validation     bool   `toml:"validation"`
	VertexShader   string `toml:"vertex_shader"`
	FragmentShader string `toml:"fragment_shader"`
	HotReload      bool   `toml:"hot_reload"`
}

type ModelConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

const (
	MinFramesInFlight = 1
	MaxFramesInFlight = 3
)

func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:  "meshview",
			Width:  800,
			Height: 600,
		},
		Render: RenderConfig{
			FramesInFlight: 1,
			MaxSamples:     64,
			Validation:     false,
			VertexShader:   "assets/shaders/vert.spv",
			FragmentShader: "assets/shaders/frag.spv",
			HotReload:      false,
		},
		Model: ModelConfig{
			Path: "assets/models/cube.obj",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data into cfg and validates the result. Keys absent from
// data keep the values already in cfg.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.Window.Width == 0 || c.Window.Height == 0 {
		return fmt.Errorf("window size must be non-zero, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.FramesInFlight < MinFramesInFlight || c.Render.FramesInFlight > MaxFramesInFlight {
		return fmt.Errorf("frames_in_flight must be in [%d,%d], got %d", MinFramesInFlight, MaxFramesInFlight, c.Render.FramesInFlight)
	}
	if c.Render.MaxSamples < 1 {
		return fmt.Errorf("max_samples must be at least 1, got %d", c.Render.MaxSamples)
	}
	if c.Render.VertexShader == "" || c.Render.FragmentShader == "" {
		return errors.New("vertex_shader and fragment_shader are required")
	}
	if c.Model.Path == "" {
		return errors.New("model path is required")
	}
	return nil
}
