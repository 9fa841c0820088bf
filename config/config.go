// Package config handles redactkit configuration loading.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wudi/redactkit/contentstream"
	"github.com/wudi/redactkit/coords"
	"github.com/wudi/redactkit/export"
	"github.com/wudi/redactkit/gesture"
	"github.com/wudi/redactkit/viewport"
)

// Config is the root configuration structure.
type Config struct {
	Viewport  ViewportConfig  `yaml:"viewport"`
	Draw      DrawConfig      `yaml:"draw"`
	Export    ExportConfig    `yaml:"export"`
	Container ContainerConfig `yaml:"container"`
	Log       LogConfig       `yaml:"log"`
	Shell     ShellConfig     `yaml:"shell"`
}

// ViewportConfig holds zoom and render quality settings.
type ViewportConfig struct {
	MinZoom          float64 `yaml:"min_zoom"`
	MaxZoom          float64 `yaml:"max_zoom"`
	ZoomStep         float64 `yaml:"zoom_step"`
	RenderMultiplier float64 `yaml:"render_multiplier"`
	Padding          float64 `yaml:"padding"`
	MaxPixels        int     `yaml:"max_pixels"`
}

// DrawConfig holds gesture settings.
type DrawConfig struct {
	MinSelectionPx float64 `yaml:"min_selection_px"`
}

// ExportConfig holds output settings.
type ExportConfig struct {
	RedactionColor string `yaml:"redaction_color"`
	OutputPrefix   string `yaml:"output_prefix"`
	OutputDir      string `yaml:"output_dir"`
}

// ContainerConfig is the viewer area used when no window reports a size.
type ContainerConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type ShellConfig struct {
	HistoryFile string `yaml:"history_file"`
	// SaveDialog is how the destination of a save is chosen: "prompt"
	// asks in the shell, "native" opens the system dialog, "none" writes
	// straight into export.output_dir.
	SaveDialog string `yaml:"save_dialog"`
}

// Default returns the default configuration.
func Default() *Config {
	vp := viewport.DefaultConfig()
	return &Config{
		Viewport: ViewportConfig{
			MinZoom:          vp.MinZoom,
			MaxZoom:          vp.MaxZoom,
			ZoomStep:         vp.ZoomStep,
			RenderMultiplier: vp.RenderMultiplier,
			Padding:          vp.Padding,
			MaxPixels:        40_000_000,
		},
		Draw: DrawConfig{
			MinSelectionPx: gesture.DefaultConfig().MinSize,
		},
		Export: ExportConfig{
			RedactionColor: "#000000",
			OutputPrefix:   export.DefaultOptions().Prefix,
			OutputDir:      ".",
		},
		Container: ContainerConfig{
			Width:  1200,
			Height: 820,
		},
		Log: LogConfig{
			Level: "info",
		},
		Shell: ShellConfig{
			SaveDialog: "prompt",
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.ViewportConfig().Validate(); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	if c.Draw.MinSelectionPx < 0 {
		return fmt.Errorf("draw: min_selection_px must not be negative, got %g", c.Draw.MinSelectionPx)
	}
	if _, err := contentstream.ParseColor(c.Export.RedactionColor); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if c.Container.Width <= 0 || c.Container.Height <= 0 {
		return fmt.Errorf("container: size must be positive, got %gx%g", c.Container.Width, c.Container.Height)
	}
	switch c.Shell.SaveDialog {
	case "", "prompt", "native", "none":
	default:
		return fmt.Errorf("shell: unknown save_dialog %q", c.Shell.SaveDialog)
	}
	return nil
}

func (c *Config) ViewportConfig() viewport.Config {
	return viewport.Config{
		MinZoom:          c.Viewport.MinZoom,
		MaxZoom:          c.Viewport.MaxZoom,
		ZoomStep:         c.Viewport.ZoomStep,
		RenderMultiplier: c.Viewport.RenderMultiplier,
		Padding:          c.Viewport.Padding,
	}
}

func (c *Config) GestureConfig() gesture.Config {
	return gesture.Config{MinSize: c.Draw.MinSelectionPx}
}

// ExportOptions converts the export section. The colour must already have
// passed Validate.
func (c *Config) ExportOptions() export.Options {
	opts := export.DefaultOptions()
	if col, err := contentstream.ParseColor(c.Export.RedactionColor); err == nil {
		opts.Color = col
	}
	opts.Prefix = c.Export.OutputPrefix
	return opts
}

func (c *Config) ContainerSize() coords.Size {
	return coords.Size{Width: c.Container.Width, Height: c.Container.Height}
}

// DefaultConfigPath returns the per-user config file path.
func DefaultConfigPath() string {
	if _, err := os.Stat("redact.yaml"); err == nil {
		return "redact.yaml"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "redact.yaml"
	}
	return filepath.Join(dir, "redactkit", "config.yaml")
}
