package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Render     RenderConfig     `yaml:"render"`
	Detection  DetectionConfig  `yaml:"detection"`
	Annotation AnnotationConfig `yaml:"annotation"`
	Highlight  HighlightConfig  `yaml:"highlight"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// RenderConfig holds PDF rasterization settings
type RenderConfig struct {
	DefaultDPI    int    `yaml:"default_dpi"`
	MaxDPI        int    `yaml:"max_dpi"`
	DefaultFormat string `yaml:"default_format"`
	Quality       int    `yaml:"quality"`
}

// DetectionConfig holds detection provider settings
type DetectionConfig struct {
	DefaultProvider string  `yaml:"default_provider"`
	Temperature     float64 `yaml:"temperature"`
	// MaxSendSize is the max long side (px) of a page image sent to the
	// model; 0 sends the original.
	MaxSendSize int `yaml:"max_send_size"`
	// ClampTolerance is the fraction of a page dimension by which a
	// returned box may overflow the page and still be clamped rather
	// than discarded.
	ClampTolerance float64 `yaml:"clamp_tolerance"`
}

// AnnotationConfig holds the fixed visual style for detection overlays
type AnnotationConfig struct {
	ColorHex    string `yaml:"color"`
	StrokeWidth int    `yaml:"stroke_width"`
	ShowLabels  bool   `yaml:"show_labels"`
}

// HighlightConfig holds simulation-mode mark settings
type HighlightConfig struct {
	ColorHex string `yaml:"color"`
	Radius   int    `yaml:"radius"`
	Margin   int    `yaml:"margin"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8000",
			MaxUploadMB: 50,
		},
		Render: RenderConfig{
			DefaultDPI:    200,
			MaxDPI:        600,
			DefaultFormat: "png",
			Quality:       90,
		},
		Detection: DetectionConfig{
			DefaultProvider: "gemini",
			Temperature:     0.1,
			MaxSendSize:     1536,
			ClampTolerance:  0.02,
		},
		Annotation: AnnotationConfig{
			ColorHex:    "#FF0000",
			StrokeWidth: 3,
			ShowLabels:  true,
		},
		Highlight: HighlightConfig{
			ColorHex: "#FFCC00",
			Radius:   12,
			Margin:   24,
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// A missing file is not an error; the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Render.DefaultDPI < 1 {
		return fmt.Errorf("render.default_dpi must be positive")
	}

	if c.Render.MaxDPI < c.Render.DefaultDPI {
		return fmt.Errorf("render.max_dpi must be >= render.default_dpi")
	}

	if c.Render.Quality < 1 || c.Render.Quality > 100 {
		return fmt.Errorf("render.quality must be between 1 and 100")
	}

	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}

	if c.Detection.ClampTolerance < 0 || c.Detection.ClampTolerance > 1 {
		return fmt.Errorf("detection.clamp_tolerance must be between 0 and 1")
	}

	if c.Annotation.StrokeWidth < 1 {
		return fmt.Errorf("annotation.stroke_width must be positive")
	}

	if c.Highlight.Radius < 1 {
		return fmt.Errorf("highlight.radius must be positive")
	}

	if c.Highlight.Margin < 0 {
		return fmt.Errorf("highlight.margin must not be negative")
	}

	return nil
}
