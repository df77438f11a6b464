// Package config loads MEDIG-8 configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all MEDIG-8 configuration.
type Config struct {
	Name    string        `yaml:"name"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Render  RenderConfig  `yaml:"render"`
	Logging LoggingConfig `yaml:"logging"`
}

// GeminiConfig configures the backend clients. The API key is validated at
// client construction, not here, so offline commands work without one.
type GeminiConfig struct {
	APIKey          string `yaml:"api_key"`
	Model           string `yaml:"model"`
	ImageModel      string `yaml:"image_model"`
	BaseURL         string `yaml:"base_url"`
	Timeout         string `yaml:"timeout"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
}

// RenderConfig configures the render engine.
type RenderConfig struct {
	// FontPath points to a TTF with CJK coverage. Empty means the embedded
	// Go fonts, which render Latin text only.
	FontPath string `yaml:"font_path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Name: "medig-8",
		Gemini: GeminiConfig{
			Model:           "gemini-2.5-flash",
			ImageModel:      "gemini-2.5-flash-image-preview",
			BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
			Timeout:         "2m",
			MaxOutputTokens: 8192,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads the config file at path, layering it over the defaults and
// applying environment overrides last. A missing file is not an error; the
// defaults plus environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if path := os.Getenv("MEDIG_FONT"); path != "" {
		c.Render.FontPath = path
	}
}

// GeminiTimeout returns the backend timeout as a duration, falling back to
// two minutes on an unparseable value.
func (c Config) GeminiTimeout() time.Duration {
	d, err := time.ParseDuration(c.Gemini.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}
