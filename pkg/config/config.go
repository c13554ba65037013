// Package config loads the exporter configuration: YAML file first, then
// environment overrides so secrets can stay out of the file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full exporter configuration.
type Config struct {
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	AIAnalysisEnabled bool   `yaml:"ai_analysis_enabled"`
	ExportFormat      string `yaml:"export_format"`
	BaseURL           string `yaml:"base_url"`
	OutputDir         string `yaml:"output_dir"`
}

// Default returns the configuration used when no file and no environment
// are present.
func Default() Config {
	return Config{
		AIAnalysisEnabled: true,
		ExportFormat:      "xlsx",
		OutputDir:         ".",
	}
}

// Load reads the optional YAML file at path, applies environment
// overrides and validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("SNAPEX_OPENAI_API_KEY"); ok {
		c.OpenAIAPIKey = v
	}
	if v, ok := os.LookupEnv("SNAPEX_AI_ANALYSIS_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.AIAnalysisEnabled = b
		}
	}
	if v, ok := os.LookupEnv("SNAPEX_EXPORT_FORMAT"); ok {
		c.ExportFormat = v
	}
	if v, ok := os.LookupEnv("SNAPEX_BASE_URL"); ok {
		c.BaseURL = v
	}
	if v, ok := os.LookupEnv("SNAPEX_OUTPUT_DIR"); ok {
		c.OutputDir = v
	}
}

func (c *Config) validate() error {
	switch c.ExportFormat {
	case "xlsx", "csv":
		return nil
	default:
		return fmt.Errorf("export_format must be xlsx or csv, got %q", c.ExportFormat)
	}
}
