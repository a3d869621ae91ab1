// Package config loads vec2stubs settings from defaults, an optional YAML
// file and environment variables, in that order.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the CLI commands
type Config struct {
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Logging   LoggingConfig   `yaml:"logging"`
	Vectorize VectorizeConfig `yaml:"vectorize"`
}

// QdrantConfig locates the vector database
type QdrantConfig struct {
	URL     string        `yaml:"url"     env:"QDRANT_URL"`
	Port    int           `yaml:"port"    env:"QDRANT_PORT"`
	APIKey  string        `yaml:"api_key" env:"QDRANT_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env:"QDRANT_TIMEOUT"`
}

// LoggingConfig mirrors logging.Config
type LoggingConfig struct {
	Level      string `yaml:"level"        env:"LOG_LEVEL"`  // debug, info, warn, error
	Format     string `yaml:"format"       env:"LOG_FORMAT"` // text, json
	File       string `yaml:"file"         env:"LOG_FILE"`   // empty means stderr
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups"  env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
	Compress   bool   `yaml:"compress"     env:"LOG_COMPRESS"`
}

// VectorizeConfig configures the embedding service
type VectorizeConfig struct {
	Addr           string `yaml:"addr"             env:"VECTORIZE_ADDR"`
	ModelCacheSize int    `yaml:"model_cache_size" env:"VECTORIZE_MODEL_CACHE_SIZE"`
	Python         string `yaml:"python"           env:"VECTORIZE_PYTHON"`
	PythonEnabled  bool   `yaml:"python_enabled"   env:"VECTORIZE_PYTHON_ENABLED"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Qdrant: QdrantConfig{
			URL:     "localhost",
			Port:    6333,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Vectorize: VectorizeConfig{
			Addr:           ":8000",
			ModelCacheSize: 8,
			Python:         "python3",
			PythonEnabled:  true,
		},
	}
}

// Load builds the configuration. An empty path skips the YAML file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate rejects settings no command can run with
func (c *Config) Validate() error {
	var errs []error

	if c.Qdrant.Port < 0 || c.Qdrant.Port > 65535 {
		errs = append(errs, fmt.Errorf("qdrant port %d out of range", c.Qdrant.Port))
	}
	if c.Qdrant.Timeout < 0 {
		errs = append(errs, fmt.Errorf("qdrant timeout must not be negative"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Logging.Format))
	}

	if c.Vectorize.ModelCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("model cache size must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
