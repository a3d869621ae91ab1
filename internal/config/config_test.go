package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vec2stubs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
		assert.Equal(t, "localhost", cfg.Qdrant.URL)
		assert.Equal(t, 6333, cfg.Qdrant.Port)
		assert.Empty(t, cfg.Qdrant.APIKey)
	})

	t.Run("yaml_overrides_defaults", func(t *testing.T) {
		path := writeConfig(t, `
qdrant:
  url: qdrant.internal
  port: 7000
  timeout: 5s
logging:
  level: debug
vectorize:
  python_enabled: false
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "qdrant.internal", cfg.Qdrant.URL)
		assert.Equal(t, 7000, cfg.Qdrant.Port)
		assert.Equal(t, 5*time.Second, cfg.Qdrant.Timeout)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.False(t, cfg.Vectorize.PythonEnabled)
		assert.Equal(t, ":8000", cfg.Vectorize.Addr)
	})

	t.Run("env_overrides_yaml", func(t *testing.T) {
		path := writeConfig(t, "qdrant:\n  url: from-file\n  port: 7000\n")
		t.Setenv("QDRANT_URL", "from-env")
		t.Setenv("QDRANT_API_KEY", "secret")
		t.Setenv("QDRANT_TIMEOUT", "2m")
		t.Setenv("LOG_FORMAT", "text")
		t.Setenv("VECTORIZE_MODEL_CACHE_SIZE", "3")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Qdrant.URL)
		assert.Equal(t, 7000, cfg.Qdrant.Port)
		assert.Equal(t, "secret", cfg.Qdrant.APIKey)
		assert.Equal(t, 2*time.Minute, cfg.Qdrant.Timeout)
		assert.Equal(t, "text", cfg.Logging.Format)
		assert.Equal(t, 3, cfg.Vectorize.ModelCacheSize)
	})

	t.Run("empty_file", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing_file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("unknown_key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "qdrant:\n  hostname: x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("bad_env_value", func(t *testing.T) {
		t.Setenv("QDRANT_PORT", "not-a-port")
		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse environment")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"port_out_of_range", func(c *Config) { c.Qdrant.Port = 70000 }, "qdrant port 70000 out of range"},
		{"negative_timeout", func(c *Config) { c.Qdrant.Timeout = -time.Second }, "timeout must not be negative"},
		{"bad_level", func(c *Config) { c.Logging.Level = "loud" }, `unknown log level "loud"`},
		{"bad_format", func(c *Config) { c.Logging.Format = "xml" }, `unknown log format "xml"`},
		{"zero_cache", func(c *Config) { c.Vectorize.ModelCacheSize = 0 }, "model cache size must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("collects_all_errors", func(t *testing.T) {
		cfg := Default()
		cfg.Logging.Level = "loud"
		cfg.Logging.Format = "xml"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log level")
		assert.Contains(t, err.Error(), "log format")
	})
}
