package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaultsEmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "stdout", cfg.Logging.Output)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Zero(t, cfg.Server.MaxConnections)
	assert.Zero(t, cfg.Server.ReadTimeout)

	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.NotNil(t, cfg.Storage.Memory)
	assert.NotEmpty(t, cfg.Storage.Filesystem["path"])
	assert.NotEmpty(t, cfg.Storage.Badger["db_path"])

	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "error", Format: "json", Output: "stderr"},
		Storage: StorageConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": "/data/objects"},
		},
		Metrics: MetricsConfig{Enabled: true, Port: 9100},
	}
	cfg.Server.Port = 2500
	cfg.Server.ShutdownTimeout = 5 * time.Second

	ApplyDefaults(cfg)

	assert.Equal(t, "ERROR", cfg.Logging.Level, "level is normalized to uppercase")
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, 2500, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "filesystem", cfg.Storage.Type)
	assert.Equal(t, "/data/objects", cfg.Storage.Filesystem["path"])
	assert.Equal(t, 9100, cfg.Metrics.Port)
}

func TestGetDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	assert.NoError(t, Validate(cfg))
}
