package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
server:
  port: 8081
  mode: debug
grpc:
  enabled: true
  port: 9091
log:
  level: info
  format: console
engine:
  match_mode: word
  high_threshold: 18
  moderate_threshold: 9
redis:
  enabled: true
  addr: "redis:6379"
kafka:
  enabled: true
  brokers: ["kafka-1:9092", "kafka-2:9092"]
speech:
  enabled: true
  api_key: "sk-test"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.True(t, cfg.GRPC.Enabled)
	assert.Equal(t, MatchModeWord, cfg.Engine.MatchMode)
	assert.Equal(t, 18, cfg.Engine.HighThreshold)
	assert.Equal(t, 9, cfg.Engine.ModerateThreshold)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "console", cfg.Log.Format)
	// Unset sections fall back to defaults.
	assert.Equal(t, DefaultSummarySentences, cfg.Engine.SummarySentences)
	assert.Equal(t, DefaultUserAgent, cfg.Source.UserAgent)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "engine: ["))
	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "engine:\n  match_mode: fuzzy\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PRIVIQ_SERVER_PORT", "9999")
	t.Setenv("PRIVIQ_ENGINE_HIGH_THRESHOLD", "30")

	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Engine.HighThreshold)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PRIVIQ_ENGINE_MATCH_MODE", "word")
	t.Setenv("PRIVIQ_REDIS_ENABLED", "true")
	t.Setenv("PRIVIQ_REDIS_ADDR", "cache:6379")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, MatchModeWord, cfg.Engine.MatchMode)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
}

func TestLoadOrDefault_EmptyPathUsesEnv(t *testing.T) {
	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, MatchModeSubstring, cfg.Engine.MatchMode)
}

func TestMustLoad_PanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { MustLoad(filepath.Join(t.TempDir(), "missing.yaml")) })
}

func TestWatch_InvokesCallbackOnChange(t *testing.T) {
	path := createTempConfigFile(t, "log:\n  level: info\n")

	var level atomic.Value
	level.Store("")
	err := Watch(path, func(cfg *Config) { level.Store(cfg.Log.Level) }, nil)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	assert.Eventually(t, func() bool {
		return level.Load().(string) == "debug"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(filepath.Join(t.TempDir(), "missing.yaml"), func(*Config) {}, nil)
	assert.Error(t, err)
}
