package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PriviQ/internal/config"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/internal/intelligence/policyrisk"
)

const samplePolicy = "We track your location and share data with third-party advertising partners. We encrypt your data."

func defaultConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestNew_Minimal(t *testing.T) {
	c, err := New(context.Background(), defaultConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	defer c.Close()

	assert.Nil(t, c.Redis)
	assert.Nil(t, c.Objects)
	assert.Nil(t, c.Speech)
	require.NotNil(t, c.Service)

	doc, err := c.Service.Resolve(context.Background(), source.Input{Text: samplePolicy})
	require.NoError(t, err)
	res, err := c.Service.Classify(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 12, res.Risk.Score)
}

func TestNew_WithRedisAndSpeech(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := defaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Speech.Enabled = true
	cfg.Speech.APIKey = "test-key"

	c, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, c.Redis)
	require.NotNil(t, c.Locks)
	require.NotNil(t, c.Speech)

	tr, err := c.Service.Translate(context.Background(), "We sell data.", "en")
	require.NoError(t, err)
	assert.Equal(t, "We sell data.", tr.Summary)

	require.NoError(t, c.Close())
	assert.Error(t, c.Redis.Ping(context.Background()))
}

func TestNew_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := defaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr

	c, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_BadLexiconReturnsError(t *testing.T) {
	cfg := defaultConfig()
	cfg.Engine.LexiconPath = "/nonexistent/lexicon.yaml"

	var c *Components
	var err error
	require.NotPanics(t, func() {
		c, err = New(context.Background(), cfg, logging.NewNopLogger())
	})
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNew_LateFailureClosesRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := defaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Speech.Enabled = true
	cfg.Speech.APIKey = ""

	var c *Components
	require.NotPanics(t, func() {
		c, err = New(context.Background(), cfg, nil)
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speech")
	assert.Nil(t, c)
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestNewEngine(t *testing.T) {
	cfg := defaultConfig().Engine
	cfg.MatchMode = config.MatchModeWord
	cfg.SummarySentences = 1
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	assert.Equal(t, policyrisk.MatchWord, e.MatchMode())
	assert.Equal(t, 1, e.SummarySentences())
	assert.Equal(t, policyrisk.Thresholds{High: config.DefaultHighThreshold, Moderate: config.DefaultModerateThreshold}, e.Thresholds())

	cfg.MatchMode = "fuzzy"
	_, err = NewEngine(cfg)
	assert.Error(t, err)

	cfg.MatchMode = ""
	cfg.LexiconPath = "/does/not/exist.yaml"
	_, err = NewEngine(cfg)
	assert.Error(t, err)
}
