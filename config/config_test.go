package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfig_Embedded(t *testing.T) {
	t.Setenv("JB_SERVICE_KEY", "service-key-from-env")

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "service-key-from-env", cfg.Upstream.Regional.ServiceKey)
	assert.Equal(t, 3, cfg.Course.MaxStops)
	assert.Equal(t, 30, cfg.Course.MaxCandidates)
	assert.Equal(t, 5*time.Second, cfg.Upstream.HTTP.ConnectTimeout)
	assert.Equal(t, 10*time.Second, cfg.Upstream.HTTP.ReadTimeout)
	assert.Equal(t, "openai", cfg.Upstream.AI.Provider)
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	assert.Equal(t, 3, cfg.Course.MaxStops)
	assert.Equal(t, 30, cfg.Course.MaxCandidates)
	assert.Equal(t, 4, cfg.Upstream.Geocoder.Concurrency)
	assert.Equal(t, 2, cfg.Upstream.Regional.Concurrency)
	assert.Equal(t, "Area", cfg.Upstream.Regional.AreaParam)
	assert.Equal(t, 100, cfg.Upstream.Regional.PageSize)
	assert.Equal(t, 2000, cfg.Upstream.AI.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.Upstream.AI.Timeout)

	cfg = Config{Course: CourseConfig{MaxStops: 5}}
	applyDefaults(&cfg)
	assert.Equal(t, 5, cfg.Course.MaxStops, "explicit values are kept")
}
