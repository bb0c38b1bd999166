package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/talent_test")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "postgres://localhost/talent_test", cfg.DatabaseURL)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 90, cfg.TrackingTTLDays)
	assert.Equal(t, time.Minute, cfg.SchedulerPoll)
	assert.Equal(t, 15*time.Second, cfg.OutboxPoll)
	assert.Equal(t, 8, cfg.OutboxMaxAttempts)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TALENT_PORT", "9090")
	t.Setenv("TALENT_DATABASE_URL", "postgres://localhost/other")
	t.Setenv("TALENT_LOG_DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://localhost/other", cfg.DatabaseURL)
	assert.True(t, cfg.LogDebug)
}

func TestValidate_MissingDatabaseURL(t *testing.T) {
	cfg := &Config{Port: 8080, TrackingTTLDays: 90, SchedulerPoll: time.Minute, OutboxPoll: time.Second}

	assert.Error(t, cfg.Validate())
}

func TestValidate_BadPort(t *testing.T) {
	cfg := &Config{
		Port:            0,
		DatabaseURL:     "postgres://localhost/x",
		TrackingTTLDays: 90,
		SchedulerPoll:   time.Minute,
		OutboxPoll:      time.Second,
	}

	assert.Error(t, cfg.Validate())
}

func TestValidate_IncompleteSource(t *testing.T) {
	cfg := &Config{
		Port:            8080,
		DatabaseURL:     "postgres://localhost/x",
		TrackingTTLDays: 90,
		SchedulerPoll:   time.Minute,
		OutboxPoll:      time.Second,
		Sources:         []SourceConfig{{Name: "board"}},
	}

	assert.Error(t, cfg.Validate())
}

func TestTrackingTTL(t *testing.T) {
	cfg := &Config{TrackingTTLDays: 90}
	assert.Equal(t, 90*24*time.Hour, cfg.TrackingTTL())
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
