package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HIREWIRE_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Minute, cfg.ScheduleDelay)
	assert.Equal(t, 10*time.Minute, cfg.CooldownMin)
	assert.Equal(t, 60*time.Minute, cfg.CooldownMax)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 20, cfg.MatchTopK)
	assert.Equal(t, 0.5, cfg.MatchMinScore)
	assert.Equal(t, "0 * * * * *", cfg.ScreeningCron)
	assert.Equal(t, "0 0 * * * *", cfg.SweepCron)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HIREWIRE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CALL_SCHEDULE_DELAY", "30s")
	t.Setenv("SCREENING_COOLDOWN_MIN", "1m")
	t.Setenv("SCREENING_COOLDOWN_MAX", "5m")
	t.Setenv("MATCH_MIN_SCORE", "0.7")
	t.Setenv("TRANSCRIPT_ARCHIVE_BUCKET", "transcripts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 30*time.Second, cfg.ScheduleDelay)
	assert.Equal(t, time.Minute, cfg.CooldownMin)
	assert.Equal(t, 5*time.Minute, cfg.CooldownMax)
	assert.Equal(t, 0.7, cfg.MatchMinScore)
	assert.True(t, cfg.ArchiveEnabled())
}

func TestLoadRejectsEmptyCooldownWindow(t *testing.T) {
	t.Setenv("HIREWIRE_DATA_DIR", t.TempDir())
	t.Setenv("SCREENING_COOLDOWN_MIN", "1h")
	t.Setenv("SCREENING_COOLDOWN_MAX", "10m")

	_, err := Load()
	assert.Error(t, err)
}

func TestDBPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HIREWIRE_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "core.db"), cfg.CoreDBPath())
	assert.Equal(t, filepath.Join(dir, "index.db"), cfg.IndexDBPath())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("HIREWIRE_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("CALL_SCHEDULE_DELAY", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 5*time.Minute, cfg.ScheduleDelay)
}
