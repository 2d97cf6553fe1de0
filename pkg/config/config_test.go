package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, "auto", cfg.Chat.Provider)
	assert.Equal(t, 10, cfg.Chat.RateLimit.MaxPerMinute)
	assert.Equal(t, 100, cfg.Chat.RateLimit.MaxPerHour)
	assert.Equal(t, 30, cfg.Health.CheckIntervalSecs)
	assert.Equal(t, 3, cfg.Crash.MaxCrashesInWindow)
	assert.Equal(t, 60, cfg.Render.MaxFPS)
	assert.Empty(t, Validate(cfg))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_OverlaysOnDefaults(t *testing.T) {
	path := writeConfig(t, `
chat:
  provider: subprocess
  rate_limit:
    max_per_minute: 5
health:
  enable_memory_check: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "subprocess", cfg.Chat.Provider)
	assert.Equal(t, 5, cfg.Chat.RateLimit.MaxPerMinute)
	// untouched fields keep their defaults
	assert.Equal(t, 100, cfg.Chat.RateLimit.MaxPerHour)
	assert.True(t, cfg.Health.EnableMemoryCheck)
	assert.Equal(t, 30, cfg.Health.CheckIntervalSecs)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "chat: [this is not a map")

	_, err := Load(path)
	require.Error(t, err)

	var cerr *ConfigInvalidError
	require.ErrorAs(t, err, &cerr)
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	cfg := Defaults()
	cfg.Chat.Provider = "carrier-pigeon"
	cfg.Chat.RateLimit.MaxPerMinute = 0
	cfg.Health.CheckIntervalSecs = -1
	cfg.Crash.MaxCrashesInWindow = 0

	violations := Validate(cfg)

	assert.Len(t, violations, 4)
}

func TestValidate_RateLimitOrdering(t *testing.T) {
	cfg := Defaults()
	cfg.Chat.RateLimit.MaxPerMinute = 50
	cfg.Chat.RateLimit.MaxPerHour = 10

	violations := Validate(cfg)
	assert.Contains(t, violations, "chat.rate_limit.max_per_hour: must be >= max_per_minute")
}

func TestConfigInvalidError_ListsAllViolations(t *testing.T) {
	path := writeConfig(t, `
chat:
  provider: bogus
  rate_limit:
    max_per_minute: -1
`)

	_, err := Load(path)
	require.Error(t, err)

	var cerr *ConfigInvalidError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, path, cerr.Path)
	assert.GreaterOrEqual(t, len(cerr.Violations), 2)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
