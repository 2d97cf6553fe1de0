package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RateLimitConfig bounds how often the chat pipeline accepts a submission.
type RateLimitConfig struct {
	MaxPerMinute int `yaml:"max_per_minute"`
	MaxPerHour   int `yaml:"max_per_hour"`
}

// AuditConfig controls the chat audit journal.
type AuditConfig struct {
	Enabled  bool   `yaml:"enabled"`
	LogLevel string `yaml:"log_level"`
}

// ConfirmationConfig names the tool actions that require explicit
// confirmation before execution, and the thresholds that widen that set.
type ConfirmationConfig struct {
	RequiredFor            []string `yaml:"required_for"`
	HighCostThresholdUSD   float64  `yaml:"high_cost_threshold_usd"`
	BulkOperationThreshold int      `yaml:"bulk_operation_threshold"`
}

// ChatConfig configures the chat pipeline (C6).
type ChatConfig struct {
	Provider      string             `yaml:"provider"`
	RateLimit     RateLimitConfig    `yaml:"rate_limit"`
	Audit         AuditConfig        `yaml:"audit"`
	Confirmations ConfirmationConfig `yaml:"confirmations"`
}

// HealthConfig configures the health monitor (C3).
type HealthConfig struct {
	CheckIntervalSecs          int  `yaml:"check_interval_secs"`
	StaleActivityThresholdSecs int  `yaml:"stale_activity_threshold_secs"`
	TaskStuckThresholdMins     int  `yaml:"task_stuck_threshold_mins"`
	EnableMemoryCheck          bool `yaml:"enable_memory_check"`
	EnableResponseCheck        bool `yaml:"enable_response_check"`
}

// CrashConfig configures crash recovery (C4).
type CrashConfig struct {
	AutoRestartEnabled    bool `yaml:"auto_restart_enabled"`
	MaxCrashesInWindow    int  `yaml:"max_crashes_in_window"`
	CrashWindowSecs       int  `yaml:"crash_window_secs"`
	ClearAssigneesEnabled bool `yaml:"clear_assignees_enabled"`
}

// RenderConfig configures the dirty-region render scheduler (C7).
type RenderConfig struct {
	RefreshIntervalMS int `yaml:"refresh_interval_ms"`
	MaxFPS            int `yaml:"max_fps"`
}

// LogConfig configures log retention and the status-ledger poll fallback.
type LogConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs"`
	MaxAgeDays       int `yaml:"max_age_days"`
	MaxSizeMB        int `yaml:"max_size_mb"`
}

// Config is FORGE's root configuration.
type Config struct {
	Chat   ChatConfig   `yaml:"chat"`
	Health HealthConfig `yaml:"health"`
	Crash  CrashConfig  `yaml:"crash"`
	Render RenderConfig `yaml:"render"`
	Log    LogConfig    `yaml:"log"`
}

// Defaults returns the bracketed defaults from the config surface.
func Defaults() *Config {
	return &Config{
		Chat: ChatConfig{
			Provider: "auto",
			RateLimit: RateLimitConfig{
				MaxPerMinute: 10,
				MaxPerHour:   100,
			},
			Audit: AuditConfig{
				Enabled:  true,
				LogLevel: "all",
			},
			Confirmations: ConfirmationConfig{
				RequiredFor:            []string{"kill_worker", "kill_all_workers", "pause_workers"},
				HighCostThresholdUSD:   10.0,
				BulkOperationThreshold: 5,
			},
		},
		Health: HealthConfig{
			CheckIntervalSecs:          30,
			StaleActivityThresholdSecs: 900,
			TaskStuckThresholdMins:     30,
			EnableMemoryCheck:          false,
			EnableResponseCheck:        false,
		},
		Crash: CrashConfig{
			AutoRestartEnabled:    false,
			MaxCrashesInWindow:    3,
			CrashWindowSecs:       600,
			ClearAssigneesEnabled: true,
		},
		Render: RenderConfig{
			RefreshIntervalMS: 1000,
			MaxFPS:            60,
		},
		Log: LogConfig{
			PollIntervalSecs: 1,
			MaxAgeDays:       30,
			MaxSizeMB:        1000,
		},
	}
}

// Load reads path, overlaying its contents on top of Defaults(). A missing
// file is not an error: it yields the defaults unchanged. The result is
// always validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, &ConfigInvalidError{Path: path, Violations: []string{fmt.Sprintf("read: %s", err)}}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigInvalidError{Path: path, Violations: []string{fmt.Sprintf("parse: %s", err)}}
	}

	if violations := Validate(cfg); len(violations) > 0 {
		return nil, &ConfigInvalidError{Path: path, Violations: violations}
	}

	return cfg, nil
}

// Validate checks cfg against the invariants the config surface implies
// and returns every violation found, not just the first.
func Validate(cfg *Config) []string {
	var v []string

	if cfg.Chat.Provider != "auto" && cfg.Chat.Provider != "http" && cfg.Chat.Provider != "subprocess" && cfg.Chat.Provider != "mock" {
		v = append(v, fmt.Sprintf("chat.provider: unknown value %q", cfg.Chat.Provider))
	}
	if cfg.Chat.RateLimit.MaxPerMinute <= 0 {
		v = append(v, "chat.rate_limit.max_per_minute: must be positive")
	}
	if cfg.Chat.RateLimit.MaxPerHour <= 0 {
		v = append(v, "chat.rate_limit.max_per_hour: must be positive")
	}
	if cfg.Chat.RateLimit.MaxPerHour < cfg.Chat.RateLimit.MaxPerMinute {
		v = append(v, "chat.rate_limit.max_per_hour: must be >= max_per_minute")
	}
	if cfg.Chat.Confirmations.HighCostThresholdUSD < 0 {
		v = append(v, "chat.confirmations.high_cost_threshold_usd: must not be negative")
	}
	if cfg.Chat.Confirmations.BulkOperationThreshold < 1 {
		v = append(v, "chat.confirmations.bulk_operation_threshold: must be at least 1")
	}

	if cfg.Health.CheckIntervalSecs <= 0 {
		v = append(v, "health.check_interval_secs: must be positive")
	}
	if cfg.Health.StaleActivityThresholdSecs <= 0 {
		v = append(v, "health.stale_activity_threshold_secs: must be positive")
	}
	if cfg.Health.TaskStuckThresholdMins <= 0 {
		v = append(v, "health.task_stuck_threshold_mins: must be positive")
	}

	if cfg.Crash.MaxCrashesInWindow < 1 {
		v = append(v, "crash.max_crashes_in_window: must be at least 1")
	}
	if cfg.Crash.CrashWindowSecs <= 0 {
		v = append(v, "crash.crash_window_secs: must be positive")
	}

	if cfg.Render.RefreshIntervalMS <= 0 {
		v = append(v, "render.refresh_interval_ms: must be positive")
	}
	if cfg.Render.MaxFPS <= 0 {
		v = append(v, "render.max_fps: must be positive")
	}

	if cfg.Log.PollIntervalSecs <= 0 {
		v = append(v, "log.poll_interval_secs: must be positive")
	}
	if cfg.Log.MaxAgeDays < 0 {
		v = append(v, "log.max_age_days: must not be negative")
	}
	if cfg.Log.MaxSizeMB <= 0 {
		v = append(v, "log.max_size_mb: must be positive")
	}

	return v
}

// ConfigInvalidError is the config_invalid error kind from the error
// taxonomy: it carries the offending path and every violated field, so the
// caller can report all of them at once rather than failing on the first.
type ConfigInvalidError struct {
	Path       string
	Violations []string
}

func (e *ConfigInvalidError) Error() string {
	return fmt.Sprintf("config invalid (%s): %s", e.Path, strings.Join(e.Violations, "; "))
}
