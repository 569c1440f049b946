package core

import (
	"fmt"
	"strings"
	"time"
)

// RetryConfig bounds the backoff sequence between attempts of one record.
type RetryConfig struct {
	MaxAttempts int           `koanf:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay" mapstructure:"base_delay"`
	Multiplier  float64       `koanf:"multiplier" mapstructure:"multiplier"`
	MaxDelay    time.Duration `koanf:"max_delay" mapstructure:"max_delay"`
	Jitter      float64       `koanf:"jitter" mapstructure:"jitter"`
}

// WorkerConfig tunes the polling harness, not core logic.
type WorkerConfig struct {
	PollInterval   time.Duration `koanf:"poll_interval" mapstructure:"poll_interval"`
	BatchSize      int           `koanf:"batch_size" mapstructure:"batch_size"`
	Workers        int           `koanf:"workers" mapstructure:"workers"`
	AttemptTimeout time.Duration `koanf:"attempt_timeout" mapstructure:"attempt_timeout"`
}

// ReclaimConfig governs the low-frequency sweep that returns records stuck
// in processing (crashed worker) back to pending.
type ReclaimConfig struct {
	StaleAfter   time.Duration `koanf:"stale_after" mapstructure:"stale_after"`
	Interval     time.Duration `koanf:"interval" mapstructure:"interval"`
	CountAttempt bool          `koanf:"count_attempt" mapstructure:"count_attempt"`
}

// HealthConfig holds the monitor's classification thresholds as failure
// ratios over the observation window.
type HealthConfig struct {
	Window            time.Duration `koanf:"window" mapstructure:"window"`
	WarningRatio      float64       `koanf:"warning_ratio" mapstructure:"warning_ratio"`
	CriticalRatio     float64       `koanf:"critical_ratio" mapstructure:"critical_ratio"`
	StalePendingAfter time.Duration `koanf:"stale_pending_after" mapstructure:"stale_pending_after"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Retry       RetryConfig   `koanf:"retry" mapstructure:"retry"`
	Worker      WorkerConfig  `koanf:"worker" mapstructure:"worker"`
	Reclaim     ReclaimConfig `koanf:"reclaim" mapstructure:"reclaim"`
	Health      HealthConfig  `koanf:"health" mapstructure:"health"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "delivery",
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   5 * time.Minute,
			Multiplier:  2.0,
			MaxDelay:    60 * time.Minute,
			Jitter:      0,
		},
		Worker: WorkerConfig{
			PollInterval:   15 * time.Second,
			BatchSize:      50,
			Workers:        1,
			AttemptTimeout: 30 * time.Second,
		},
		Reclaim: ReclaimConfig{
			StaleAfter:   5 * time.Minute,
			Interval:     time.Minute,
			CountAttempt: false,
		},
		Health: HealthConfig{
			Window:            24 * time.Hour,
			WarningRatio:      0.25,
			CriticalRatio:     0.50,
			StalePendingAfter: 10 * time.Minute,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("core: retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("core: retry.base_delay must be positive")
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("core: retry.multiplier must be >= 1")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("core: retry.max_delay must be >= retry.base_delay")
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 0.5 {
		return fmt.Errorf("core: retry.jitter must be within [0, 0.5]")
	}
	if c.Worker.PollInterval <= 0 {
		return fmt.Errorf("core: worker.poll_interval must be positive")
	}
	if c.Worker.BatchSize < 1 {
		return fmt.Errorf("core: worker.batch_size must be >= 1")
	}
	if c.Worker.Workers < 1 {
		return fmt.Errorf("core: worker.workers must be >= 1")
	}
	if c.Reclaim.StaleAfter <= 0 {
		return fmt.Errorf("core: reclaim.stale_after must be positive")
	}
	if c.Reclaim.Interval <= 0 {
		return fmt.Errorf("core: reclaim.interval must be positive")
	}
	if c.Health.Window <= 0 {
		return fmt.Errorf("core: health.window must be positive")
	}
	if c.Health.WarningRatio <= 0 || c.Health.WarningRatio >= 1 {
		return fmt.Errorf("core: health.warning_ratio must be within (0, 1)")
	}
	if c.Health.CriticalRatio <= c.Health.WarningRatio || c.Health.CriticalRatio >= 1 {
		return fmt.Errorf("core: health.critical_ratio must be within (warning_ratio, 1)")
	}
	return nil
}
