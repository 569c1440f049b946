package core

import (
	"math"
	"math/rand"
	"time"
)

// BackoffCalculator maps the 1-indexed attempt number that just failed to the
// wait imposed before the next claim. Pure apart from the optional jitter
// source; delay(k) = min(base * multiplier^(k-1), max).
type BackoffCalculator struct {
	Base       time.Duration
	Multiplier float64
	Max        time.Duration
	// Jitter widens the delay by up to ±Jitter as a fraction of itself to
	// spread retries of records that failed together. Jittered delays never
	// drop below Base.
	Jitter float64

	rand func() float64
}

func NewBackoffCalculator(cfg RetryConfig) BackoffCalculator {
	defaults := DefaultConfig().Retry
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaults.BaseDelay
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = defaults.Multiplier
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = defaults.MaxDelay
		if cfg.MaxDelay < cfg.BaseDelay {
			cfg.MaxDelay = cfg.BaseDelay
		}
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	return BackoffCalculator{
		Base:       cfg.BaseDelay,
		Multiplier: cfg.Multiplier,
		Max:        cfg.MaxDelay,
		Jitter:     cfg.Jitter,
		rand:       rand.Float64,
	}
}

// Delay computes the wait after failed attempt number attempt (1-indexed).
func (c BackoffCalculator) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := float64(c.Base)
	multiplier := math.Pow(c.Multiplier, float64(attempt-1))
	next := time.Duration(base * multiplier)
	if next < 0 || next > c.Max {
		next = c.Max
	}
	if c.Jitter > 0 {
		next = c.applyJitter(next)
	}
	if next < c.Base {
		next = c.Base
	}
	return next
}

func (c BackoffCalculator) applyJitter(delay time.Duration) time.Duration {
	source := c.rand
	if source == nil {
		source = rand.Float64
	}
	// spread is within [-Jitter, +Jitter]
	spread := (source()*2 - 1) * c.Jitter
	jittered := time.Duration(float64(delay) * (1 + spread))
	if jittered > c.Max {
		return c.Max
	}
	return jittered
}
