// Package health derives an operator-facing health report from delivery
// aggregates: terminal outcome rates over a window plus alerts for work
// that is stuck mid-flight or sitting unclaimed.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/goliatone/go-delivery/core"
)

type Condition string

const (
	ConditionHealthy  Condition = "healthy"
	ConditionWarning  Condition = "warning"
	ConditionCritical Condition = "critical"
)

const (
	AlertStuckProcessing = "stuck_processing"
	AlertStalePending    = "stale_pending"
	AlertFailureRate     = "failure_rate"
)

type Alert struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

// Report is a point-in-time view of queue health. Rates are computed
// over terminal records inside the window; records still in flight do
// not contribute to them.
type Report struct {
	Status            Condition          `json:"status"`
	Window            core.TimeWindow    `json:"window"`
	TotalTerminal     int                `json:"total_terminal"`
	SuccessRate       float64            `json:"success_rate"`
	FailureRate       float64            `json:"failure_rate"`
	RetryRecoveryRate float64            `json:"retry_recovery_rate"`
	StatusCounts      []core.StatusCount `json:"status_counts"`
	StuckProcessing   int                `json:"stuck_processing"`
	StalePending      int                `json:"stale_pending"`
	Alerts            []Alert            `json:"alerts"`
	GeneratedAt       time.Time          `json:"generated_at"`
}

// Monitor reads delivery aggregates and classifies overall health.
type Monitor struct {
	reader     core.DeliveryStatsReader
	config     core.HealthConfig
	stuckAfter time.Duration
	logger     core.Logger
	now        func() time.Time
}

type Option func(*Monitor)

func WithLogger(logger core.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithStuckAfter(staleAfter time.Duration) Option {
	return func(m *Monitor) {
		if staleAfter > 0 {
			m.stuckAfter = staleAfter
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMonitor(reader core.DeliveryStatsReader, cfg core.HealthConfig, options ...Option) *Monitor {
	defaults := core.DefaultConfig().Health
	if cfg.Window <= 0 {
		cfg.Window = defaults.Window
	}
	if cfg.WarningRatio <= 0 {
		cfg.WarningRatio = defaults.WarningRatio
	}
	if cfg.CriticalRatio <= 0 {
		cfg.CriticalRatio = defaults.CriticalRatio
	}
	if cfg.StalePendingAfter <= 0 {
		cfg.StalePendingAfter = defaults.StalePendingAfter
	}

	monitor := &Monitor{
		reader:     reader,
		config:     cfg,
		stuckAfter: core.DefaultConfig().Reclaim.StaleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(monitor)
	}
	return monitor
}

// Report builds the current health view. Rate classification and
// stuck/stale alerts are independent signals: a queue with a clean
// failure rate still alerts when records sit unclaimed.
func (m *Monitor) Report(ctx context.Context) (Report, error) {
	if m == nil || m.reader == nil {
		return Report{}, fmt.Errorf("health: monitor is not configured")
	}

	now := m.now()
	window := core.TimeWindow{From: now.Add(-m.config.Window), To: now}

	terminal, err := m.reader.TerminalStats(ctx, window)
	if err != nil {
		return Report{}, fmt.Errorf("health: load terminal stats: %w", err)
	}
	counts, err := m.reader.AggregateByStatus(ctx, window)
	if err != nil {
		return Report{}, fmt.Errorf("health: aggregate by status: %w", err)
	}
	stuck, err := m.reader.CountStuckProcessing(ctx, m.stuckAfter, now)
	if err != nil {
		return Report{}, fmt.Errorf("health: count stuck processing: %w", err)
	}
	stale, err := m.reader.CountStalePending(ctx, m.config.StalePendingAfter, now)
	if err != nil {
		return Report{}, fmt.Errorf("health: count stale pending: %w", err)
	}

	report := Report{
		Window:          window,
		TotalTerminal:   terminal.Total(),
		StatusCounts:    counts,
		StuckProcessing: stuck,
		StalePending:    stale,
		Alerts:          []Alert{},
		GeneratedAt:     now,
	}

	if total := terminal.Total(); total > 0 {
		report.SuccessRate = float64(terminal.Sent) / float64(total)
		report.FailureRate = float64(terminal.Failed) / float64(total)
	}
	if terminal.Sent > 0 {
		report.RetryRecoveryRate = float64(terminal.RecoveredSent) / float64(terminal.Sent)
	}

	report.Status = m.classify(report.FailureRate, report.TotalTerminal)
	if report.Status != ConditionHealthy {
		report.Alerts = append(report.Alerts, Alert{
			Code:    AlertFailureRate,
			Message: fmt.Sprintf("failure rate %.1f%% over the last %s", report.FailureRate*100, m.config.Window),
		})
	}
	if stuck > 0 {
		report.Alerts = append(report.Alerts, Alert{
			Code:    AlertStuckProcessing,
			Message: fmt.Sprintf("%d records claimed more than %s ago without resolution", stuck, m.stuckAfter),
			Count:   stuck,
		})
	}
	if stale > 0 {
		report.Alerts = append(report.Alerts, Alert{
			Code:    AlertStalePending,
			Message: fmt.Sprintf("%d eligible records unclaimed for more than %s", stale, m.config.StalePendingAfter),
			Count:   stale,
		})
	}

	if m.logger != nil && report.Status != ConditionHealthy {
		m.logger.Warn("delivery queue degraded",
			"status", string(report.Status),
			"failure_rate", report.FailureRate,
			"stuck_processing", stuck,
			"stale_pending", stale,
		)
	}
	return report, nil
}

func (m *Monitor) classify(failureRate float64, totalTerminal int) Condition {
	if totalTerminal == 0 {
		// nothing resolved in the window is not evidence of failure
		return ConditionHealthy
	}
	switch {
	case failureRate > m.config.CriticalRatio:
		return ConditionCritical
	case failureRate >= m.config.WarningRatio:
		return ConditionWarning
	default:
		return ConditionHealthy
	}
}
