package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-delivery/core"
)

type stubStatsReader struct {
	terminal core.TerminalStats
	counts   []core.StatusCount
	stuck    int
	stale    int
	err      error

	gotWindow core.TimeWindow
}

func (s *stubStatsReader) AggregateByStatus(_ context.Context, window core.TimeWindow) ([]core.StatusCount, error) {
	return s.counts, s.err
}

func (s *stubStatsReader) TerminalStats(_ context.Context, window core.TimeWindow) (core.TerminalStats, error) {
	s.gotWindow = window
	return s.terminal, s.err
}

func (s *stubStatsReader) CountStuckProcessing(_ context.Context, _ time.Duration, _ time.Time) (int, error) {
	return s.stuck, s.err
}

func (s *stubStatsReader) CountStalePending(_ context.Context, _ time.Duration, _ time.Time) (int, error) {
	return s.stale, s.err
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
}

func newTestMonitor(reader core.DeliveryStatsReader, cfg core.HealthConfig) *Monitor {
	return NewMonitor(reader, cfg, WithClock(fixedNow))
}

func TestMonitor_HealthyUnderWarningThreshold(t *testing.T) {
	reader := &stubStatsReader{terminal: core.TerminalStats{Sent: 80, Failed: 20, RecoveredSent: 8}}
	monitor := newTestMonitor(reader, core.HealthConfig{})

	report, err := monitor.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Status != ConditionHealthy {
		t.Fatalf("expected healthy at 20%% failure, got %q", report.Status)
	}
	if report.SuccessRate != 0.8 {
		t.Fatalf("expected success rate 0.8, got %v", report.SuccessRate)
	}
	if report.FailureRate != 0.2 {
		t.Fatalf("expected failure rate 0.2, got %v", report.FailureRate)
	}
	if report.RetryRecoveryRate != 0.1 {
		t.Fatalf("expected recovery rate 0.1, got %v", report.RetryRecoveryRate)
	}
	if len(report.Alerts) != 0 {
		t.Fatalf("expected no alerts, got %+v", report.Alerts)
	}
}

func TestMonitor_WarningBetweenThresholds(t *testing.T) {
	reader := &stubStatsReader{terminal: core.TerminalStats{Sent: 60, Failed: 40}}
	monitor := newTestMonitor(reader, core.HealthConfig{})

	report, err := monitor.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Status != ConditionWarning {
		t.Fatalf("expected warning at 40%% failure, got %q", report.Status)
	}
	if len(report.Alerts) != 1 || report.Alerts[0].Code != AlertFailureRate {
		t.Fatalf("expected failure rate alert, got %+v", report.Alerts)
	}
}

func TestMonitor_CriticalAboveThreshold(t *testing.T) {
	reader := &stubStatsReader{terminal: core.TerminalStats{Sent: 30, Failed: 70}}
	monitor := newTestMonitor(reader, core.HealthConfig{})

	report, err := monitor.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Status != ConditionCritical {
		t.Fatalf("expected critical at 70%% failure, got %q", report.Status)
	}
}

func TestMonitor_EmptyWindowIsHealthy(t *testing.T) {
	monitor := newTestMonitor(&stubStatsReader{}, core.HealthConfig{})

	report, err := monitor.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Status != ConditionHealthy {
		t.Fatalf("expected healthy with no terminal records, got %q", report.Status)
	}
	if report.SuccessRate != 0 || report.FailureRate != 0 {
		t.Fatalf("expected zero rates, got %+v", report)
	}
}

func TestMonitor_StuckAndStaleAlertIndependently(t *testing.T) {
	reader := &stubStatsReader{
		terminal: core.TerminalStats{Sent: 95, Failed: 5},
		stuck:    3,
		stale:    7,
	}
	monitor := newTestMonitor(reader, core.HealthConfig{})

	report, err := monitor.Report(context.Background())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Status != ConditionHealthy {
		t.Fatalf("expected rate classification unaffected by alerts, got %q", report.Status)
	}
	if len(report.Alerts) != 2 {
		t.Fatalf("expected stuck and stale alerts, got %+v", report.Alerts)
	}
	if report.Alerts[0].Code != AlertStuckProcessing || report.Alerts[0].Count != 3 {
		t.Fatalf("unexpected stuck alert: %+v", report.Alerts[0])
	}
	if report.Alerts[1].Code != AlertStalePending || report.Alerts[1].Count != 7 {
		t.Fatalf("unexpected stale alert: %+v", report.Alerts[1])
	}
}

func TestMonitor_WindowAnchoredToClock(t *testing.T) {
	reader := &stubStatsReader{}
	monitor := newTestMonitor(reader, core.HealthConfig{Window: 6 * time.Hour})

	if _, err := monitor.Report(context.Background()); err != nil {
		t.Fatalf("report: %v", err)
	}
	if !reader.gotWindow.To.Equal(fixedNow()) {
		t.Fatalf("expected window to end now, got %v", reader.gotWindow.To)
	}
	if !reader.gotWindow.From.Equal(fixedNow().Add(-6 * time.Hour)) {
		t.Fatalf("expected 6h window, got %v", reader.gotWindow.From)
	}
}

func TestMonitor_PropagatesReaderErrors(t *testing.T) {
	reader := &stubStatsReader{err: errors.New("connection reset")}
	monitor := newTestMonitor(reader, core.HealthConfig{})

	if _, err := monitor.Report(context.Background()); err == nil {
		t.Fatalf("expected reader error to propagate")
	}
}

func TestMonitor_NilReaderFails(t *testing.T) {
	monitor := NewMonitor(nil, core.HealthConfig{})
	if _, err := monitor.Report(context.Background()); err == nil {
		t.Fatalf("expected unconfigured monitor to fail")
	}
}
