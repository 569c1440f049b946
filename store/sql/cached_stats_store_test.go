package sqlstore

import (
	"context"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-delivery/core"
)

type stubStatsReader struct {
	mu             sync.Mutex
	terminal       core.TerminalStats
	counts         []core.StatusCount
	terminalCalls  int
	aggregateCalls int
	stuckCalls     int
}

func (s *stubStatsReader) AggregateByStatus(_ context.Context, _ core.TimeWindow) ([]core.StatusCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregateCalls++
	return append([]core.StatusCount(nil), s.counts...), nil
}

func (s *stubStatsReader) TerminalStats(_ context.Context, _ core.TimeWindow) (core.TerminalStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terminalCalls++
	return s.terminal, nil
}

func (s *stubStatsReader) CountStuckProcessing(_ context.Context, _ time.Duration, _ time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stuckCalls++
	return 2, nil
}

func (s *stubStatsReader) CountStalePending(_ context.Context, _ time.Duration, _ time.Time) (int, error) {
	return 0, nil
}

func newTestStatsCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}

func statsWindow() core.TimeWindow {
	to := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return core.TimeWindow{From: to.Add(-24 * time.Hour), To: to}
}

func TestCachedStatsStore_TerminalStats_MissFetchThenHit(t *testing.T) {
	base := &stubStatsReader{terminal: core.TerminalStats{Sent: 80, Failed: 20, RecoveredSent: 8}}
	store, err := NewCachedStatsStore(base, newTestStatsCacheService(t))
	if err != nil {
		t.Fatalf("new cached stats store: %v", err)
	}

	window := statsWindow()
	first, err := store.TerminalStats(context.Background(), window)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if base.terminalCalls != 1 {
		t.Fatalf("expected first read to hit base, got %d calls", base.terminalCalls)
	}

	second, err := store.TerminalStats(context.Background(), window)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if base.terminalCalls != 1 {
		t.Fatalf("expected second read served from cache, base calls=%d", base.terminalCalls)
	}
	if first != second {
		t.Fatalf("cache returned different stats: %+v vs %+v", first, second)
	}
}

func TestCachedStatsStore_AggregateByStatus_SharedWindowBucket(t *testing.T) {
	base := &stubStatsReader{counts: []core.StatusCount{{Status: core.StatusSent, Kind: "email", Count: 10}}}
	store, err := NewCachedStatsStore(base, newTestStatsCacheService(t))
	if err != nil {
		t.Fatalf("new cached stats store: %v", err)
	}

	window := statsWindow()
	if _, err := store.AggregateByStatus(context.Background(), window); err != nil {
		t.Fatalf("first read: %v", err)
	}

	// a poll a few seconds later lands in the same minute bucket
	shifted := core.TimeWindow{From: window.From.Add(5 * time.Second), To: window.To.Add(5 * time.Second)}
	if _, err := store.AggregateByStatus(context.Background(), shifted); err != nil {
		t.Fatalf("second read: %v", err)
	}
	if base.aggregateCalls != 1 {
		t.Fatalf("expected same-bucket reads to share a cache entry, base calls=%d", base.aggregateCalls)
	}
}

func TestCachedStatsStore_StuckCountsBypassCache(t *testing.T) {
	base := &stubStatsReader{}
	store, err := NewCachedStatsStore(base, newTestStatsCacheService(t))
	if err != nil {
		t.Fatalf("new cached stats store: %v", err)
	}

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := store.CountStuckProcessing(context.Background(), 5*time.Minute, now); err != nil {
			t.Fatalf("count stuck: %v", err)
		}
	}
	if base.stuckCalls != 3 {
		t.Fatalf("expected every stuck count to reach base, got %d", base.stuckCalls)
	}
}

func TestCachedStatsStore_Invalidate_ForcesRefetch(t *testing.T) {
	base := &stubStatsReader{terminal: core.TerminalStats{Sent: 10}}
	store, err := NewCachedStatsStore(base, newTestStatsCacheService(t))
	if err != nil {
		t.Fatalf("new cached stats store: %v", err)
	}

	window := statsWindow()
	if _, err := store.TerminalStats(context.Background(), window); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if err := store.Invalidate(context.Background(), window); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := store.TerminalStats(context.Background(), window); err != nil {
		t.Fatalf("read after invalidate: %v", err)
	}
	if base.terminalCalls != 2 {
		t.Fatalf("expected refetch after invalidate, base calls=%d", base.terminalCalls)
	}
}
