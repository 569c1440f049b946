package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-delivery/core"
)

type stubDispatcher struct {
	dispatchCalls atomic.Int64
	reclaimCalls  atomic.Int64
	dispatchErr   error
	stats         core.DispatchStats
}

func (s *stubDispatcher) DispatchPending(_ context.Context, _ int) (core.DispatchStats, error) {
	s.dispatchCalls.Add(1)
	if s.dispatchErr != nil {
		return core.DispatchStats{}, s.dispatchErr
	}
	return s.stats, nil
}

func (s *stubDispatcher) ReclaimStuck(_ context.Context) (int, error) {
	s.reclaimCalls.Add(1)
	return 0, nil
}

func testConfigs() (core.WorkerConfig, core.ReclaimConfig) {
	return core.WorkerConfig{
			PollInterval: 5 * time.Millisecond,
			BatchSize:    10,
			Workers:      2,
		}, core.ReclaimConfig{
			StaleAfter: time.Minute,
			Interval:   5 * time.Millisecond,
		}
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	dispatcher := &stubDispatcher{stats: core.DispatchStats{Claimed: 1, Delivered: 1}}
	workerCfg, reclaimCfg := testConfigs()
	loop, err := New(dispatcher, workerCfg, reclaimCfg)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("expected clean shutdown on cancellation, got %v", err)
	}
	if dispatcher.dispatchCalls.Load() < 2 {
		t.Fatalf("expected repeated dispatch passes, got %d", dispatcher.dispatchCalls.Load())
	}
	if dispatcher.reclaimCalls.Load() < 1 {
		t.Fatalf("expected at least one reclaim sweep, got %d", dispatcher.reclaimCalls.Load())
	}
}

func TestLoop_DispatchErrorsDoNotStopPolling(t *testing.T) {
	dispatcher := &stubDispatcher{dispatchErr: errors.New("store unavailable")}
	workerCfg, reclaimCfg := testConfigs()
	loop, err := New(dispatcher, workerCfg, reclaimCfg)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	if err := loop.Run(ctx); err != nil {
		t.Fatalf("expected errors swallowed by loop, got %v", err)
	}
	if dispatcher.dispatchCalls.Load() < 3 {
		t.Fatalf("expected polling to survive dispatch errors, got %d calls", dispatcher.dispatchCalls.Load())
	}
}

func TestLoop_ProcessOnceUsesBatchSize(t *testing.T) {
	var gotBatch int
	dispatcher := &captureDispatcher{batch: &gotBatch}
	loop, err := New(dispatcher, core.WorkerConfig{BatchSize: 7}, core.ReclaimConfig{})
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}

	if _, err := loop.ProcessOnce(context.Background()); err != nil {
		t.Fatalf("process once: %v", err)
	}
	if gotBatch != 7 {
		t.Fatalf("expected batch size 7, got %d", gotBatch)
	}
}

func TestLoop_RequiresDispatcher(t *testing.T) {
	if _, err := New(nil, core.WorkerConfig{}, core.ReclaimConfig{}); err == nil {
		t.Fatalf("expected construction to fail without dispatcher")
	}
}

type captureDispatcher struct {
	batch *int
}

func (c *captureDispatcher) DispatchPending(_ context.Context, batchSize int) (core.DispatchStats, error) {
	*c.batch = batchSize
	return core.DispatchStats{}, nil
}

func (c *captureDispatcher) ReclaimStuck(_ context.Context) (int, error) {
	return 0, nil
}
