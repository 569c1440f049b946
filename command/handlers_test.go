package command

import (
	"context"
	"testing"
	"time"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-delivery/core"
)

type stubMutatingService struct {
	enqueueFn  func(ctx context.Context, req core.EnqueueRequest) (core.DeliveryRecord, error)
	dispatchFn func(ctx context.Context, batchSize int) (core.DispatchStats, error)
	reclaimFn  func(ctx context.Context) (int, error)
	purgeFn    func(ctx context.Context, olderThan time.Duration) (int, error)
}

func (s stubMutatingService) Enqueue(ctx context.Context, req core.EnqueueRequest) (core.DeliveryRecord, error) {
	return s.enqueueFn(ctx, req)
}

func (s stubMutatingService) DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error) {
	return s.dispatchFn(ctx, batchSize)
}

func (s stubMutatingService) ReclaimStuck(ctx context.Context) (int, error) {
	return s.reclaimFn(ctx)
}

func (s stubMutatingService) PurgeTerminal(ctx context.Context, olderThan time.Duration) (int, error) {
	return s.purgeFn(ctx, olderThan)
}

func TestEnqueueDeliveryCommand_ExecuteDelegatesAndStoresResult(t *testing.T) {
	expected := core.DeliveryRecord{ID: "rec-1", Kind: "email", Status: core.StatusPending}
	called := false

	svc := stubMutatingService{
		enqueueFn: func(_ context.Context, req core.EnqueueRequest) (core.DeliveryRecord, error) {
			called = true
			if req.Kind != "email" {
				t.Fatalf("expected kind email, got %q", req.Kind)
			}
			return expected, nil
		},
	}

	cmd := NewEnqueueDeliveryCommand(svc)
	collector := gocmd.NewResult[core.DeliveryRecord]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	err := cmd.Execute(ctx, EnqueueDeliveryMessage{Request: core.EnqueueRequest{
		Kind:    "email",
		Payload: []byte(`{"to":"family@example.com"}`),
	}})
	if err != nil {
		t.Fatalf("execute enqueue: %v", err)
	}
	if !called {
		t.Fatalf("expected enqueue service invocation")
	}
	result, ok := collector.Load()
	if !ok {
		t.Fatalf("expected result to be stored")
	}
	if result.ID != expected.ID || result.Status != core.StatusPending {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestEnqueueDeliveryCommand_RejectsEmptyKind(t *testing.T) {
	cmd := NewEnqueueDeliveryCommand(stubMutatingService{})
	if err := cmd.Execute(context.Background(), EnqueueDeliveryMessage{}); err == nil {
		t.Fatalf("expected validation error for empty kind")
	}
}

func TestDispatchPendingCommand_StoresStats(t *testing.T) {
	expected := core.DispatchStats{Claimed: 5, Delivered: 4, Retried: 1}

	svc := stubMutatingService{
		dispatchFn: func(_ context.Context, batchSize int) (core.DispatchStats, error) {
			if batchSize != 25 {
				t.Fatalf("expected batch size 25, got %d", batchSize)
			}
			return expected, nil
		},
	}

	cmd := NewDispatchPendingCommand(svc)
	collector := gocmd.NewResult[core.DispatchStats]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, DispatchPendingMessage{BatchSize: 25}); err != nil {
		t.Fatalf("execute dispatch: %v", err)
	}
	stats, ok := collector.Load()
	if !ok {
		t.Fatalf("expected stats stored")
	}
	if stats != expected {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}

func TestReclaimStuckCommand_StoresCount(t *testing.T) {
	svc := stubMutatingService{
		reclaimFn: func(_ context.Context) (int, error) {
			return 3, nil
		},
	}

	cmd := NewReclaimStuckCommand(svc)
	collector := gocmd.NewResult[int]()
	ctx := gocmd.ContextWithResult(context.Background(), collector)

	if err := cmd.Execute(ctx, ReclaimStuckMessage{}); err != nil {
		t.Fatalf("execute reclaim: %v", err)
	}
	count, ok := collector.Load()
	if !ok || count != 3 {
		t.Fatalf("expected reclaimed count 3, got %d (stored=%v)", count, ok)
	}
}

func TestPurgeTerminalCommand_ConvertsHorizon(t *testing.T) {
	svc := stubMutatingService{
		purgeFn: func(_ context.Context, olderThan time.Duration) (int, error) {
			if olderThan != 48*time.Hour {
				t.Fatalf("expected 48h horizon, got %s", olderThan)
			}
			return 10, nil
		},
	}

	cmd := NewPurgeTerminalCommand(svc)
	if err := cmd.Execute(context.Background(), PurgeTerminalMessage{OlderThanHours: 48}); err != nil {
		t.Fatalf("execute purge: %v", err)
	}
}

func TestPurgeTerminalCommand_RejectsZeroHorizon(t *testing.T) {
	cmd := NewPurgeTerminalCommand(stubMutatingService{})
	if err := cmd.Execute(context.Background(), PurgeTerminalMessage{}); err == nil {
		t.Fatalf("expected validation error for zero horizon")
	}
}

func TestCommands_RequireService(t *testing.T) {
	if err := (&EnqueueDeliveryCommand{}).Execute(context.Background(), EnqueueDeliveryMessage{Request: core.EnqueueRequest{Kind: "email"}}); err == nil {
		t.Fatalf("expected dependency error without service")
	}
	if err := (&DispatchPendingCommand{}).Execute(context.Background(), DispatchPendingMessage{}); err == nil {
		t.Fatalf("expected dependency error without service")
	}
}
