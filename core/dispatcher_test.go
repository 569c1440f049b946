package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubAdapter struct {
	kind    string
	outcome Outcome
	err     error
	panics  bool
	block   time.Duration
	calls   int
}

func (a *stubAdapter) Kind() string { return a.kind }

func (a *stubAdapter) Attempt(ctx context.Context, record DeliveryRecord) (Outcome, error) {
	a.calls++
	if a.panics {
		panic("adapter exploded")
	}
	if a.block > 0 {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-time.After(a.block):
		}
	}
	return a.outcome, a.err
}

type stubResolver struct {
	adapters map[string]TransportAdapter
}

func (r stubResolver) Resolve(kind string) (TransportAdapter, bool) {
	adapter, ok := r.adapters[KindFamily(kind)]
	return adapter, ok
}

func TestDispatcher_UnknownKindIsPermanent(t *testing.T) {
	dispatcher := NewDispatcher(stubResolver{adapters: map[string]TransportAdapter{}}, 0, nil)

	outcome := dispatcher.Attempt(context.Background(), DeliveryRecord{ID: "rec-1", Kind: "carrier-pigeon"})
	if outcome.Kind != OutcomePermanentFailure {
		t.Fatalf("expected permanent failure for unknown kind, got %q", outcome.Kind)
	}
}

func TestDispatcher_AdapterErrorDefaultsToTransient(t *testing.T) {
	adapter := &stubAdapter{kind: "email", err: errors.New("connection refused")}
	dispatcher := NewDispatcher(stubResolver{adapters: map[string]TransportAdapter{"email": adapter}}, 0, nil)

	outcome := dispatcher.Attempt(context.Background(), DeliveryRecord{ID: "rec-1", Kind: "email"})
	if outcome.Kind != OutcomeTransientFailure {
		t.Fatalf("expected transient failure, got %q", outcome.Kind)
	}
	if outcome.ErrorMessage != "connection refused" {
		t.Fatalf("expected adapter error preserved, got %q", outcome.ErrorMessage)
	}
	if adapter.calls != 1 {
		t.Fatalf("expected exactly one adapter call, got %d", adapter.calls)
	}
}

func TestDispatcher_AdapterSignalsPermanence(t *testing.T) {
	adapter := &stubAdapter{
		kind:    "email",
		outcome: PermanentFailure("mailbox does not exist"),
		err:     errors.New("550 rejected"),
	}
	dispatcher := NewDispatcher(stubResolver{adapters: map[string]TransportAdapter{"email": adapter}}, 0, nil)

	outcome := dispatcher.Attempt(context.Background(), DeliveryRecord{ID: "rec-1", Kind: "email"})
	if outcome.Kind != OutcomePermanentFailure {
		t.Fatalf("expected permanent failure, got %q", outcome.Kind)
	}
	if outcome.ErrorMessage != "mailbox does not exist" {
		t.Fatalf("expected adapter classification preserved, got %q", outcome.ErrorMessage)
	}
}

func TestDispatcher_RecoversAdapterPanic(t *testing.T) {
	adapter := &stubAdapter{kind: "push", panics: true}
	dispatcher := NewDispatcher(stubResolver{adapters: map[string]TransportAdapter{"push": adapter}}, 0, nil)

	outcome := dispatcher.Attempt(context.Background(), DeliveryRecord{ID: "rec-1", Kind: "push"})
	if outcome.Kind != OutcomeTransientFailure {
		t.Fatalf("expected panic to resolve as transient, got %q", outcome.Kind)
	}
}

func TestDispatcher_TimeoutResolvesTransient(t *testing.T) {
	adapter := &stubAdapter{kind: "webhook", block: time.Second, outcome: SentOutcome()}
	dispatcher := NewDispatcher(
		stubResolver{adapters: map[string]TransportAdapter{"webhook": adapter}},
		5*time.Millisecond,
		nil,
	)

	outcome := dispatcher.Attempt(context.Background(), DeliveryRecord{ID: "rec-1", Kind: "webhook:member.updated"})
	if outcome.Kind != OutcomeTransientFailure {
		t.Fatalf("expected wedged attempt to resolve as transient, got %q", outcome.Kind)
	}
}

func TestDispatcher_UnclassifiedOutcomeFailsSafe(t *testing.T) {
	adapter := &stubAdapter{kind: "email"}
	dispatcher := NewDispatcher(stubResolver{adapters: map[string]TransportAdapter{"email": adapter}}, 0, nil)

	outcome := dispatcher.Attempt(context.Background(), DeliveryRecord{ID: "rec-1", Kind: "email"})
	if outcome.Kind != OutcomeTransientFailure {
		t.Fatalf("expected unclassified outcome to fail safe toward retry, got %q", outcome.Kind)
	}
}
