package transport

import (
	"context"
	"testing"

	"github.com/goliatone/go-delivery/core"
)

func TestRegistry_ResolveExactKind(t *testing.T) {
	registry := NewRegistry()
	adapter := NewSkipAdapter("email", "")
	if err := registry.Register(adapter); err != nil {
		t.Fatalf("register: %v", err)
	}

	resolved, ok := registry.Resolve("email")
	if !ok {
		t.Fatalf("expected adapter resolved")
	}
	if resolved.Kind() != "email" {
		t.Fatalf("expected email adapter, got %q", resolved.Kind())
	}
}

func TestRegistry_ResolveFallsBackToFamily(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(NewSkipAdapter("webhook", "")); err != nil {
		t.Fatalf("register: %v", err)
	}

	resolved, ok := registry.Resolve("webhook:care.logged")
	if !ok {
		t.Fatalf("expected family fallback to resolve")
	}
	if resolved.Kind() != "webhook" {
		t.Fatalf("expected webhook family adapter, got %q", resolved.Kind())
	}

	if _, ok := registry.Resolve("sms:reminder"); ok {
		t.Fatalf("expected no adapter for unregistered family")
	}
}

func TestRegistry_RejectsDuplicateKind(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(NewSkipAdapter("email", "")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(NewSkipAdapter("Email", "")); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}

func TestRegistry_NormalizesKindCase(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(NewSkipAdapter("  Push  ", "")); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, ok := registry.Resolve("push"); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
}

func TestRegistry_BuildUsesFactory(t *testing.T) {
	registry := NewRegistry()
	err := registry.RegisterFactory("sms", func(config map[string]any) (core.TransportAdapter, error) {
		reason, _ := config["reason"].(string)
		return NewUnsupportedAdapter("sms", reason), nil
	})
	if err != nil {
		t.Fatalf("register factory: %v", err)
	}

	adapter, err := registry.Build("sms", map[string]any{"reason": "no provider account"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	outcome, err := adapter.Attempt(context.Background(), core.DeliveryRecord{Kind: "sms"})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if outcome.Kind != core.OutcomePermanentFailure {
		t.Fatalf("expected permanent failure, got %q", outcome.Kind)
	}
}

func TestSkipAdapter_ResolvesAsSent(t *testing.T) {
	adapter := NewSkipAdapter("email", "guardian opted out")
	outcome, err := adapter.Attempt(context.Background(), core.DeliveryRecord{Kind: "email"})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if outcome.Kind != core.OutcomeSent {
		t.Fatalf("expected sent, got %q", outcome.Kind)
	}
}

func TestAdapterFunc_DelegatesToFunc(t *testing.T) {
	called := false
	adapter := NewAdapterFunc("push", func(ctx context.Context, record core.DeliveryRecord) (core.Outcome, error) {
		called = true
		return core.TransientFailure("gateway busy"), nil
	})

	outcome, err := adapter.Attempt(context.Background(), core.DeliveryRecord{Kind: "push"})
	if err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if !called {
		t.Fatalf("expected delegate to be invoked")
	}
	if outcome.Kind != core.OutcomeTransientFailure {
		t.Fatalf("expected transient failure, got %q", outcome.Kind)
	}
}
