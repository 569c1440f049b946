package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-delivery/core"
)

// SkipAdapter resolves every record as sent without performing any side
// effect. Register it for kinds a recipient has opted out of so the
// queue drains instead of accumulating dead work.
type SkipAdapter struct {
	kind   string
	reason string
}

func NewSkipAdapter(kind string, reason string) *SkipAdapter {
	return &SkipAdapter{
		kind:   normalizeKind(kind),
		reason: strings.TrimSpace(reason),
	}
}

func (a *SkipAdapter) Kind() string {
	if a == nil {
		return ""
	}
	return a.kind
}

func (a *SkipAdapter) Attempt(context.Context, core.DeliveryRecord) (core.Outcome, error) {
	if a == nil {
		return core.Outcome{}, fmt.Errorf("transport: adapter is nil")
	}
	return core.SentOutcome(), nil
}

func (a *SkipAdapter) Reason() string {
	if a == nil {
		return ""
	}
	return a.reason
}

// UnsupportedAdapter fails every record permanently. It is the
// placeholder for kinds that exist in the data but have no transport
// wired in this deployment.
type UnsupportedAdapter struct {
	kind   string
	reason string
}

func NewUnsupportedAdapter(kind string, reason string) *UnsupportedAdapter {
	return &UnsupportedAdapter{
		kind:   normalizeKind(kind),
		reason: strings.TrimSpace(reason),
	}
}

func (a *UnsupportedAdapter) Kind() string {
	if a == nil {
		return ""
	}
	return a.kind
}

func (a *UnsupportedAdapter) Attempt(context.Context, core.DeliveryRecord) (core.Outcome, error) {
	if a == nil {
		return core.Outcome{}, fmt.Errorf("transport: adapter is nil")
	}
	if a.reason != "" {
		return core.PermanentFailure(fmt.Sprintf("transport: %s adapter is not configured: %s", a.kind, a.reason)), nil
	}
	return core.PermanentFailure(fmt.Sprintf("transport: %s adapter is not configured", a.kind)), nil
}

// AdapterFunc adapts a plain function into a transport adapter. Tests
// and small integrations use it instead of a named type.
type AdapterFunc struct {
	kind string
	fn   func(ctx context.Context, record core.DeliveryRecord) (core.Outcome, error)
}

func NewAdapterFunc(kind string, fn func(ctx context.Context, record core.DeliveryRecord) (core.Outcome, error)) *AdapterFunc {
	return &AdapterFunc{kind: normalizeKind(kind), fn: fn}
}

func (a *AdapterFunc) Kind() string {
	if a == nil {
		return ""
	}
	return a.kind
}

func (a *AdapterFunc) Attempt(ctx context.Context, record core.DeliveryRecord) (core.Outcome, error) {
	if a == nil || a.fn == nil {
		return core.Outcome{}, fmt.Errorf("transport: adapter func is not configured")
	}
	return a.fn(ctx, record)
}
