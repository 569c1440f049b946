package core

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Dispatcher performs exactly one transport attempt per call and collapses
// whatever the adapter does into one of the three outcomes. Adapter errors
// and panics never escape it; an adapter that misbehaves fails safe toward a
// transient outcome so the work is retried rather than dropped.
type Dispatcher struct {
	resolver AdapterResolver
	timeout  time.Duration
	logger   Logger
}

func NewDispatcher(resolver AdapterResolver, timeout time.Duration, logger Logger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		timeout:  timeout,
		logger:   logger,
	}
}

// Attempt resolves the adapter for the record's kind and invokes it once.
// Callers must hold the record's claim; the dispatcher itself never touches
// the store.
func (d *Dispatcher) Attempt(ctx context.Context, record DeliveryRecord) (outcome Outcome) {
	if d == nil || d.resolver == nil {
		return PermanentFailure("dispatcher is not configured with an adapter resolver")
	}

	adapter, ok := d.resolver.Resolve(record.Kind)
	if !ok || adapter == nil {
		return PermanentFailure(fmt.Sprintf("no transport adapter registered for kind %q", record.Kind))
	}

	defer func() {
		if rec := recover(); rec != nil {
			if d.logger != nil {
				d.logger.Error("transport adapter panic",
					"kind", record.Kind,
					"record_id", record.ID,
					"panic", rec,
				)
			}
			outcome = TransientFailure(fmt.Sprintf("adapter panic: %v", rec))
		}
	}()

	attemptCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result, err := adapter.Attempt(attemptCtx, record)
	return normalizeOutcome(result, err)
}

func normalizeOutcome(result Outcome, err error) Outcome {
	if err != nil {
		// the adapter may classify its own error as permanent; anything else
		// is retried
		if result.Kind == OutcomePermanentFailure {
			return PermanentFailure(firstNonEmpty(result.ErrorMessage, err.Error()))
		}
		return TransientFailure(firstNonEmpty(result.ErrorMessage, err.Error()))
	}
	switch result.Kind {
	case OutcomeSent, OutcomeTransientFailure, OutcomePermanentFailure:
		return result
	default:
		return TransientFailure("adapter returned an unclassified outcome")
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
