package core

import (
	"strings"
	"time"
)

const defaultMaxErrorLength = 500

// RetryScheduler translates one resolved attempt into the record's next
// state. It is a stateless decision function; the store applies its verdict
// as a single conditional update.
type RetryScheduler struct {
	Backoff        BackoffCalculator
	MaxErrorLength int
}

func NewRetryScheduler(cfg RetryConfig) RetryScheduler {
	return RetryScheduler{
		Backoff:        NewBackoffCalculator(cfg),
		MaxErrorLength: defaultMaxErrorLength,
	}
}

// Decide computes the transition for a record in processing given the
// attempt's outcome. Terminal records produce a mirror decision so replays
// are no-ops.
func (s RetryScheduler) Decide(record DeliveryRecord, outcome Outcome, now time.Time) RetryDecision {
	if record.Terminal() {
		return RetryDecision{
			Status:         record.Status,
			Attempts:       record.Attempts,
			NextEligibleAt: record.NextEligibleAt,
			ErrorMessage:   record.ErrorMessage,
			TerminalAt:     record.TerminalAt,
		}
	}

	now = now.UTC()
	attempts := record.Attempts + 1
	if record.MaxAttempts > 0 && attempts > record.MaxAttempts {
		attempts = record.MaxAttempts
	}

	switch outcome.Kind {
	case OutcomeSent:
		return RetryDecision{
			Status:     StatusSent,
			Attempts:   attempts,
			TerminalAt: &now,
		}
	case OutcomePermanentFailure:
		return RetryDecision{
			Status:       StatusFailed,
			Attempts:     attempts,
			ErrorMessage: s.truncate(outcome.ErrorMessage),
			TerminalAt:   &now,
		}
	default:
		// transient failure, or anything unclassified, fails safe toward
		// retry until attempts run out
		if record.MaxAttempts > 0 && attempts >= record.MaxAttempts {
			return RetryDecision{
				Status:       StatusFailed,
				Attempts:     attempts,
				ErrorMessage: s.truncate(outcome.ErrorMessage),
				TerminalAt:   &now,
			}
		}
		next := now.Add(s.Backoff.Delay(attempts))
		return RetryDecision{
			Status:         StatusPending,
			Attempts:       attempts,
			NextEligibleAt: &next,
			ErrorMessage:   s.truncate(outcome.ErrorMessage),
		}
	}
}

func (s RetryScheduler) truncate(message string) string {
	message = strings.TrimSpace(message)
	limit := s.MaxErrorLength
	if limit <= 0 {
		limit = defaultMaxErrorLength
	}
	if len(message) <= limit {
		return message
	}
	return message[:limit]
}
