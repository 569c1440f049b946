package core

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a delivery record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can occur from the status.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusSent, StatusFailed:
		return true
	}
	return false
}

// DeliveryRecord is the unit of work: one outbound operation that must be
// attempted until it reaches a terminal status. The payload is opaque to the
// core; only the transport adapter registered for the record's kind inspects
// it.
type DeliveryRecord struct {
	ID             string
	Kind           string
	Payload        []byte
	Status         Status
	Attempts       int
	MaxAttempts    int
	LastAttemptAt  *time.Time
	NextEligibleAt *time.Time
	ErrorMessage   string
	CreatedAt      time.Time
	TerminalAt     *time.Time
}

func (r DeliveryRecord) Terminal() bool {
	return r.Status.Terminal()
}

// KindFamily returns the routing family of a composite kind, e.g.
// "webhook:member.updated" -> "webhook". Plain kinds return themselves.
func (r DeliveryRecord) KindFamily() string {
	return KindFamily(r.Kind)
}

func KindFamily(kind string) string {
	kind = strings.TrimSpace(strings.ToLower(kind))
	if idx := strings.Index(kind, ":"); idx > 0 {
		return kind[:idx]
	}
	return kind
}

// OutcomeKind classifies the result of one transport attempt.
type OutcomeKind string

const (
	OutcomeSent             OutcomeKind = "sent"
	OutcomeTransientFailure OutcomeKind = "transient_failure"
	OutcomePermanentFailure OutcomeKind = "permanent_failure"
)

// Outcome is what a transport attempt resolved to. The dispatcher guarantees
// every attempt collapses into exactly one of the three kinds; adapter errors
// and panics never propagate past it.
type Outcome struct {
	Kind         OutcomeKind
	ErrorMessage string
}

func SentOutcome() Outcome {
	return Outcome{Kind: OutcomeSent}
}

func TransientFailure(reason string) Outcome {
	return Outcome{Kind: OutcomeTransientFailure, ErrorMessage: strings.TrimSpace(reason)}
}

func PermanentFailure(reason string) Outcome {
	return Outcome{Kind: OutcomePermanentFailure, ErrorMessage: strings.TrimSpace(reason)}
}

func (o Outcome) Failed() bool {
	return o.Kind == OutcomeTransientFailure || o.Kind == OutcomePermanentFailure
}

// EnqueueRequest is the narrow surface the originating CRUD layer uses.
// Enqueue is fire-and-forget: delivery failures are never visible to the
// enqueuer, only through the health monitor and record queries.
type EnqueueRequest struct {
	Kind        string
	Payload     []byte
	MaxAttempts int
}

// RetryDecision is the retry scheduler's verdict for one resolved attempt.
// It is applied to the store as a single conditional update guarded by the
// record still being in processing, so replays against terminal records are
// no-ops.
type RetryDecision struct {
	Status         Status
	Attempts       int
	NextEligibleAt *time.Time
	ErrorMessage   string
	TerminalAt     *time.Time
}

// DeliveryFilter selects records for operational list queries.
type DeliveryFilter struct {
	Statuses      []Status
	Kinds         []string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int
	PerPage       int
}

// DeliveryPage is one page of an operational list query.
type DeliveryPage struct {
	Items   []DeliveryRecord
	Total   int
	Page    int
	PerPage int
}

// DispatchStats summarizes one dispatch cycle.
type DispatchStats struct {
	Claimed   int
	Delivered int
	Retried   int
	Failed    int
}

// TimeWindow bounds aggregate queries. A zero From or To leaves that side
// open.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// StatusCount is one bucket of an aggregate-by-status query.
type StatusCount struct {
	Status Status
	Kind   string
	Count  int
}

// TerminalStats aggregates terminal records within a window. RecoveredSent
// counts sent records that needed more than one attempt.
type TerminalStats struct {
	Sent          int
	Failed        int
	RecoveredSent int
}

func (s TerminalStats) Total() int {
	return s.Sent + s.Failed
}
