package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// DeliveryStore is the durable record table plus the specialized reads and
// conditionally-guarded writes the other components need. All mutation is
// single-row and status-guarded; the conditional update is the only locking
// mechanism in the system.
type DeliveryStore interface {
	// Enqueue persists a new pending record.
	Enqueue(ctx context.Context, record DeliveryRecord) (DeliveryRecord, error)

	// Get loads one record by id, returning ErrRecordNotFound when absent.
	Get(ctx context.Context, id string) (DeliveryRecord, error)

	// List pages through records matching the filter, oldest first.
	List(ctx context.Context, filter DeliveryFilter) (DeliveryPage, error)

	// ClaimBatch atomically moves up to limit due pending records to
	// processing and returns them, oldest createdAt first. Records whose
	// nextEligibleAt is in the future are not due.
	ClaimBatch(ctx context.Context, limit int, now time.Time) ([]DeliveryRecord, error)

	// Claim attempts to claim a single pending record. False means another
	// worker already holds it; callers treat that as a no-op, not an error.
	Claim(ctx context.Context, id string, now time.Time) (bool, error)

	// Resolve applies a retry decision to a record currently in processing.
	// The write is guarded by status=processing so a decision applied to a
	// record that already reached a terminal status is a no-op.
	Resolve(ctx context.Context, id string, decision RetryDecision) error

	// SelectStuck returns records left in processing longer than staleAfter,
	// which signals a worker that crashed before resolving its claim.
	SelectStuck(ctx context.Context, staleAfter time.Duration, now time.Time) ([]DeliveryRecord, error)

	// ReclaimStuck resets stuck processing records back to pending with
	// immediate retry eligibility and returns how many were reset. When
	// countAttempt is false a crash does not consume an attempt.
	ReclaimStuck(ctx context.Context, staleAfter time.Duration, now time.Time, countAttempt bool) (int, error)

	// PurgeTerminal deletes sent and failed records whose terminal timestamp
	// is older than the cutoff and returns how many were removed.
	PurgeTerminal(ctx context.Context, olderThan time.Duration, now time.Time) (int, error)
}

// DeliveryStatsReader is the read-only aggregation surface consumed by the
// health monitor. Implementations never mutate records.
type DeliveryStatsReader interface {
	AggregateByStatus(ctx context.Context, window TimeWindow) ([]StatusCount, error)
	TerminalStats(ctx context.Context, window TimeWindow) (TerminalStats, error)
	CountStuckProcessing(ctx context.Context, staleAfter time.Duration, now time.Time) (int, error)
	CountStalePending(ctx context.Context, olderThan time.Duration, now time.Time) (int, error)
}

// TransportAdapter performs one attempt of one record. The adapter owns
// credential acquisition, recipient eligibility, templating, and the
// transient-versus-permanent classification of its own errors. Returning a
// non-nil error without a permanent outcome is treated as transient.
type TransportAdapter interface {
	Kind() string
	Attempt(ctx context.Context, record DeliveryRecord) (Outcome, error)
}

// AdapterResolver routes a record kind to the transport adapter that can
// attempt it.
type AdapterResolver interface {
	Resolve(kind string) (TransportAdapter, bool)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// StoreProvider exposes the stores a repository factory builds.
type StoreProvider interface {
	DeliveryStore() DeliveryStore
	StatsReader() DeliveryStatsReader
}

// RepositoryStoreFactory builds stores from a persistence client.
type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
