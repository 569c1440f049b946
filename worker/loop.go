// Package worker runs the polling loop that drains the delivery queue:
// a pool of dispatch workers plus a reclaim sweeper for claims orphaned
// by crashed processes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-delivery/core"
)

// Dispatcher is the slice of the delivery service the loop drives.
type Dispatcher interface {
	DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error)
	ReclaimStuck(ctx context.Context) (int, error)
}

type Loop struct {
	service Dispatcher
	worker  core.WorkerConfig
	reclaim core.ReclaimConfig
	logger  core.Logger
}

type Option func(*Loop)

func WithLogger(logger core.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(service Dispatcher, workerCfg core.WorkerConfig, reclaimCfg core.ReclaimConfig, options ...Option) (*Loop, error) {
	if service == nil {
		return nil, fmt.Errorf("worker: dispatcher is required")
	}
	defaults := core.DefaultConfig()
	if workerCfg.PollInterval <= 0 {
		workerCfg.PollInterval = defaults.Worker.PollInterval
	}
	if workerCfg.BatchSize <= 0 {
		workerCfg.BatchSize = defaults.Worker.BatchSize
	}
	if workerCfg.Workers <= 0 {
		workerCfg.Workers = defaults.Worker.Workers
	}
	if reclaimCfg.Interval <= 0 {
		reclaimCfg.Interval = defaults.Reclaim.Interval
	}

	loop := &Loop{
		service: service,
		worker:  workerCfg,
		reclaim: reclaimCfg,
	}
	for _, option := range options {
		option(loop)
	}
	return loop, nil
}

// Run blocks until the context is cancelled. Dispatch and reclaim
// failures are logged and the loop keeps polling; only cancellation
// stops it.
func (l *Loop) Run(ctx context.Context) error {
	if l == nil || l.service == nil {
		return fmt.Errorf("worker: loop is not configured")
	}

	group, ctx := errgroup.WithContext(ctx)
	for i := 0; i < l.worker.Workers; i++ {
		group.Go(func() error {
			return l.pollLoop(ctx)
		})
	}
	group.Go(func() error {
		return l.reclaimLoop(ctx)
	})

	err := group.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// ProcessOnce runs a single dispatch pass. Exposed for callers that
// schedule their own ticks, like job runners.
func (l *Loop) ProcessOnce(ctx context.Context) (core.DispatchStats, error) {
	if l == nil || l.service == nil {
		return core.DispatchStats{}, fmt.Errorf("worker: loop is not configured")
	}
	return l.service.DispatchPending(ctx, l.worker.BatchSize)
}

func (l *Loop) pollLoop(ctx context.Context) error {
	ticker := time.NewTicker(l.worker.PollInterval)
	defer ticker.Stop()

	for {
		stats, err := l.ProcessOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			l.logWarn("dispatch pass failed", "error", err.Error())
		case stats.Claimed > 0:
			l.logDebug("dispatch pass complete",
				"claimed", stats.Claimed,
				"delivered", stats.Delivered,
				"retried", stats.Retried,
				"failed", stats.Failed,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Loop) reclaimLoop(ctx context.Context) error {
	ticker := time.NewTicker(l.reclaim.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		reclaimed, err := l.service.ReclaimStuck(ctx)
		if err != nil && ctx.Err() == nil {
			l.logWarn("reclaim sweep failed", "error", err.Error())
			continue
		}
		if reclaimed > 0 {
			l.logWarn("reclaimed stuck deliveries", "reclaimed", reclaimed)
		}
	}
}

func (l *Loop) logWarn(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, args...)
	}
}

func (l *Loop) logDebug(msg string, args ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, args...)
	}
}
