package command

import (
	"context"
	"time"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-delivery/core"
)

// MutatingService is the slice of the delivery service the commands
// drive.
type MutatingService interface {
	Enqueue(ctx context.Context, req core.EnqueueRequest) (core.DeliveryRecord, error)
	DispatchPending(ctx context.Context, batchSize int) (core.DispatchStats, error)
	ReclaimStuck(ctx context.Context) (int, error)
	PurgeTerminal(ctx context.Context, olderThan time.Duration) (int, error)
}

type EnqueueDeliveryCommand struct {
	service MutatingService
}

func NewEnqueueDeliveryCommand(service MutatingService) *EnqueueDeliveryCommand {
	return &EnqueueDeliveryCommand{service: service}
}

func (c *EnqueueDeliveryCommand) Execute(ctx context.Context, msg EnqueueDeliveryMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: enqueue service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandWrapValidation(err, "command: enqueue delivery")
	}
	out, err := c.service.Enqueue(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DispatchPendingCommand struct {
	service MutatingService
}

func NewDispatchPendingCommand(service MutatingService) *DispatchPendingCommand {
	return &DispatchPendingCommand{service: service}
}

func (c *DispatchPendingCommand) Execute(ctx context.Context, msg DispatchPendingMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: dispatch service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandWrapValidation(err, "command: dispatch pending")
	}
	out, err := c.service.DispatchPending(ctx, msg.BatchSize)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type ReclaimStuckCommand struct {
	service MutatingService
}

func NewReclaimStuckCommand(service MutatingService) *ReclaimStuckCommand {
	return &ReclaimStuckCommand{service: service}
}

func (c *ReclaimStuckCommand) Execute(ctx context.Context, _ ReclaimStuckMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: reclaim service is required")
	}
	out, err := c.service.ReclaimStuck(ctx)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type PurgeTerminalCommand struct {
	service MutatingService
}

func NewPurgeTerminalCommand(service MutatingService) *PurgeTerminalCommand {
	return &PurgeTerminalCommand{service: service}
}

func (c *PurgeTerminalCommand) Execute(ctx context.Context, msg PurgeTerminalMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: purge service is required")
	}
	if err := msg.Validate(); err != nil {
		return commandWrapValidation(err, "command: purge terminal")
	}
	out, err := c.service.PurgeTerminal(ctx, time.Duration(msg.OlderThanHours)*time.Hour)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
