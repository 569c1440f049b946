package command

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-delivery/core"
)

const (
	TypeEnqueueDelivery = "delivery.command.record.enqueue"
	TypeDispatchPending = "delivery.command.record.dispatch"
	TypeReclaimStuck    = "delivery.command.record.reclaim"
	TypePurgeTerminal   = "delivery.command.record.purge"
)

type EnqueueDeliveryMessage struct {
	Request core.EnqueueRequest
}

func (EnqueueDeliveryMessage) Type() string { return TypeEnqueueDelivery }

func (m EnqueueDeliveryMessage) Validate() error {
	if strings.TrimSpace(m.Request.Kind) == "" {
		return fmt.Errorf("command: delivery kind is required")
	}
	if m.Request.MaxAttempts < 0 {
		return fmt.Errorf("command: max attempts must be >= 0")
	}
	return nil
}

type DispatchPendingMessage struct {
	BatchSize int
}

func (DispatchPendingMessage) Type() string { return TypeDispatchPending }

func (m DispatchPendingMessage) Validate() error {
	if m.BatchSize < 0 {
		return fmt.Errorf("command: batch size must be >= 0")
	}
	return nil
}

type ReclaimStuckMessage struct{}

func (ReclaimStuckMessage) Type() string { return TypeReclaimStuck }

func (ReclaimStuckMessage) Validate() error { return nil }

type PurgeTerminalMessage struct {
	OlderThanHours int
}

func (PurgeTerminalMessage) Type() string { return TypePurgeTerminal }

func (m PurgeTerminalMessage) Validate() error {
	if m.OlderThanHours <= 0 {
		return fmt.Errorf("command: purge horizon must be > 0 hours")
	}
	return nil
}
