package command

import (
	gocmd "github.com/goliatone/go-command"
)

var (
	_ gocmd.Commander[EnqueueDeliveryMessage] = (*EnqueueDeliveryCommand)(nil)
	_ gocmd.Commander[DispatchPendingMessage] = (*DispatchPendingCommand)(nil)
	_ gocmd.Commander[ReclaimStuckMessage]    = (*ReclaimStuckCommand)(nil)
	_ gocmd.Commander[PurgeTerminalMessage]   = (*PurgeTerminalCommand)(nil)
)
