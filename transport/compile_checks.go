package transport

import "github.com/goliatone/go-delivery/core"

var (
	_ core.AdapterResolver  = (*Registry)(nil)
	_ core.TransportAdapter = (*SkipAdapter)(nil)
	_ core.TransportAdapter = (*UnsupportedAdapter)(nil)
	_ core.TransportAdapter = (*AdapterFunc)(nil)
	_ core.TransportAdapter = (*WebhookAdapter)(nil)
)
