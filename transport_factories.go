package delivery

import (
	"context"

	"github.com/goliatone/go-delivery/core"
	"github.com/goliatone/go-delivery/transport"
)

// Root-level constructors so integrators can assemble a transport
// surface without importing the transport package directly.

func WebhookTransport(client transport.HTTPDoer, endpoint string) core.TransportAdapter {
	return transport.NewWebhookAdapter(client, endpoint)
}

func SkipTransport(kind string, reason string) core.TransportAdapter {
	return transport.NewSkipAdapter(kind, reason)
}

func UnsupportedTransport(kind string, reason string) core.TransportAdapter {
	return transport.NewUnsupportedAdapter(kind, reason)
}

func FuncTransport(kind string, fn func(ctx context.Context, record core.DeliveryRecord) (core.Outcome, error)) core.TransportAdapter {
	return transport.NewAdapterFunc(kind, fn)
}

// NewTransportRegistry builds a registry preloaded with the given
// adapters.
func NewTransportRegistry(adapters ...core.TransportAdapter) (*transport.Registry, error) {
	registry := transport.NewRegistry()
	for _, adapter := range adapters {
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
