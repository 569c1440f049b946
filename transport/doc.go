// Package transport provides the adapter registry and the built-in
// transport adapters used by the delivery pipeline. An adapter owns the
// actual side effect of a delivery attempt and classifies its failures
// as transient or permanent so the scheduler can decide what happens
// next.
package transport
