package delivery

import "github.com/goliatone/go-delivery/core"

type Config = core.Config

type RetryConfig = core.RetryConfig
type WorkerConfig = core.WorkerConfig
type ReclaimConfig = core.ReclaimConfig
type HealthConfig = core.HealthConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type DeliveryStore = core.DeliveryStore
type DeliveryStatsReader = core.DeliveryStatsReader
type AdapterResolver = core.AdapterResolver
type TransportAdapter = core.TransportAdapter
type RetryScheduler = core.RetryScheduler

type DeliveryRecord = core.DeliveryRecord
type EnqueueRequest = core.EnqueueRequest
type DeliveryFilter = core.DeliveryFilter
type DeliveryPage = core.DeliveryPage
type DispatchStats = core.DispatchStats
type Outcome = core.Outcome
type Status = core.Status

const (
	StatusPending    = core.StatusPending
	StatusProcessing = core.StatusProcessing
	StatusSent       = core.StatusSent
	StatusFailed     = core.StatusFailed
)

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithErrorFactory      = core.WithErrorFactory
	WithErrorMapper       = core.WithErrorMapper
	WithPersistenceClient = core.WithPersistenceClient
	WithRepositoryFactory = core.WithRepositoryFactory
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithDeliveryStore     = core.WithDeliveryStore
	WithStatsReader       = core.WithStatsReader
	WithAdapterResolver   = core.WithAdapterResolver
	WithClock             = core.WithClock
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}
