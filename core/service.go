package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Service is the delivery subsystem's orchestration facade. It owns
// enqueueing, the claim/attempt/resolve dispatch cycle, and the reclaim
// sweep. All coordination between concurrent workers happens through the
// store's conditional updates; the service itself keeps no shared mutable
// state.
type Service struct {
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	store             DeliveryStore
	statsReader       DeliveryStatsReader
	resolver          AdapterResolver
	dispatcher        *Dispatcher
	scheduler         RetryScheduler
	clock             func() time.Time
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Store           DeliveryStore
	StatsReader     DeliveryStatsReader
	Resolver        AdapterResolver
	Clock           func() time.Time
}

func NewService(cfg Config, options ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("delivery", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("delivery"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.clock == nil {
		builder.clock = func() time.Time {
			return time.Now().UTC()
		}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.store == nil && builder.repositoryFactory != nil {
		if storeFactory, ok := builder.repositoryFactory.(RepositoryStoreFactory); ok {
			storeProvider, buildErr := storeFactory.BuildStores(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if storeProvider != nil {
				builder.store = storeProvider.DeliveryStore()
				if builder.statsReader == nil {
					builder.statsReader = storeProvider.StatsReader()
				}
			}
		}
	}
	if builder.store == nil {
		return nil, mapBuildError(builder.errorMapper, ErrStoreNotWired)
	}

	service := &Service{
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		store:             builder.store,
		statsReader:       builder.statsReader,
		resolver:          builder.resolver,
		scheduler:         NewRetryScheduler(finalConfig.Retry),
		clock:             builder.clock,
	}
	service.dispatcher = NewDispatcher(builder.resolver, finalConfig.Worker.AttemptTimeout, logger)
	return service, nil
}

// Setup is an alias kept for symmetry with the construction helpers exposed
// by the root package.
func Setup(cfg Config, options ...Option) (*Service, error) {
	return NewService(cfg, options...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	if mapped := mapper(err); mapped != nil {
		return mapped
	}
	return err
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Store:           s.store,
		StatsReader:     s.statsReader,
		Resolver:        s.resolver,
		Clock:           s.clock,
	}
}

// Enqueue creates a pending record and returns it. Failures of the eventual
// delivery are never surfaced here; the caller's transaction must not depend
// on the delivery outcome.
func (s *Service) Enqueue(ctx context.Context, req EnqueueRequest) (record DeliveryRecord, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "enqueue", err, map[string]any{
			"kind":      req.Kind,
			"record_id": record.ID,
		})
	}()

	if s == nil || s.store == nil {
		return DeliveryRecord{}, s.mapError(ErrStoreNotWired)
	}
	kind := strings.TrimSpace(req.Kind)
	if kind == "" {
		return DeliveryRecord{}, s.mapError(fmt.Errorf("core: delivery kind is required"))
	}
	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = s.config.Retry.MaxAttempts
	}

	now := s.now()
	record = DeliveryRecord{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     append([]byte(nil), req.Payload...),
		Status:      StatusPending,
		Attempts:    0,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
	}
	record, err = s.store.Enqueue(ctx, record)
	if err != nil {
		return DeliveryRecord{}, s.mapError(err)
	}
	return record, nil
}

// DispatchPending runs one dispatch cycle: claim due records, attempt each
// through its transport adapter, and write the retry scheduler's decision
// back. One record failing never aborts the rest of the batch.
func (s *Service) DispatchPending(ctx context.Context, batchSize int) (stats DispatchStats, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "dispatch", err, map[string]any{
			"claimed":   stats.Claimed,
			"delivered": stats.Delivered,
			"retried":   stats.Retried,
			"failed":    stats.Failed,
		})
	}()

	if s == nil || s.store == nil {
		return DispatchStats{}, s.mapError(ErrStoreNotWired)
	}
	limit := batchSize
	if limit <= 0 {
		limit = s.config.Worker.BatchSize
	}

	records, err := s.store.ClaimBatch(ctx, limit, s.now())
	if err != nil {
		return DispatchStats{}, s.mapError(err)
	}
	stats.Claimed = len(records)

	var dispatchErr error
	for _, record := range records {
		outcome := s.dispatcher.Attempt(ctx, record)
		decision := s.scheduler.Decide(record, outcome, s.now())
		if resolveErr := s.store.Resolve(ctx, record.ID, decision); resolveErr != nil {
			dispatchErr = joinErrors(dispatchErr, fmt.Errorf("resolve %s: %w", record.ID, resolveErr))
			continue
		}
		switch decision.Status {
		case StatusSent:
			stats.Delivered++
		case StatusFailed:
			stats.Failed++
		default:
			stats.Retried++
		}
		if outcome.Failed() {
			s.logError(ctx, "delivery attempt failed", map[string]any{
				"record_id": record.ID,
				"kind":      record.Kind,
				"outcome":   string(outcome.Kind),
				"attempts":  decision.Attempts,
				"error":     outcome.ErrorMessage,
			})
		}
	}
	if dispatchErr != nil {
		return stats, s.mapError(dispatchErr)
	}
	return stats, nil
}

// ReclaimStuck resets records stranded in processing past the configured
// staleness window. A crash is treated like a transient failure: the record
// becomes immediately claimable again and, by default, keeps its attempt
// count.
func (s *Service) ReclaimStuck(ctx context.Context) (reclaimed int, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "reclaim", err, map[string]any{
			"reclaimed": reclaimed,
		})
	}()

	if s == nil || s.store == nil {
		return 0, s.mapError(ErrStoreNotWired)
	}
	reclaimed, err = s.store.ReclaimStuck(ctx, s.config.Reclaim.StaleAfter, s.now(), s.config.Reclaim.CountAttempt)
	if err != nil {
		return 0, s.mapError(err)
	}
	return reclaimed, nil
}

// PurgeTerminal removes sent and failed records older than the horizon.
func (s *Service) PurgeTerminal(ctx context.Context, olderThan time.Duration) (purged int, err error) {
	startedAt := time.Now()
	defer func() {
		s.observeOperation(ctx, startedAt, "purge", err, map[string]any{
			"purged": purged,
		})
	}()

	if s == nil || s.store == nil {
		return 0, s.mapError(ErrStoreNotWired)
	}
	if olderThan <= 0 {
		return 0, s.mapError(fmt.Errorf("core: purge horizon must be positive"))
	}
	purged, err = s.store.PurgeTerminal(ctx, olderThan, s.now())
	if err != nil {
		return 0, s.mapError(err)
	}
	return purged, nil
}

// GetDelivery loads one record for operational detail views.
func (s *Service) GetDelivery(ctx context.Context, id string) (DeliveryRecord, error) {
	if s == nil || s.store == nil {
		return DeliveryRecord{}, s.mapError(ErrStoreNotWired)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return DeliveryRecord{}, s.mapError(fmt.Errorf("core: delivery record id is required"))
	}
	record, err := s.store.Get(ctx, id)
	if err != nil {
		return DeliveryRecord{}, s.mapError(err)
	}
	return record, nil
}

// ListDeliveries pages through records for operational tooling.
func (s *Service) ListDeliveries(ctx context.Context, filter DeliveryFilter) (DeliveryPage, error) {
	if s == nil || s.store == nil {
		return DeliveryPage{}, s.mapError(ErrStoreNotWired)
	}
	page, err := s.store.List(ctx, filter)
	if err != nil {
		return DeliveryPage{}, s.mapError(err)
	}
	return page, nil
}

func (s *Service) now() time.Time {
	if s == nil || s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	if mapped := s.errorMapper(err); mapped != nil {
		return mapped
	}
	return err
}

func joinErrors(existing error, next error) error {
	if existing == nil {
		return next
	}
	if next == nil {
		return existing
	}
	return fmt.Errorf("%w; %v", existing, next)
}
