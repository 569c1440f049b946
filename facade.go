package delivery

import (
	"fmt"
	"reflect"

	deliverycommand "github.com/goliatone/go-delivery/command"
	"github.com/goliatone/go-delivery/core"
	"github.com/goliatone/go-delivery/health"
	deliveryquery "github.com/goliatone/go-delivery/query"
)

// CommandQueryService is what the facade needs from the delivery service.
type CommandQueryService interface {
	deliverycommand.MutatingService
	deliveryquery.DeliveryReader
}

type Commands struct {
	Enqueue         *deliverycommand.EnqueueDeliveryCommand
	DispatchPending *deliverycommand.DispatchPendingCommand
	ReclaimStuck    *deliverycommand.ReclaimStuckCommand
	PurgeTerminal   *deliverycommand.PurgeTerminalCommand
}

type Queries struct {
	GetDelivery     *deliveryquery.GetDeliveryQuery
	ListDeliveries  *deliveryquery.ListDeliveriesQuery
	GetHealthReport *deliveryquery.GetHealthReportQuery
}

// Facade bundles the command/query handler set around one service so
// callers wire a single value into their dispatcher or router.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	healthReader deliveryquery.HealthReader
}

func WithHealthReader(reader deliveryquery.HealthReader) FacadeOption {
	return func(options *facadeOptions) {
		options.healthReader = reader
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("delivery: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.healthReader
	if reader == nil {
		reader = resolveHealthReader(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Enqueue:         deliverycommand.NewEnqueueDeliveryCommand(service),
		DispatchPending: deliverycommand.NewDispatchPendingCommand(service),
		ReclaimStuck:    deliverycommand.NewReclaimStuckCommand(service),
		PurgeTerminal:   deliverycommand.NewPurgeTerminalCommand(service),
	}
	facade.queries = Queries{
		GetDelivery:     deliveryquery.NewGetDeliveryQuery(service),
		ListDeliveries:  deliveryquery.NewListDeliveriesQuery(service),
		GetHealthReport: deliveryquery.NewGetHealthReportQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// resolveHealthReader derives a monitor from the service's stats reader
// when the caller did not supply one.
func resolveHealthReader(service CommandQueryService) deliveryquery.HealthReader {
	if service == nil {
		return nil
	}
	if reader, ok := service.(deliveryquery.HealthReader); ok {
		return reader
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
		Config() core.Config
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.StatsReader == nil || isNilValue(deps.StatsReader) {
		return nil
	}
	return health.NewMonitor(deps.StatsReader, provider.Config().Health,
		health.WithLogger(deps.Logger),
		health.WithStuckAfter(provider.Config().Reclaim.StaleAfter),
	)
}

func isNilValue(value any) bool {
	rv := reflect.ValueOf(value)
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
