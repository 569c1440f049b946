package query

import (
	"context"

	"github.com/goliatone/go-delivery/core"
	"github.com/goliatone/go-delivery/health"
)

type DeliveryReader interface {
	GetDelivery(ctx context.Context, id string) (core.DeliveryRecord, error)
	ListDeliveries(ctx context.Context, filter core.DeliveryFilter) (core.DeliveryPage, error)
}

type HealthReader interface {
	Report(ctx context.Context) (health.Report, error)
}

type GetDeliveryQuery struct {
	reader DeliveryReader
}

func NewGetDeliveryQuery(reader DeliveryReader) *GetDeliveryQuery {
	return &GetDeliveryQuery{reader: reader}
}

func (q *GetDeliveryQuery) Query(ctx context.Context, msg GetDeliveryMessage) (core.DeliveryRecord, error) {
	if q == nil || q.reader == nil {
		return core.DeliveryRecord{}, queryDependencyError("query: delivery reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.DeliveryRecord{}, queryWrapValidation(err, "query: get delivery")
	}
	return q.reader.GetDelivery(ctx, msg.ID)
}

type ListDeliveriesQuery struct {
	reader DeliveryReader
}

func NewListDeliveriesQuery(reader DeliveryReader) *ListDeliveriesQuery {
	return &ListDeliveriesQuery{reader: reader}
}

func (q *ListDeliveriesQuery) Query(ctx context.Context, msg ListDeliveriesMessage) (core.DeliveryPage, error) {
	if q == nil || q.reader == nil {
		return core.DeliveryPage{}, queryDependencyError("query: delivery reader is required")
	}
	if err := msg.Validate(); err != nil {
		return core.DeliveryPage{}, queryWrapValidation(err, "query: list deliveries")
	}
	return q.reader.ListDeliveries(ctx, msg.Filter)
}

type GetHealthReportQuery struct {
	reader HealthReader
}

func NewGetHealthReportQuery(reader HealthReader) *GetHealthReportQuery {
	return &GetHealthReportQuery{reader: reader}
}

func (q *GetHealthReportQuery) Query(ctx context.Context, _ GetHealthReportMessage) (health.Report, error) {
	if q == nil || q.reader == nil {
		return health.Report{}, queryDependencyError("query: health reader is required")
	}
	return q.reader.Report(ctx)
}
