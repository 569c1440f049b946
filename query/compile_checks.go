package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-delivery/core"
	"github.com/goliatone/go-delivery/health"
)

var (
	_ gocmd.Querier[GetDeliveryMessage, core.DeliveryRecord]  = (*GetDeliveryQuery)(nil)
	_ gocmd.Querier[ListDeliveriesMessage, core.DeliveryPage] = (*ListDeliveriesQuery)(nil)
	_ gocmd.Querier[GetHealthReportMessage, health.Report]    = (*GetHealthReportQuery)(nil)
)
