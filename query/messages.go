package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-delivery/core"
)

const (
	TypeGetDelivery     = "delivery.query.record.get"
	TypeListDeliveries  = "delivery.query.record.list"
	TypeGetHealthReport = "delivery.query.health.report"
)

type GetDeliveryMessage struct {
	ID string
}

func (GetDeliveryMessage) Type() string { return TypeGetDelivery }

func (m GetDeliveryMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("query: delivery record id is required")
	}
	return nil
}

type ListDeliveriesMessage struct {
	Filter core.DeliveryFilter
}

func (ListDeliveriesMessage) Type() string { return TypeListDeliveries }

func (m ListDeliveriesMessage) Validate() error {
	if m.Filter.Page < 0 {
		return fmt.Errorf("query: page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return fmt.Errorf("query: per_page must be >= 0")
	}
	for _, status := range m.Filter.Statuses {
		if !status.Valid() {
			return fmt.Errorf("query: unknown status %q", status)
		}
	}
	return nil
}

type GetHealthReportMessage struct{}

func (GetHealthReportMessage) Type() string { return TypeGetHealthReport }

func (GetHealthReportMessage) Validate() error { return nil }
