package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-delivery/core"
)

type deliveryRecord struct {
	bun.BaseModel `bun:"table:delivery_records,alias:dr"`

	ID             string     `bun:"id,pk"`
	Kind           string     `bun:"kind,notnull"`
	Payload        []byte     `bun:"payload"`
	Status         string     `bun:"status,notnull"`
	Attempts       int        `bun:"attempts,notnull"`
	MaxAttempts    int        `bun:"max_attempts,notnull"`
	LastAttemptAt  *time.Time `bun:"last_attempt_at,nullzero"`
	NextEligibleAt *time.Time `bun:"next_eligible_at,nullzero"`
	TerminalAt     *time.Time `bun:"terminal_at,nullzero"`
	ErrorMessage   string     `bun:"error_message"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func deliveryRecordToDomain(record *deliveryRecord) core.DeliveryRecord {
	if record == nil {
		return core.DeliveryRecord{}
	}
	return core.DeliveryRecord{
		ID:             record.ID,
		Kind:           record.Kind,
		Payload:        append([]byte(nil), record.Payload...),
		Status:         core.Status(record.Status),
		Attempts:       record.Attempts,
		MaxAttempts:    record.MaxAttempts,
		LastAttemptAt:  cloneTimePointer(record.LastAttemptAt),
		NextEligibleAt: cloneTimePointer(record.NextEligibleAt),
		TerminalAt:     cloneTimePointer(record.TerminalAt),
		ErrorMessage:   record.ErrorMessage,
		CreatedAt:      record.CreatedAt,
	}
}

func deliveryRecordFromDomain(record core.DeliveryRecord) *deliveryRecord {
	return &deliveryRecord{
		ID:             record.ID,
		Kind:           record.Kind,
		Payload:        append([]byte(nil), record.Payload...),
		Status:         string(record.Status),
		Attempts:       record.Attempts,
		MaxAttempts:    record.MaxAttempts,
		LastAttemptAt:  cloneTimePointer(record.LastAttemptAt),
		NextEligibleAt: cloneTimePointer(record.NextEligibleAt),
		TerminalAt:     cloneTimePointer(record.TerminalAt),
		ErrorMessage:   record.ErrorMessage,
		CreatedAt:      record.CreatedAt,
	}
}

func cloneTimePointer(input *time.Time) *time.Time {
	if input == nil {
		return nil
	}
	value := input.UTC()
	return &value
}
