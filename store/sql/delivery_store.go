package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-delivery/core"
)

// DeliveryStore persists delivery records and implements the claim
// protocol with conditional updates so concurrent workers never process
// the same record twice.
type DeliveryStore struct {
	db   *bun.DB
	repo repository.Repository[*deliveryRecord]
}

func NewDeliveryStore(db *bun.DB) (*DeliveryStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*deliveryRecord](db, deliveryHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid delivery repository wiring: %w", err)
		}
	}
	return &DeliveryStore{db: db, repo: repo}, nil
}

func (s *DeliveryStore) Enqueue(ctx context.Context, record core.DeliveryRecord) (core.DeliveryRecord, error) {
	if s == nil || s.repo == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery record id is required")
	}
	if strings.TrimSpace(record.Kind) == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery kind is required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	created, err := s.repo.Create(ctx, deliveryRecordFromDomain(record))
	if err != nil {
		return core.DeliveryRecord{}, err
	}
	return deliveryRecordToDomain(created), nil
}

func (s *DeliveryStore) Get(ctx context.Context, id string) (core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery record id is required")
	}

	record := &deliveryRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.DeliveryRecord{}, fmt.Errorf("sqlstore: delivery record %q: %w", id, core.ErrRecordNotFound)
		}
		return core.DeliveryRecord{}, err
	}
	return deliveryRecordToDomain(record), nil
}

func (s *DeliveryStore) List(ctx context.Context, filter core.DeliveryFilter) (core.DeliveryPage, error) {
	if s == nil || s.db == nil {
		return core.DeliveryPage{}, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	query := s.db.NewSelect().
		Model((*deliveryRecord)(nil)).
		Order("created_at DESC").
		Limit(perPage).
		Offset(offset)

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		query = query.Where("?TableAlias.status IN (?)", bun.In(statuses))
	}
	if len(filter.Kinds) > 0 {
		query = query.Where("?TableAlias.kind IN (?)", bun.In(filter.Kinds))
	}
	if filter.CreatedAfter != nil {
		query = query.Where("?TableAlias.created_at >= ?", filter.CreatedAfter.UTC())
	}
	if filter.CreatedBefore != nil {
		query = query.Where("?TableAlias.created_at <= ?", filter.CreatedBefore.UTC())
	}

	var records []deliveryRecord
	total, err := query.ScanAndCount(ctx, &records)
	if err != nil {
		return core.DeliveryPage{}, err
	}

	items := make([]core.DeliveryRecord, 0, len(records))
	for i := range records {
		items = append(items, deliveryRecordToDomain(&records[i]))
	}
	return core.DeliveryPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

// ClaimBatch atomically moves up to limit eligible pending records to
// processing and returns them in claim order. Losing the race on a row
// simply drops it from the returned batch.
func (s *DeliveryStore) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	if limit <= 0 {
		limit = 1
	}
	now = now.UTC()

	var records []deliveryRecord
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		query := `
WITH claimed AS (
	SELECT id
	FROM delivery_records
	WHERE status = ?
	  AND (next_eligible_at IS NULL OR next_eligible_at <= ?)
	ORDER BY created_at ASC
	LIMIT ?
)
UPDATE delivery_records
SET status = ?, last_attempt_at = ?
WHERE id IN (SELECT id FROM claimed)
  AND status = ?
RETURNING
	id,
	kind,
	payload,
	status,
	attempts,
	max_attempts,
	last_attempt_at,
	next_eligible_at,
	terminal_at,
	error_message,
	created_at
`
		return tx.NewRaw(
			query,
			string(core.StatusPending),
			now,
			limit,
			string(core.StatusProcessing),
			now,
			string(core.StatusPending),
		).Scan(ctx, &records)
	})
	if err != nil {
		return nil, err
	}

	claimed := make([]core.DeliveryRecord, 0, len(records))
	for i := range records {
		claimed = append(claimed, deliveryRecordToDomain(&records[i]))
	}
	return claimed, nil
}

// Claim performs the single-record compare-and-swap: pending and
// eligible wins, anything else loses without error.
func (s *DeliveryStore) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("sqlstore: delivery record id is required")
	}
	now = now.UTC()

	res, err := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(core.StatusProcessing)).
		Set("last_attempt_at = ?", now).
		Where("id = ?", id).
		Where("status = ?", string(core.StatusPending)).
		Where("next_eligible_at IS NULL OR next_eligible_at <= ?", now).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// Resolve applies a scheduler decision to a processing record. The
// status guard makes terminal replays no-ops: a record already resolved
// by another path is left untouched.
func (s *DeliveryStore) Resolve(ctx context.Context, id string, decision core.RetryDecision) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("sqlstore: delivery record id is required")
	}
	if !decision.Status.Valid() {
		return fmt.Errorf("sqlstore: invalid resolution status %q", decision.Status)
	}

	res, err := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(decision.Status)).
		Set("attempts = ?", decision.Attempts).
		Set("next_eligible_at = ?", cloneTimePointer(decision.NextEligibleAt)).
		Set("terminal_at = ?", cloneTimePointer(decision.TerminalAt)).
		Set("error_message = ?", decision.ErrorMessage).
		Where("id = ?", id).
		Where("status = ?", string(core.StatusProcessing)).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (s *DeliveryStore) SelectStuck(ctx context.Context, staleAfter time.Duration, now time.Time) ([]core.DeliveryRecord, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	cutoff := now.UTC().Add(-staleAfter)

	var records []deliveryRecord
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.status = ?", string(core.StatusProcessing)).
		Where("?TableAlias.last_attempt_at < ?", cutoff).
		Order("last_attempt_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	stuck := make([]core.DeliveryRecord, 0, len(records))
	for i := range records {
		stuck = append(stuck, deliveryRecordToDomain(&records[i]))
	}
	return stuck, nil
}

// ReclaimStuck returns crashed-worker records to the pending pool with
// immediate eligibility. countAttempt charges the lost attempt against
// the record's budget.
func (s *DeliveryStore) ReclaimStuck(ctx context.Context, staleAfter time.Duration, now time.Time, countAttempt bool) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	now = now.UTC()
	cutoff := now.Add(-staleAfter)

	query := s.db.NewUpdate().
		Model((*deliveryRecord)(nil)).
		Set("status = ?", string(core.StatusPending)).
		Set("next_eligible_at = ?", now).
		Where("status = ?", string(core.StatusProcessing)).
		Where("last_attempt_at < ?", cutoff)
	if countAttempt {
		query = query.Set("attempts = attempts + 1")
	}

	res, err := query.Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// PurgeTerminal deletes sent and failed records older than the cutoff.
func (s *DeliveryStore) PurgeTerminal(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: delivery store is not configured")
	}
	cutoff := now.UTC().Add(-olderThan)

	res, err := s.db.NewDelete().
		Model((*deliveryRecord)(nil)).
		Where("status IN (?)", bun.In([]string{string(core.StatusSent), string(core.StatusFailed)})).
		Where("terminal_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
