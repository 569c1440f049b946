package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-delivery/core"
)

// DeliveryStatsStore answers the aggregate queries behind the health
// monitor. All reads are windowed so a long-lived table stays cheap to
// report on.
type DeliveryStatsStore struct {
	db *bun.DB
}

func NewDeliveryStatsStore(db *bun.DB) (*DeliveryStatsStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &DeliveryStatsStore{db: db}, nil
}

func (s *DeliveryStatsStore) AggregateByStatus(ctx context.Context, window core.TimeWindow) ([]core.StatusCount, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: delivery stats store is not configured")
	}

	var rows []struct {
		Status string `bun:"status"`
		Kind   string `bun:"kind"`
		Count  int    `bun:"count"`
	}
	err := s.db.NewSelect().
		Model((*deliveryRecord)(nil)).
		ColumnExpr("status").
		ColumnExpr("kind").
		ColumnExpr("COUNT(*) AS count").
		Where("created_at >= ?", window.From.UTC()).
		Where("created_at <= ?", window.To.UTC()).
		GroupExpr("status, kind").
		OrderExpr("status ASC, kind ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	counts := make([]core.StatusCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, core.StatusCount{
			Status: core.Status(row.Status),
			Kind:   row.Kind,
			Count:  row.Count,
		})
	}
	return counts, nil
}

func (s *DeliveryStatsStore) TerminalStats(ctx context.Context, window core.TimeWindow) (core.TerminalStats, error) {
	if s == nil || s.db == nil {
		return core.TerminalStats{}, fmt.Errorf("sqlstore: delivery stats store is not configured")
	}

	var row struct {
		Sent          int `bun:"sent"`
		Failed        int `bun:"failed"`
		RecoveredSent int `bun:"recovered_sent"`
	}
	err := s.db.NewSelect().
		Model((*deliveryRecord)(nil)).
		ColumnExpr("COUNT(*) FILTER (WHERE status = ?) AS sent", string(core.StatusSent)).
		ColumnExpr("COUNT(*) FILTER (WHERE status = ?) AS failed", string(core.StatusFailed)).
		ColumnExpr("COUNT(*) FILTER (WHERE status = ? AND attempts > 1) AS recovered_sent", string(core.StatusSent)).
		Where("terminal_at IS NOT NULL").
		Where("terminal_at >= ?", window.From.UTC()).
		Where("terminal_at <= ?", window.To.UTC()).
		Scan(ctx, &row)
	if err != nil {
		return core.TerminalStats{}, err
	}
	return core.TerminalStats{
		Sent:          row.Sent,
		Failed:        row.Failed,
		RecoveredSent: row.RecoveredSent,
	}, nil
}

func (s *DeliveryStatsStore) CountStuckProcessing(ctx context.Context, staleAfter time.Duration, now time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: delivery stats store is not configured")
	}
	cutoff := now.UTC().Add(-staleAfter)
	return s.db.NewSelect().
		Model((*deliveryRecord)(nil)).
		Where("status = ?", string(core.StatusProcessing)).
		Where("last_attempt_at < ?", cutoff).
		Count(ctx)
}

func (s *DeliveryStatsStore) CountStalePending(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: delivery stats store is not configured")
	}
	now = now.UTC()
	cutoff := now.Add(-olderThan)
	return s.db.NewSelect().
		Model((*deliveryRecord)(nil)).
		Where("status = ?", string(core.StatusPending)).
		Where("created_at < ?", cutoff).
		Where("next_eligible_at IS NULL OR next_eligible_at <= ?", now).
		Count(ctx)
}
