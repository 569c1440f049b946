package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-delivery/core"
)

const statsCacheKeyPrefix = "go-delivery::stats::v1"

// CachedStatsStore memoizes the windowed aggregates behind the health
// endpoint so dashboard polling does not hammer the table. Stuck and
// stale counts bypass the cache: they exist to catch problems and must
// be fresh.
type CachedStatsStore struct {
	base  core.DeliveryStatsReader
	cache repositorycache.CacheService
}

func NewCachedStatsStore(base core.DeliveryStatsReader, cacheService repositorycache.CacheService) (*CachedStatsStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base delivery stats reader is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: stats cache service is required")
	}
	return &CachedStatsStore{base: base, cache: cacheService}, nil
}

// StatsCacheKey returns the deterministic cache key for a windowed
// aggregate: go-delivery::stats::v1::<query>::<from_unix>::<to_unix>.
// Windows are bucketed to the minute so repeated polls share entries.
func StatsCacheKey(query string, window core.TimeWindow) string {
	from := window.From.UTC().Truncate(time.Minute).Unix()
	to := window.To.UTC().Truncate(time.Minute).Unix()
	return strings.Join([]string{
		statsCacheKeyPrefix,
		strings.TrimSpace(query),
		strconv.FormatInt(from, 10),
		strconv.FormatInt(to, 10),
	}, "::")
}

func (s *CachedStatsStore) AggregateByStatus(ctx context.Context, window core.TimeWindow) ([]core.StatusCount, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	cacheKey := StatsCacheKey("aggregate_by_status", window)
	counts, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]core.StatusCount, error) {
		return s.base.AggregateByStatus(ctx, window)
	})
	if err != nil {
		return nil, err
	}
	return append([]core.StatusCount(nil), counts...), nil
}

func (s *CachedStatsStore) TerminalStats(ctx context.Context, window core.TimeWindow) (core.TerminalStats, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.TerminalStats{}, fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	cacheKey := StatsCacheKey("terminal_stats", window)
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.TerminalStats, error) {
		return s.base.TerminalStats(ctx, window)
	})
}

func (s *CachedStatsStore) CountStuckProcessing(ctx context.Context, staleAfter time.Duration, now time.Time) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	return s.base.CountStuckProcessing(ctx, staleAfter, now)
}

func (s *CachedStatsStore) CountStalePending(ctx context.Context, olderThan time.Duration, now time.Time) (int, error) {
	if s == nil || s.base == nil {
		return 0, fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	return s.base.CountStalePending(ctx, olderThan, now)
}

// Invalidate drops any cached aggregates for the window. Callers use it
// after bulk mutations like purges.
func (s *CachedStatsStore) Invalidate(ctx context.Context, window core.TimeWindow) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached stats store is not configured")
	}
	for _, query := range []string{"aggregate_by_status", "terminal_stats"} {
		if err := s.cache.Delete(ctx, StatsCacheKey(query, window)); err != nil {
			return err
		}
	}
	return nil
}
