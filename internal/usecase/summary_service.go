package usecase

import (
	"context"
	"fmt"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"
)

// SummaryService is the dashboard read path. Current-period requests
// go cache-first under the freshness policy; historical requests read
// the summary store directly.
type SummaryService struct {
	store   domain.SummaryStore
	cache   domain.CacheStore
	policy  *FreshnessPolicy
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewSummaryService(
	store domain.SummaryStore,
	cache domain.CacheStore,
	policy *FreshnessPolicy,
	log *logger.Logger,
	m *metrics.Metrics,
) *SummaryService {
	return &SummaryService{
		store:   store,
		cache:   cache,
		policy:  policy,
		logger:  log,
		metrics: m,
	}
}

// GetSummaries returns the most recent summaries for a client and
// platform, newest first.
func (s *SummaryService) GetSummaries(ctx context.Context, clientID string, platform domain.Platform, periodType domain.PeriodType, limit int) ([]domain.AggregateSummary, error) {
	if limit <= 0 {
		limit = 12
	}
	summaries, err := s.store.ListByClient(ctx, clientID, platform, periodType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	return summaries, nil
}

// GetCurrent serves the in-progress period, preferring a fresh cache
// entry over the stored aggregate. A stale entry is treated as a miss
// so the dashboard never sees data older than the TTL without knowing.
func (s *SummaryService) GetCurrent(ctx context.Context, clientID string, platform domain.Platform, periodType domain.PeriodType, key domain.SummaryKey) (*domain.AggregateSummary, error) {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key.String()).Warn("Cache read failed, falling back to store")
	}
	if entry != nil && s.policy.Evaluate(entry, domain.PeriodCurrent, platform, time.Now(), false) == DecisionFresh {
		s.metrics.RecordCacheLookup(string(platform), "hit")
		return &entry.Summary, nil
	}
	s.metrics.RecordCacheLookup(string(platform), "miss")

	summary, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	return summary, nil
}
