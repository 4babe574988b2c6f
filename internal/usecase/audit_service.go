package usecase

import (
	"context"
	"fmt"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
)

// AuditService produces the authoritative view for a period by
// fetching live from the ads platform, then reconciles it against the
// stored and cached aggregates.
type AuditService struct {
	store      domain.SummaryStore
	cache      domain.CacheStore
	fetchers   map[domain.Platform]domain.InsightFetcher
	reconciler *Reconciler
	logger     *logger.Logger
}

func NewAuditService(store domain.SummaryStore, cache domain.CacheStore, fetchers map[domain.Platform]domain.InsightFetcher, reconciler *Reconciler, log *logger.Logger) *AuditService {
	return &AuditService{
		store:      store,
		cache:      cache,
		fetchers:   fetchers,
		reconciler: reconciler,
		logger:     log,
	}
}

// Audit reconciles one client/platform/period. The database and cache
// views are read best-effort; either may be absent without failing the
// audit. A failed live fetch leaves the report view absent, which the
// reconciler surfaces as a missing-source-of-truth warning.
func (a *AuditService) Audit(ctx context.Context, accountID string, period domain.Period, key domain.SummaryKey) (domain.AuditReport, error) {
	var report *domain.AggregateSummary

	fetcher, ok := a.fetchers[key.Platform]
	if !ok {
		return domain.AuditReport{}, fmt.Errorf("no fetcher configured for platform %s", key.Platform)
	}

	rows, account, err := fetcher.GetCampaignInsights(ctx, accountID, period.StartDate, period.EndDate)
	if err != nil {
		a.logger.WithError(err).WithField("key", key.String()).Warn("Live fetch failed during audit")
		if domain.IsAuthError(err) {
			return domain.AuditReport{}, fmt.Errorf("audit fetch failed: %w", err)
		}
	} else {
		live := Aggregate(rows, account)
		live.SummaryKey = key
		report = &live
	}

	database, err := a.store.Get(ctx, key)
	if err != nil {
		a.logger.WithError(err).WithField("key", key.String()).Warn("Store read failed during audit")
	}

	var cached *domain.AggregateSummary
	entry, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.WithError(err).WithField("key", key.String()).Warn("Cache read failed during audit")
	} else if entry != nil {
		cached = &entry.Summary
	}

	return a.reconciler.Compare(key, report, database, cached), nil
}
