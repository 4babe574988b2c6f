package domain

import (
	"context"
	"time"
)

// SummaryStore is the persistence surface for aggregate summaries.
// Writes are upserts keyed by the full SummaryKey tuple.
type SummaryStore interface {
	Upsert(ctx context.Context, summary *AggregateSummary) error
	Get(ctx context.Context, key SummaryKey) (*AggregateSummary, error)
	ListByClient(ctx context.Context, clientID string, platform Platform, periodType PeriodType, limit int) ([]AggregateSummary, error)
}

// CacheStore is the current-period fast path: the same key shape as
// SummaryStore but time-boxed, with LastUpdated consumed by the
// freshness policy. Get returns nil, nil on a miss.
type CacheStore interface {
	Get(ctx context.Context, key SummaryKey) (*CacheEntry, error)
	Set(ctx context.Context, summary *AggregateSummary) error
	Delete(ctx context.Context, key SummaryKey) error
}

// ClaimStore serializes rebuilds of one cache key across processes.
// Acquire returns false when another live claim holds the key.
type ClaimStore interface {
	Acquire(ctx context.Context, key SummaryKey, owner string, staleAfter time.Duration) (bool, error)
	Release(ctx context.Context, key SummaryKey, owner string) error
}

// ClientDirectory lists the hotel clients the batch iterates over.
type ClientDirectory interface {
	ListActiveClients(ctx context.Context) ([]Client, error)
}

// InsightFetcher is the external ads-platform collaborator. An empty
// row slice is a valid "no spend this period" result, not an error;
// failures surface as *FetchError. The account insight may be nil
// when the platform does not return an account-level rollup.
type InsightFetcher interface {
	GetCampaignInsights(ctx context.Context, accountID string, start, end time.Time) ([]CampaignRow, *AccountInsight, error)
}
