package usecase

import (
	"time"

	"hotelmetrics/internal/domain"
)

// FreshnessDecision is the policy's verdict on one cache entry.
type FreshnessDecision string

const (
	// DecisionFresh means the entry is usable as-is.
	DecisionFresh FreshnessDecision = "fresh"
	// DecisionRebuild means the entry is stale, missing, or failed the
	// good-data predicate and must be refetched.
	DecisionRebuild FreshnessDecision = "rebuild"
	// DecisionPermanent means a historical entry with good data:
	// valid indefinitely, only a force-refresh invalidates it.
	DecisionPermanent FreshnessDecision = "permanent"
)

// FreshnessPolicy decides whether a cached aggregate can be served or
// must be rebuilt, from the period's classification and the entry's
// age. Current periods age out on a TTL; historical periods are
// permanent once the good-data predicate holds, so one transient API
// failure can never poison history.
type FreshnessPolicy struct {
	defaultTTL   time.Duration
	platformTTLs map[domain.Platform]time.Duration
}

func NewFreshnessPolicy(defaultTTL time.Duration, platformTTLs map[domain.Platform]time.Duration) *FreshnessPolicy {
	if defaultTTL <= 0 {
		defaultTTL = 3 * time.Hour
	}
	return &FreshnessPolicy{defaultTTL: defaultTTL, platformTTLs: platformTTLs}
}

// TTL returns the current-period time-to-live for a platform.
func (p *FreshnessPolicy) TTL(platform domain.Platform) time.Duration {
	if ttl, ok := p.platformTTLs[platform]; ok && ttl > 0 {
		return ttl
	}
	return p.defaultTTL
}

// Evaluate decides what to do with entry for a period in the given
// state. A nil entry always rebuilds.
func (p *FreshnessPolicy) Evaluate(entry *domain.CacheEntry, state domain.PeriodState, platform domain.Platform, now time.Time, forceRefresh bool) FreshnessDecision {
	if forceRefresh || entry == nil {
		return DecisionRebuild
	}

	if state == domain.PeriodHistorical {
		if entry.Summary.HasGoodData() {
			return DecisionPermanent
		}
		return DecisionRebuild
	}

	if entry.Age(now) < p.TTL(platform) {
		return DecisionFresh
	}
	return DecisionRebuild
}
