package usecase

import (
	"context"
	"fmt"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// PeriodStatus is the terminal state of one (client, platform, period)
// in a batch run.
type PeriodStatus string

const (
	StatusSkipped PeriodStatus = "SKIPPED"
	StatusStored  PeriodStatus = "STORED"
	StatusFailed  PeriodStatus = "FAILED"
)

// PeriodFailure records one failed period for the batch summary.
type PeriodFailure struct {
	ClientID string          `json:"client_id"`
	Platform domain.Platform `json:"platform"`
	PeriodID string          `json:"period_id"`
	Reason   string          `json:"reason"`
}

// BatchReport is the final accounting of a backfill run. A batch that
// produced failures still completed; only setup errors are fatal.
type BatchReport struct {
	RunID    string          `json:"run_id"`
	DryRun   bool            `json:"dry_run"`
	Stored   int             `json:"stored"`
	Skipped  int             `json:"skipped"`
	Failed   int             `json:"failed"`
	Failures []PeriodFailure `json:"failures"`
	Duration time.Duration   `json:"duration"`
}

// BackfillOptions controls one batch run.
type BackfillOptions struct {
	PeriodType     domain.PeriodType
	Periods        int  // how many historical periods to walk
	IncludeCurrent bool // rebuild the in-progress period too
	DryRun         bool // classify and log without writing
	SkipExisting   bool // honor the good-data predicate on historical entries
	ForceRefresh   bool // rebuild even good historical entries
}

// BackfillOrchestrator walks periods per client, consults the cache
// and freshness policy, fetches and aggregates on misses, and upserts
// results. Clients are processed in directory order and periods most
// recent first; one failure never aborts the batch.
type BackfillOrchestrator struct {
	store     domain.SummaryStore
	cache     domain.CacheStore
	claims    domain.ClaimStore
	clients   domain.ClientDirectory
	fetchers  map[domain.Platform]domain.InsightFetcher
	policy    *FreshnessPolicy
	logger    *logger.Logger
	metrics   *metrics.Metrics
	throttle  *rate.Limiter
	flight    singleflight.Group
	retries   int
	backoff   time.Duration
	claimTTL  time.Duration
	now       func() time.Time
}

func NewBackfillOrchestrator(
	store domain.SummaryStore,
	cache domain.CacheStore,
	claims domain.ClaimStore,
	clients domain.ClientDirectory,
	fetchers map[domain.Platform]domain.InsightFetcher,
	policy *FreshnessPolicy,
	log *logger.Logger,
	m *metrics.Metrics,
	fetchesPerSecond float64,
	retries int,
	backoff time.Duration,
) *BackfillOrchestrator {
	if fetchesPerSecond <= 0 {
		fetchesPerSecond = 5
	}
	return &BackfillOrchestrator{
		store:    store,
		cache:    cache,
		claims:   claims,
		clients:  clients,
		fetchers: fetchers,
		policy:   policy,
		logger:   log,
		metrics:  m,
		throttle: rate.NewLimiter(rate.Limit(fetchesPerSecond), 1),
		retries:  retries,
		backoff:  backoff,
		claimTTL: 10 * time.Minute,
		now:      time.Now,
	}
}

// Run executes one batch over every active client. Only a failure to
// obtain the client list escapes as an error; everything else is
// absorbed into the report.
func (o *BackfillOrchestrator) Run(ctx context.Context, opts BackfillOptions) (*BatchReport, error) {
	start := o.now()
	report := &BatchReport{RunID: uuid.New().String(), DryRun: opts.DryRun}

	log := o.logger.WithFields(map[string]any{
		"run_id":      report.RunID,
		"period_type": opts.PeriodType,
		"periods":     opts.Periods,
		"dry_run":     opts.DryRun,
	})
	log.Info("Starting backfill batch")

	clients, err := o.clients.ListActiveClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	periods := domain.PastPeriods(opts.PeriodType, opts.Periods, opts.IncludeCurrent, o.now())

	// Clients run in directory order, platforms in a fixed order, so a
	// batch is reproducible end to end.
	for _, client := range clients {
		for _, platform := range []domain.Platform{domain.PlatformMeta, domain.PlatformGoogle} {
			accountID, ok := client.Accounts[platform]
			if !ok {
				continue
			}
			o.runClientPlatform(ctx, client, platform, accountID, periods, opts, report)
		}
	}

	report.Duration = o.now().Sub(start)
	report.Failed = len(report.Failures)

	log.WithFields(map[string]any{
		"stored":   report.Stored,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
		"duration": report.Duration,
	}).Info("Backfill batch completed")

	o.metrics.RecordBackfillRun(statusLabel(report), report.Duration)
	return report, nil
}

func (o *BackfillOrchestrator) runClientPlatform(ctx context.Context, client domain.Client, platform domain.Platform, accountID string, periods []domain.Period, opts BackfillOptions, report *BatchReport) {
	log := o.logger.WithFields(map[string]any{
		"client":   client.ID,
		"platform": platform,
	})

	for _, period := range periods {
		if ctx.Err() != nil {
			report.Failures = append(report.Failures, PeriodFailure{
				ClientID: client.ID, Platform: platform, PeriodID: period.ID,
				Reason: "batch cancelled",
			})
			return
		}

		status, err := o.processPeriod(ctx, client, platform, accountID, period, opts)
		switch status {
		case StatusStored:
			report.Stored++
		case StatusSkipped:
			report.Skipped++
		case StatusFailed:
			report.Failures = append(report.Failures, PeriodFailure{
				ClientID: client.ID, Platform: platform, PeriodID: period.ID,
				Reason: err.Error(),
			})
			log.WithError(err).WithField("period", period.ID).Warn("Period failed")

			// Auth failures are fatal for this client: the token will
			// not recover mid-batch, so skip its remaining periods.
			if domain.IsAuthError(err) {
				log.Warn("Auth failure, skipping remaining periods for client")
				return
			}
		}
		o.metrics.RecordBackfillPeriod(string(status))
	}
}

// processPeriod drives the PENDING -> (SKIPPED | FETCHING -> (STORED |
// FAILED)) state machine for one key.
func (o *BackfillOrchestrator) processPeriod(ctx context.Context, client domain.Client, platform domain.Platform, accountID string, period domain.Period, opts BackfillOptions) (PeriodStatus, error) {
	key := domain.SummaryKey{
		ClientID:   client.ID,
		Platform:   platform,
		PeriodType: period.Type,
		PeriodID:   period.ID,
	}
	state := domain.Classify(period, o.now())
	log := o.logger.WithFields(map[string]any{
		"client":   client.ID,
		"platform": platform,
		"period":   period.ID,
		"state":    state,
	})

	if opts.SkipExisting || !opts.ForceRefresh {
		entry, err := o.lookup(ctx, key, state)
		if err != nil {
			log.WithError(err).Warn("Cache lookup failed, treating as miss")
			o.metrics.RecordCacheLookup(string(platform), "error")
		}
		decision := o.policy.Evaluate(entry, state, platform, o.now(), opts.ForceRefresh)
		if decision == DecisionFresh || decision == DecisionPermanent {
			log.WithField("decision", decision).Debug("Skipping period, entry still valid")
			o.metrics.RecordCacheLookup(string(platform), "hit")
			return StatusSkipped, nil
		}
		o.metrics.RecordCacheLookup(string(platform), "miss")
	}

	if opts.DryRun {
		log.Info("Dry run: period would be rebuilt")
		return StatusSkipped, nil
	}

	fetcher, ok := o.fetchers[platform]
	if !ok {
		return StatusFailed, fmt.Errorf("no fetcher configured for platform %s", platform)
	}

	// Collapse concurrent rebuilds of the same key into one fetch.
	_, err, _ := o.flight.Do(key.String(), func() (any, error) {
		return nil, o.rebuild(ctx, fetcher, key, accountID, period, state)
	})
	if err != nil {
		return StatusFailed, err
	}
	return StatusStored, nil
}

// lookup reads the view of the key that the freshness policy will
// judge: the cache table for current periods, the summary store for
// historical ones.
func (o *BackfillOrchestrator) lookup(ctx context.Context, key domain.SummaryKey, state domain.PeriodState) (*domain.CacheEntry, error) {
	if state == domain.PeriodCurrent {
		return o.cache.Get(ctx, key)
	}
	summary, err := o.store.Get(ctx, key)
	if err != nil || summary == nil {
		return nil, err
	}
	return &domain.CacheEntry{Summary: *summary, LastUpdated: summary.LastUpdated}, nil
}

// rebuild fetches, aggregates, and upserts one period under a
// cross-process claim.
func (o *BackfillOrchestrator) rebuild(ctx context.Context, fetcher domain.InsightFetcher, key domain.SummaryKey, accountID string, period domain.Period, state domain.PeriodState) error {
	owner := uuid.New().String()
	acquired, err := o.claims.Acquire(ctx, key, owner, o.claimTTL)
	if err != nil {
		return &domain.PersistenceError{Op: "claim", Key: key.String(), Err: err}
	}
	if !acquired {
		// Another process holds the rebuild; its result will land in
		// the same row, so there is nothing left to do here.
		o.logger.WithField("key", key.String()).Debug("Rebuild already claimed elsewhere")
		return nil
	}
	defer func() {
		if err := o.claims.Release(context.WithoutCancel(ctx), key, owner); err != nil {
			o.logger.WithError(err).WithField("key", key.String()).Warn("Failed to release claim")
		}
	}()

	rows, account, err := o.fetchWithRetry(ctx, fetcher, accountID, period)
	if err != nil {
		return err
	}

	summary := Aggregate(rows, account)
	summary.SummaryKey = key
	summary.LastUpdated = o.now()
	summary.DataSource = domain.SourceAPIBackfill
	if len(rows) == 0 {
		// No spend this period is a valid result; store the zero
		// summary with its own provenance tag so later runs can tell
		// it apart from a failed fetch.
		summary.DataSource = domain.SourceAPIEmpty
	}

	if err := o.store.Upsert(ctx, &summary); err != nil {
		return &domain.PersistenceError{Op: "upsert", Key: key.String(), Err: err}
	}
	if state == domain.PeriodCurrent {
		if err := o.cache.Set(ctx, &summary); err != nil {
			return &domain.PersistenceError{Op: "cache set", Key: key.String(), Err: err}
		}
	}
	return nil
}

// fetchWithRetry calls the ads platform under the batch throttle,
// retrying rate-limit rejections with exponential backoff. Other
// failures surface immediately.
func (o *BackfillOrchestrator) fetchWithRetry(ctx context.Context, fetcher domain.InsightFetcher, accountID string, period domain.Period) ([]domain.CampaignRow, *domain.AccountInsight, error) {
	var lastErr error
	for attempt := 0; attempt <= o.retries; attempt++ {
		if attempt > 0 {
			wait := o.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}

		if err := o.throttle.Wait(ctx); err != nil {
			return nil, nil, err
		}

		rows, account, err := fetcher.GetCampaignInsights(ctx, accountID, period.StartDate, period.EndDate)
		if err == nil {
			return rows, account, nil
		}
		lastErr = err
		if !domain.IsRateLimitError(err) {
			return nil, nil, err
		}
		o.metrics.RecordFetchRetry(accountID)
	}
	return nil, nil, lastErr
}

func statusLabel(r *BatchReport) string {
	if r.Failed > 0 {
		return "partial"
	}
	return "success"
}
