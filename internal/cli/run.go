package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/internal/infrastructure"
	"hotelmetrics/internal/usecase"
	"hotelmetrics/pkg/config"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backfill batch over every active client",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBackfill()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// deps bundles the wired components a batch command needs.
type deps struct {
	store        *infrastructure.SQLiteStore
	cache        *infrastructure.SummaryCache
	fetchers     map[domain.Platform]domain.InsightFetcher
	policy       *usecase.FreshnessPolicy
	orchestrator *usecase.BackfillOrchestrator
	reconciler   *usecase.Reconciler
	logger       *logger.Logger
	cfg          *config.Config
}

// setup wires the batch from configuration. Any failure here is fatal:
// there is no point starting a batch without a store or credentials.
func setup() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logging.Level)
	m := metrics.New()

	store, err := infrastructure.Open(cfg.Store.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	log.Component("backfill").WithField("store", cfg.Store.Path).Debug("Store opened")

	fetchers := infrastructure.PlatformFetchers(
		cfg.Ads.MetaAPIURL, cfg.Ads.GoogleAPIURL, cfg.Ads.AccessToken,
		cfg.Ads.RequestTimeout, log, m,
	)
	if len(fetchers) == 0 {
		_ = store.Close()
		return nil, fmt.Errorf("no ads platform configured: set META_API_URL or GOOGLE_API_URL")
	}

	cache := infrastructure.NewSummaryCache(store)
	policy := usecase.NewFreshnessPolicy(cfg.Cache.DefaultTTL, map[domain.Platform]time.Duration{
		domain.PlatformMeta:   cfg.Cache.MetaTTL,
		domain.PlatformGoogle: cfg.Cache.GoogleTTL,
	})

	return &deps{
		store:    store,
		cache:    cache,
		fetchers: fetchers,
		policy:   policy,
		orchestrator: usecase.NewBackfillOrchestrator(
			store, cache, store, store, fetchers, policy, log, m,
			cfg.Backfill.FetchesPerSecond, cfg.Backfill.MaxRetries, cfg.Backfill.RetryBackoff,
		),
		reconciler: usecase.NewReconciler(cfg.Cache.Tolerance, log, m),
		logger:     log,
		cfg:        cfg,
	}, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM so a
// long batch can be stopped cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func parsePeriodType() (domain.PeriodType, error) {
	pt := domain.PeriodType(periodTypeFlag)
	if pt != domain.PeriodWeekly && pt != domain.PeriodMonthly {
		return "", fmt.Errorf("invalid period type %q: must be weekly or monthly", periodTypeFlag)
	}
	return pt, nil
}

func runBackfill() error {
	d, err := setup()
	if err != nil {
		return err
	}
	defer d.store.Close()

	pt, err := parsePeriodType()
	if err != nil {
		return err
	}

	periods := periodsFlag
	if periods <= 0 {
		periods = d.cfg.Backfill.DefaultPeriods
	}

	ctx, cancel := signalContext()
	defer cancel()

	report, err := d.orchestrator.Run(ctx, usecase.BackfillOptions{
		PeriodType:     pt,
		Periods:        periods,
		IncludeCurrent: includeCurrent,
		DryRun:         dryRun,
		SkipExisting:   skipExisting,
		ForceRefresh:   forceRefresh,
	})
	if err != nil {
		return err
	}

	// Final human-readable summary. Per-period failures do not change
	// the exit code: the batch completed and is safe to re-run.
	fmt.Printf("Backfill %s: %d stored, %d skipped, %d failed (%s)\n",
		report.RunID, report.Stored, report.Skipped, report.Failed, report.Duration.Round(time.Millisecond))
	for _, f := range report.Failures {
		fmt.Printf("  FAILED %s %s %s: %s\n", f.ClientID, f.Platform, f.PeriodID, f.Reason)
	}
	return nil
}
