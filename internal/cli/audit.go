package cli

import (
	"fmt"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/internal/usecase"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Reconcile stored and cached summaries against the live API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAudit()
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}

func runAudit() error {
	d, err := setup()
	if err != nil {
		return err
	}
	defer d.store.Close()

	pt, err := parsePeriodType()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	clients, err := d.store.ListActiveClients(ctx)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}

	auditService := usecase.NewAuditService(d.store, d.cache, d.fetchers, d.reconciler, d.logger)
	periods := domain.PastPeriods(pt, periodsFlag, includeCurrent, time.Now())

	var mismatched int
	for _, client := range clients {
		for _, platform := range []domain.Platform{domain.PlatformMeta, domain.PlatformGoogle} {
			accountID, ok := client.Accounts[platform]
			if !ok {
				continue
			}
			for _, period := range periods {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				key := domain.SummaryKey{
					ClientID:   client.ID,
					Platform:   platform,
					PeriodType: pt,
					PeriodID:   period.ID,
				}
				report, err := auditService.Audit(ctx, accountID, period, key)
				if err != nil {
					// Mismatches never block the batch; only report and
					// move on.
					fmt.Printf("  AUDIT FAILED %s %s %s: %v\n", client.ID, platform, period.ID, err)
					continue
				}

				discrepancies := report.Discrepancies()
				fmt.Printf("%s %s %s: %s (%d discrepancies)\n",
					client.ID, platform, period.ID, report.Rating, len(discrepancies))
				for _, rec := range discrepancies {
					fmt.Printf("  %s %s vs %s: %.2f vs %.2f (%.2f%%) [%s]\n",
						rec.Metric, rec.SourceA, rec.SourceB, rec.ValueA, rec.ValueB, rec.PercentDiff, rec.Severity)
				}
				if len(discrepancies) > 0 {
					mismatched++
				}
			}
		}
	}

	fmt.Printf("Audit completed: %d period(s) with discrepancies\n", mismatched)
	return nil
}
