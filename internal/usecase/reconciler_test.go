package usecase

import (
	"testing"

	"hotelmetrics/internal/domain"
)

func auditKey() domain.SummaryKey {
	return domain.SummaryKey{
		ClientID:   "hotel-1",
		Platform:   domain.PlatformMeta,
		PeriodType: domain.PeriodWeekly,
		PeriodID:   "2024-03-04",
	}
}

func metricView(spend float64) *domain.AggregateSummary {
	return &domain.AggregateSummary{TotalSpend: spend}
}

func newTestReconciler() *Reconciler {
	log, m := testDeps()
	return NewReconciler(0.01, log, m)
}

func findRecord(t *testing.T, records []domain.DiscrepancyRecord, metric string, a, b domain.MetricSource) domain.DiscrepancyRecord {
	t.Helper()
	for _, rec := range records {
		if rec.Metric == metric && rec.SourceA == a && rec.SourceB == b {
			return rec
		}
	}
	t.Fatalf("no record for %s between %s and %s", metric, a, b)
	return domain.DiscrepancyRecord{}
}

func TestCompare_WithinToleranceMatches(t *testing.T) {
	r := newTestReconciler()

	// 1000 vs 1005 is a 0.5% difference, under the 1% tolerance.
	audit := r.Compare(auditKey(), metricView(1000), metricView(1005), nil)

	rec := findRecord(t, audit.Records, "spend", domain.SourceReport, domain.SourceDatabase)
	if rec.Severity != domain.SeverityMatch {
		t.Errorf("spend severity = %s, want %s", rec.Severity, domain.SeverityMatch)
	}
	if len(audit.Discrepancies()) != 0 {
		t.Errorf("discrepancies = %d, want 0", len(audit.Discrepancies()))
	}
	if audit.Rating != domain.RatingExcellent {
		t.Errorf("rating = %s, want %s", audit.Rating, domain.RatingExcellent)
	}
}

func TestCompare_ReportDatabaseMismatchIsCritical(t *testing.T) {
	r := newTestReconciler()

	// 1000 vs 1050 is a 4.76% difference on spend only.
	audit := r.Compare(auditKey(), metricView(1000), metricView(1050), nil)

	discrepancies := audit.Discrepancies()
	if len(discrepancies) != 1 {
		t.Fatalf("discrepancies = %d, want 1", len(discrepancies))
	}
	if discrepancies[0].Metric != "spend" {
		t.Errorf("metric = %s, want spend", discrepancies[0].Metric)
	}
	if discrepancies[0].Severity != domain.SeverityCritical {
		t.Errorf("severity = %s, want %s", discrepancies[0].Severity, domain.SeverityCritical)
	}
	if audit.Rating != domain.RatingPoor {
		t.Errorf("rating = %s, want %s", audit.Rating, domain.RatingPoor)
	}
}

func TestCompare_CacheMismatchSeverities(t *testing.T) {
	r := newTestReconciler()

	// Report and database agree; the cache drifted. The report/cache
	// pair reads HIGH and the database/cache cross-check WARNING.
	audit := r.Compare(auditKey(), metricView(1000), metricView(1000), metricView(1100))

	rc := findRecord(t, audit.Records, "spend", domain.SourceReport, domain.SourceCache)
	if rc.Severity != domain.SeverityHigh {
		t.Errorf("report/cache severity = %s, want %s", rc.Severity, domain.SeverityHigh)
	}
	dc := findRecord(t, audit.Records, "spend", domain.SourceDatabase, domain.SourceCache)
	if dc.Severity != domain.SeverityWarning {
		t.Errorf("database/cache severity = %s, want %s", dc.Severity, domain.SeverityWarning)
	}
	if audit.Rating != domain.RatingFair {
		t.Errorf("rating = %s, want %s", audit.Rating, domain.RatingFair)
	}
}

func TestCompare_BothZeroIsMatch(t *testing.T) {
	r := newTestReconciler()

	audit := r.Compare(auditKey(), metricView(0), metricView(0), metricView(0))

	if n := len(audit.Discrepancies()); n != 0 {
		t.Errorf("discrepancies = %d, want 0", n)
	}
	if audit.Rating != domain.RatingExcellent {
		t.Errorf("rating = %s, want %s", audit.Rating, domain.RatingExcellent)
	}
}

func TestCompare_MissingReportEmitsSingleWarning(t *testing.T) {
	r := newTestReconciler()

	audit := r.Compare(auditKey(), nil, metricView(1000), metricView(1000))

	if len(audit.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(audit.Records))
	}
	rec := audit.Records[0]
	if rec.Metric != "source_of_truth" {
		t.Errorf("metric = %s, want source_of_truth", rec.Metric)
	}
	if rec.Severity != domain.SeverityWarning {
		t.Errorf("severity = %s, want %s", rec.Severity, domain.SeverityWarning)
	}
	if audit.Rating != domain.RatingGood {
		t.Errorf("rating = %s, want %s", audit.Rating, domain.RatingGood)
	}
}

func TestCompare_TinyValuesUseUnitFloor(t *testing.T) {
	r := newTestReconciler()

	// 0.004 vs 0.005 would be a 20% relative difference, but the unit
	// floor in the denominator keeps sub-unit noise from alerting.
	audit := r.Compare(auditKey(), metricView(0.004), metricView(0.005), nil)

	rec := findRecord(t, audit.Records, "spend", domain.SourceReport, domain.SourceDatabase)
	if rec.Severity != domain.SeverityMatch {
		t.Errorf("severity = %s, want %s", rec.Severity, domain.SeverityMatch)
	}
}

func TestRelativeDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"both zero", 0, 0, 0},
		{"half percent", 1000, 1005, 5.0 / 1005},
		{"one missing", 0, 100, 1},
		{"sub-unit floor", 0.2, 0.3, 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := relativeDiff(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("relativeDiff(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
