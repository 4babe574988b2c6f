package usecase

import (
	"math"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"
)

// comparedMetrics is the fixed list the reconciler checks on every
// present pair of views, in report order.
var comparedMetrics = []struct {
	name  string
	value func(*domain.AggregateSummary) float64
}{
	{"spend", func(s *domain.AggregateSummary) float64 { return s.TotalSpend }},
	{"impressions", func(s *domain.AggregateSummary) float64 { return float64(s.TotalImpressions) }},
	{"clicks", func(s *domain.AggregateSummary) float64 { return float64(s.TotalClicks) }},
	{"conversions", func(s *domain.AggregateSummary) float64 { return s.TotalConversions }},
	{"ctr", func(s *domain.AggregateSummary) float64 { return s.AverageCTR }},
	{"cpc", func(s *domain.AggregateSummary) float64 { return s.AverageCPC }},
	{"cost_per_reservation", func(s *domain.AggregateSummary) float64 { return s.CostPerReservation }},
	{"click_to_call", func(s *domain.AggregateSummary) float64 { return float64(s.ClickToCall) }},
	{"email_contact", func(s *domain.AggregateSummary) float64 { return float64(s.EmailContact) }},
	{"booking_step_1", func(s *domain.AggregateSummary) float64 { return float64(s.BookingStep1) }},
	{"booking_step_2", func(s *domain.AggregateSummary) float64 { return float64(s.BookingStep2) }},
	{"booking_step_3", func(s *domain.AggregateSummary) float64 { return float64(s.BookingStep3) }},
	{"reservations", func(s *domain.AggregateSummary) float64 { return float64(s.Reservations) }},
	{"reservation_value", func(s *domain.AggregateSummary) float64 { return s.ReservationValue }},
}

// Reconciler compares up to three independently produced views of the
// same client/period and classifies every metric-level difference.
// Mismatches are never fatal: they surface in the audit report only.
type Reconciler struct {
	tolerance float64
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewReconciler(tolerance float64, log *logger.Logger, m *metrics.Metrics) *Reconciler {
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Reconciler{tolerance: tolerance, logger: log, metrics: m}
}

// Compare reconciles the report (source of truth), database, and
// cache views. Any of the three may be nil.
func (r *Reconciler) Compare(key domain.SummaryKey, report, database, cache *domain.AggregateSummary) domain.AuditReport {
	audit := domain.AuditReport{
		ClientID:   key.ClientID,
		Platform:   key.Platform,
		PeriodType: key.PeriodType,
		PeriodID:   key.PeriodID,
	}

	if report == nil {
		audit.Records = append(audit.Records, domain.DiscrepancyRecord{
			Metric:   "source_of_truth",
			SourceA:  domain.SourceReport,
			Severity: domain.SeverityWarning,
		})
		audit.Rating = deriveRating(audit.Records)
		r.record(key, &audit)
		return audit
	}

	if database != nil {
		audit.Records = append(audit.Records, r.comparePair(report, database, domain.SourceReport, domain.SourceDatabase, domain.SeverityCritical)...)
	}
	if cache != nil {
		audit.Records = append(audit.Records, r.comparePair(report, cache, domain.SourceReport, domain.SourceCache, domain.SeverityHigh)...)
	}
	if database != nil && cache != nil {
		audit.Records = append(audit.Records, r.comparePair(database, cache, domain.SourceDatabase, domain.SourceCache, domain.SeverityWarning)...)
	}

	audit.Rating = deriveRating(audit.Records)
	r.record(key, &audit)
	return audit
}

// comparePair checks every metric between two views. Metrics within
// tolerance are recorded as MATCH; offenders get the pair's severity.
func (r *Reconciler) comparePair(a, b *domain.AggregateSummary, srcA, srcB domain.MetricSource, severity domain.Severity) []domain.DiscrepancyRecord {
	records := make([]domain.DiscrepancyRecord, 0, len(comparedMetrics))
	for _, m := range comparedMetrics {
		va, vb := m.value(a), m.value(b)
		diff := relativeDiff(va, vb)

		rec := domain.DiscrepancyRecord{
			Metric:      m.name,
			ValueA:      va,
			ValueB:      vb,
			SourceA:     srcA,
			SourceB:     srcB,
			PercentDiff: diff * 100,
			Severity:    domain.SeverityMatch,
		}
		if diff >= r.tolerance {
			rec.Severity = severity
		}
		records = append(records, rec)
	}
	return records
}

// relativeDiff is |a-b| / max(a, b, 1). The floor of 1 keeps tiny
// absolute differences near zero from reading as huge percentages,
// and both-zero is always a clean match.
func relativeDiff(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	return math.Abs(a-b) / math.Max(math.Max(a, b), 1)
}

// deriveRating rolls severity counts into the reporting-only
// consistency rating.
func deriveRating(records []domain.DiscrepancyRecord) domain.ConsistencyRating {
	var critical, high, warning int
	for _, rec := range records {
		switch rec.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityHigh:
			high++
		case domain.SeverityWarning:
			warning++
		}
	}

	switch {
	case critical > 0:
		return domain.RatingPoor
	case high > 0:
		return domain.RatingFair
	case warning > 0:
		return domain.RatingGood
	default:
		return domain.RatingExcellent
	}
}

func (r *Reconciler) record(key domain.SummaryKey, audit *domain.AuditReport) {
	discrepancies := audit.Discrepancies()
	for _, rec := range discrepancies {
		r.metrics.RecordDiscrepancy(string(key.Platform), string(rec.Severity))
	}
	if len(discrepancies) > 0 {
		r.logger.WithFields(map[string]any{
			"client":        key.ClientID,
			"period":        key.PeriodID,
			"discrepancies": len(discrepancies),
			"rating":        audit.Rating,
		}).Warn("Reconciliation found discrepancies")
	}
}
