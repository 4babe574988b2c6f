package domain

// MetricSource names one of the independently produced views of a
// period that the reconciler cross-checks.
type MetricSource string

const (
	SourceReport   MetricSource = "report"
	SourceDatabase MetricSource = "database"
	SourceCache    MetricSource = "cache"
)

type Severity string

const (
	SeverityMatch    Severity = "MATCH"
	SeverityWarning  Severity = "WARNING"
	SeverityHigh     Severity = "DISCREPANCY-HIGH"
	SeverityCritical Severity = "DISCREPANCY-CRITICAL"
)

// DiscrepancyRecord is one metric-level finding from a reconciliation
// pass. Transient: emitted in audit reports, never persisted.
type DiscrepancyRecord struct {
	Metric      string       `json:"metric"`
	ValueA      float64      `json:"value_a"`
	ValueB      float64      `json:"value_b"`
	SourceA     MetricSource `json:"source_a"`
	SourceB     MetricSource `json:"source_b"`
	PercentDiff float64      `json:"percent_diff"`
	Severity    Severity     `json:"severity"`
}

// ConsistencyRating is a reporting-only rollup of a reconciliation
// pass; it never drives control flow.
type ConsistencyRating string

const (
	RatingExcellent ConsistencyRating = "EXCELLENT"
	RatingGood      ConsistencyRating = "GOOD"
	RatingFair      ConsistencyRating = "FAIR"
	RatingPoor      ConsistencyRating = "POOR"
)

// AuditReport is the full output of reconciling one client/period.
type AuditReport struct {
	ClientID   string              `json:"client_id"`
	Platform   Platform            `json:"platform"`
	PeriodType PeriodType          `json:"period_type"`
	PeriodID   string              `json:"period_id"`
	Records    []DiscrepancyRecord `json:"records"`
	Rating     ConsistencyRating   `json:"rating"`
}

// Discrepancies returns the records that are not clean matches.
func (r *AuditReport) Discrepancies() []DiscrepancyRecord {
	var out []DiscrepancyRecord
	for _, rec := range r.Records {
		if rec.Severity != SeverityMatch {
			out = append(out, rec)
		}
	}
	return out
}
