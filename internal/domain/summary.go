package domain

import (
	"fmt"
	"time"
)

// DataSource tags the provenance of a stored summary.
type DataSource string

const (
	SourceAPILive     DataSource = "api_live"
	SourceAPIBackfill DataSource = "api_backfill"
	SourceAPIEmpty    DataSource = "api_backfill_empty"
	SourceSimulation  DataSource = "historical_simulation"
)

// SummaryKey identifies one aggregate: one client, one platform, one
// period. Upserts and cache lookups are always on the full tuple.
type SummaryKey struct {
	ClientID   string     `json:"client_id"`
	Platform   Platform   `json:"platform"`
	PeriodType PeriodType `json:"period_type"`
	PeriodID   string     `json:"period_id"`
}

func (k SummaryKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.ClientID, k.Platform, k.PeriodType, k.PeriodID)
}

// AggregateSummary is the unit of storage and comparison: totals,
// derived ratios, the conversion funnel, and the full per-campaign
// breakdown for one client/platform/period.
//
// Invariant: the sum of per-campaign spend equals TotalSpend within
// one cent, whichever component produced the summary.
type AggregateSummary struct {
	SummaryKey

	TotalSpend       float64 `json:"total_spend"`
	TotalImpressions int64   `json:"total_impressions"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalConversions float64 `json:"total_conversions"`

	// AverageCTR and AverageCPC prefer the platform's own reported
	// ratios over a recompute from the summed totals.
	AverageCTR float64 `json:"average_ctr"`
	AverageCPC float64 `json:"average_cpc"`

	ClickToCall      int64   `json:"click_to_call"`
	EmailContact     int64   `json:"email_contact"`
	BookingStep1     int64   `json:"booking_step_1"`
	BookingStep2     int64   `json:"booking_step_2"`
	BookingStep3     int64   `json:"booking_step_3"`
	Reservations     int64   `json:"reservations"`
	ReservationValue float64 `json:"reservation_value"`

	ROAS               float64 `json:"roas"`
	CostPerReservation float64 `json:"cost_per_reservation"`

	CampaignData []CampaignRow `json:"campaign_data"`

	DataSource  DataSource `json:"data_source"`
	LastUpdated time.Time  `json:"last_updated"`
}

// HasGoodData reports whether a stored summary represents a real
// fetch rather than an empty or zeroed result left behind by an
// earlier API failure. Historical entries are permanent only once
// this holds.
func (s *AggregateSummary) HasGoodData() bool {
	return len(s.CampaignData) > 0 && (s.TotalSpend > 0 || s.TotalImpressions > 0)
}

// CacheEntry wraps a summary on the current-period fast path.
// LastUpdated is what the freshness policy ages against.
type CacheEntry struct {
	Summary     AggregateSummary `json:"summary"`
	LastUpdated time.Time        `json:"last_updated"`
}

// Age returns how long ago the entry was written.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.LastUpdated)
}
