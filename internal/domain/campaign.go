package domain

// ConversionFunnel holds the named conversion counters a platform
// reports per campaign: sequential booking-intent signals from first
// contact through completed reservations.
type ConversionFunnel struct {
	ClickToCall      float64 `json:"click_to_call"`
	EmailContact     float64 `json:"email_contact"`
	BookingStep1     float64 `json:"booking_step_1"`
	BookingStep2     float64 `json:"booking_step_2"`
	BookingStep3     float64 `json:"booking_step_3"`
	Reservations     float64 `json:"reservations"`
	ReservationValue float64 `json:"reservation_value"`
}

// CampaignRow is one campaign's raw metrics for a period as returned
// by the ads platform. CTR and CPC carry the platform's own reported
// ratios, which do not reconstruct losslessly from summed totals.
type CampaignRow struct {
	CampaignID   string           `json:"campaign_id"`
	CampaignName string           `json:"campaign_name"`
	Spend        float64          `json:"spend"`
	Impressions  int64            `json:"impressions"`
	Clicks       int64            `json:"clicks"`
	CTR          float64          `json:"ctr"`
	CPC          float64          `json:"cpc"`
	Conversions  float64          `json:"conversions"`
	Funnel       ConversionFunnel `json:"funnel"`
}

// AccountInsight is the platform's account-level rollup for the same
// date range. When present, its reported CTR/CPC take precedence over
// anything recomputed from campaign rows.
type AccountInsight struct {
	AccountID   string  `json:"account_id"`
	Spend       float64 `json:"spend"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
}

// Client is one hotel account in the directory, with the per-platform
// ad account identifiers the backfill iterates over.
type Client struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Hotel    string              `json:"hotel"`
	Accounts map[Platform]string `json:"accounts"`
	Active   bool                `json:"active"`
}

type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformGoogle Platform = "google"
)
