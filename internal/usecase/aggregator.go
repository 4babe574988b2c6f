package usecase

import (
	"math"

	"hotelmetrics/internal/domain"
)

// Aggregate reduces one period's raw campaign rows into a summary.
// Identity and provenance fields are filled by the caller.
//
// CTR/CPC sourcing: the platform rounds its reported ratios, so a
// naive recompute from summed clicks/impressions does not reproduce
// what the account actually reports. The account-level insight wins
// when present; otherwise each campaign's own reported ratio is
// click-weighted; a recompute from totals is the last resort.
func Aggregate(rows []domain.CampaignRow, account *domain.AccountInsight) domain.AggregateSummary {
	var s domain.AggregateSummary
	var funnel domain.ConversionFunnel

	for _, row := range rows {
		s.TotalSpend += row.Spend
		s.TotalImpressions += row.Impressions
		s.TotalClicks += row.Clicks
		s.TotalConversions += row.Conversions

		funnel.ClickToCall += row.Funnel.ClickToCall
		funnel.EmailContact += row.Funnel.EmailContact
		funnel.BookingStep1 += row.Funnel.BookingStep1
		funnel.BookingStep2 += row.Funnel.BookingStep2
		funnel.BookingStep3 += row.Funnel.BookingStep3
		funnel.Reservations += row.Funnel.Reservations
		funnel.ReservationValue += row.Funnel.ReservationValue
	}

	s.AverageCTR, s.AverageCPC = averageRatios(rows, account, s.TotalImpressions, s.TotalClicks, s.TotalSpend)

	// Per-campaign funnel shares can be fractional in derived data;
	// the summary level is integral.
	s.ClickToCall = int64(math.Round(funnel.ClickToCall))
	s.EmailContact = int64(math.Round(funnel.EmailContact))
	s.BookingStep1 = int64(math.Round(funnel.BookingStep1))
	s.BookingStep2 = int64(math.Round(funnel.BookingStep2))
	s.BookingStep3 = int64(math.Round(funnel.BookingStep3))
	s.Reservations = int64(math.Round(funnel.Reservations))
	s.ReservationValue = funnel.ReservationValue

	if s.TotalSpend > 0 {
		s.ROAS = s.ReservationValue / s.TotalSpend
	}
	if s.Reservations > 0 {
		s.CostPerReservation = s.TotalSpend / float64(s.Reservations)
	}

	s.CampaignData = rows
	return s
}

// averageRatios resolves the summary CTR/CPC by preference order:
// account-level reported ratio, click-weighted campaign ratios, then
// recompute from totals.
func averageRatios(rows []domain.CampaignRow, account *domain.AccountInsight, impressions, clicks int64, spend float64) (ctr, cpc float64) {
	if account != nil {
		return account.CTR, account.CPC
	}

	var ctrWeighted, cpcWeighted float64
	var ctrClicks, cpcClicks int64
	for _, row := range rows {
		if row.Clicks <= 0 {
			continue
		}
		if row.CTR > 0 {
			ctrWeighted += row.CTR * float64(row.Clicks)
			ctrClicks += row.Clicks
		}
		if row.CPC > 0 {
			cpcWeighted += row.CPC * float64(row.Clicks)
			cpcClicks += row.Clicks
		}
	}

	if ctrClicks > 0 {
		ctr = ctrWeighted / float64(ctrClicks)
	} else if impressions > 0 {
		ctr = float64(clicks) / float64(impressions) * 100
	}

	if cpcClicks > 0 {
		cpc = cpcWeighted / float64(cpcClicks)
	} else if clicks > 0 {
		cpc = spend / float64(clicks)
	}

	return ctr, cpc
}
