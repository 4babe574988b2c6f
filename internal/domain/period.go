package domain

import (
	"time"
)

type PeriodType string

const (
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

type PeriodState string

const (
	PeriodCurrent    PeriodState = "current"
	PeriodHistorical PeriodState = "historical"
)

// Period is a bounded weekly or monthly date range. Weekly periods run
// Monday through Sunday inclusive; monthly periods cover one calendar
// month. ID is the period's first day formatted as YYYY-MM-DD and is
// the natural key component for storage.
type Period struct {
	Type      PeriodType `json:"type"`
	ID        string     `json:"id"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
}

// dateOnly normalizes to midnight UTC so boundary comparisons never
// drift across timezones. Dates are always rebuilt from explicit
// (year, month, day) components.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPeriod(pt PeriodType, start, end time.Time) Period {
	return Period{
		Type:      pt,
		ID:        start.Format("2006-01-02"),
		StartDate: start,
		EndDate:   end,
	}
}

// CurrentPeriod returns the period containing today. For weekly, that
// is the most recent Monday through the following Sunday; for monthly,
// the first through last day of today's calendar month.
func CurrentPeriod(pt PeriodType, today time.Time) Period {
	today = dateOnly(today)

	if pt == PeriodMonthly {
		y, m, _ := today.Date()
		start := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return newPeriod(pt, start, end)
	}

	// Monday offset: Sunday is 6 days past Monday, any other day is
	// weekday-1 days past.
	offset := int(today.Weekday()) - 1
	if today.Weekday() == time.Sunday {
		offset = 6
	}
	start := today.AddDate(0, 0, -offset)
	end := start.AddDate(0, 0, 6)
	return newPeriod(pt, start, end)
}

// PastPeriods walks backward count steps from the most recently
// completed period, most recent first. The in-progress period is
// skipped unless includeCurrent is set, in which case it occupies the
// first slot. Returned ranges are contiguous and never overlap.
func PastPeriods(pt PeriodType, count int, includeCurrent bool, today time.Time) []Period {
	if count <= 0 {
		return nil
	}

	periods := make([]Period, 0, count)
	p := CurrentPeriod(pt, today)
	if includeCurrent {
		periods = append(periods, p)
	}

	for len(periods) < count {
		p = previousPeriod(p)
		periods = append(periods, p)
	}
	return periods
}

func previousPeriod(p Period) Period {
	if p.Type == PeriodMonthly {
		start := p.StartDate.AddDate(0, -1, 0)
		return newPeriod(p.Type, start, start.AddDate(0, 1, -1))
	}
	start := p.StartDate.AddDate(0, 0, -7)
	return newPeriod(p.Type, start, start.AddDate(0, 0, 6))
}

// Classify reports whether a period has fully elapsed. A period is
// historical iff its end date is strictly before today's date; a
// period still in progress is current. This single classification
// drives the freshness policy.
func Classify(p Period, today time.Time) PeriodState {
	if dateOnly(p.EndDate).Before(dateOnly(today)) {
		return PeriodHistorical
	}
	return PeriodCurrent
}
