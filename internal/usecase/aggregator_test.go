package usecase

import (
	"math"
	"testing"

	"hotelmetrics/internal/domain"
)

func TestAggregate_Totals(t *testing.T) {
	rows := []domain.CampaignRow{
		{CampaignID: "c1", Spend: 50, Impressions: 1000, Clicks: 10, Conversions: 3,
			Funnel: domain.ConversionFunnel{Reservations: 2, ReservationValue: 400, BookingStep1: 5}},
		{CampaignID: "c2", Spend: 30, Impressions: 800, Clicks: 5, Conversions: 1,
			Funnel: domain.ConversionFunnel{Reservations: 1, ReservationValue: 100, BookingStep1: 2}},
	}

	s := Aggregate(rows, nil)

	if s.TotalSpend != 80 {
		t.Errorf("TotalSpend = %v, want 80", s.TotalSpend)
	}
	if s.TotalImpressions != 1800 {
		t.Errorf("TotalImpressions = %v, want 1800", s.TotalImpressions)
	}
	if s.TotalClicks != 15 {
		t.Errorf("TotalClicks = %v, want 15", s.TotalClicks)
	}
	if s.TotalConversions != 4 {
		t.Errorf("TotalConversions = %v, want 4", s.TotalConversions)
	}
	if s.Reservations != 3 {
		t.Errorf("Reservations = %v, want 3", s.Reservations)
	}
	if s.BookingStep1 != 7 {
		t.Errorf("BookingStep1 = %v, want 7", s.BookingStep1)
	}
	if s.ReservationValue != 500 {
		t.Errorf("ReservationValue = %v, want 500", s.ReservationValue)
	}
}

func TestAggregate_SpendInvariant(t *testing.T) {
	rows := []domain.CampaignRow{
		{Spend: 33.33}, {Spend: 66.67}, {Spend: 0.015}, {Spend: 12.905},
	}

	s := Aggregate(rows, nil)

	var sum float64
	for _, row := range s.CampaignData {
		sum += row.Spend
	}
	if math.Abs(sum-s.TotalSpend) >= 0.01 {
		t.Errorf("|sum campaign spend - TotalSpend| = %v, want < 0.01", math.Abs(sum-s.TotalSpend))
	}
}

func TestAggregate_ClickWeightedCTR(t *testing.T) {
	// Three campaigns with reported CTRs 2.0/1.5/1.0 weighted by
	// clicks 10/5/5 average to 1.625, not the recompute from totals.
	rows := []domain.CampaignRow{
		{Spend: 50, Clicks: 10, Impressions: 400, CTR: 2.0, CPC: 5.0},
		{Spend: 30, Clicks: 5, Impressions: 500, CTR: 1.5, CPC: 6.0},
		{Spend: 20, Clicks: 5, Impressions: 600, CTR: 1.0, CPC: 4.0},
	}

	s := Aggregate(rows, nil)

	if math.Abs(s.AverageCTR-1.625) > 1e-9 {
		t.Errorf("AverageCTR = %v, want 1.625", s.AverageCTR)
	}

	naive := float64(20) / float64(1500) * 100
	if math.Abs(s.AverageCTR-naive) < 1e-9 {
		t.Error("AverageCTR equals the naive recompute; want the click-weighted average")
	}

	wantCPC := (5.0*10 + 6.0*5 + 4.0*5) / 20
	if math.Abs(s.AverageCPC-wantCPC) > 1e-9 {
		t.Errorf("AverageCPC = %v, want %v", s.AverageCPC, wantCPC)
	}
}

func TestAggregate_AccountInsightWinsOverRows(t *testing.T) {
	rows := []domain.CampaignRow{
		{Spend: 50, Clicks: 10, Impressions: 400, CTR: 2.0, CPC: 5.0},
	}
	account := &domain.AccountInsight{CTR: 2.37, CPC: 4.81}

	s := Aggregate(rows, account)

	if s.AverageCTR != 2.37 {
		t.Errorf("AverageCTR = %v, want the account-level 2.37", s.AverageCTR)
	}
	if s.AverageCPC != 4.81 {
		t.Errorf("AverageCPC = %v, want the account-level 4.81", s.AverageCPC)
	}
}

func TestAggregate_NaiveFallbackWithoutRatios(t *testing.T) {
	// No per-row ratios at all: recompute from totals is the only
	// option left.
	rows := []domain.CampaignRow{
		{Spend: 100, Clicks: 20, Impressions: 1000},
	}

	s := Aggregate(rows, nil)

	if math.Abs(s.AverageCTR-2.0) > 1e-9 {
		t.Errorf("AverageCTR = %v, want 2.0", s.AverageCTR)
	}
	if math.Abs(s.AverageCPC-5.0) > 1e-9 {
		t.Errorf("AverageCPC = %v, want 5.0", s.AverageCPC)
	}
}

func TestAggregate_DerivedRatios(t *testing.T) {
	rows := []domain.CampaignRow{
		{Spend: 200, Funnel: domain.ConversionFunnel{Reservations: 4, ReservationValue: 1000}},
	}

	s := Aggregate(rows, nil)

	if s.ROAS != 5 {
		t.Errorf("ROAS = %v, want 5", s.ROAS)
	}
	if s.CostPerReservation != 50 {
		t.Errorf("CostPerReservation = %v, want 50", s.CostPerReservation)
	}
}

func TestAggregate_ZeroGuards(t *testing.T) {
	s := Aggregate(nil, nil)

	if s.ROAS != 0 || s.CostPerReservation != 0 || s.AverageCTR != 0 || s.AverageCPC != 0 {
		t.Errorf("zero-input summary has nonzero ratios: %+v", s)
	}
}

func TestAggregate_FunnelRounding(t *testing.T) {
	// Pro-rata shares in derived data can be fractional per campaign;
	// the summary is integral.
	rows := []domain.CampaignRow{
		{Funnel: domain.ConversionFunnel{ClickToCall: 1.4, Reservations: 0.6}},
		{Funnel: domain.ConversionFunnel{ClickToCall: 1.4, Reservations: 0.6}},
	}

	s := Aggregate(rows, nil)

	if s.ClickToCall != 3 {
		t.Errorf("ClickToCall = %v, want 3 (round of 2.8)", s.ClickToCall)
	}
	if s.Reservations != 1 {
		t.Errorf("Reservations = %v, want 1 (round of 1.2)", s.Reservations)
	}
}
