package infrastructure

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "metrics.db"), logger.New("error"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func storedSummary(periodID string) domain.AggregateSummary {
	return domain.AggregateSummary{
		SummaryKey: domain.SummaryKey{
			ClientID:   "hotel-1",
			Platform:   domain.PlatformMeta,
			PeriodType: domain.PeriodWeekly,
			PeriodID:   periodID,
		},
		TotalSpend:       248.5,
		TotalImpressions: 10500,
		TotalClicks:      340,
		TotalConversions: 12,
		AverageCTR:       3.24,
		AverageCPC:       0.73,
		Reservations:     4,
		ReservationValue: 1260,
		ROAS:             5.07,
		CampaignData: []domain.CampaignRow{
			{CampaignID: "c1", CampaignName: "Summer", Spend: 248.5},
		},
		DataSource:  domain.SourceAPIBackfill,
		LastUpdated: time.Date(2024, 3, 12, 9, 30, 0, 0, time.UTC),
	}
}

func TestUpsertGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	summary := storedSummary("2024-03-04")

	if err := store.Upsert(ctx, &summary); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := store.Get(ctx, summary.SummaryKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for stored key")
	}
	if got.TotalSpend != summary.TotalSpend {
		t.Errorf("TotalSpend = %v, want %v", got.TotalSpend, summary.TotalSpend)
	}
	if got.DataSource != domain.SourceAPIBackfill {
		t.Errorf("DataSource = %s, want %s", got.DataSource, domain.SourceAPIBackfill)
	}
	if len(got.CampaignData) != 1 || got.CampaignData[0].CampaignID != "c1" {
		t.Errorf("CampaignData = %+v, want one row c1", got.CampaignData)
	}
	if !got.LastUpdated.Equal(summary.LastUpdated) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, summary.LastUpdated)
	}
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	summary := storedSummary("2024-03-04")

	if err := store.Upsert(ctx, &summary); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	summary.TotalSpend = 300
	summary.DataSource = domain.SourceAPILive
	if err := store.Upsert(ctx, &summary); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	got, err := store.Get(ctx, summary.SummaryKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TotalSpend != 300 {
		t.Errorf("TotalSpend = %v, want 300", got.TotalSpend)
	}
	if got.DataSource != domain.SourceAPILive {
		t.Errorf("DataSource = %s, want %s", got.DataSource, domain.SourceAPILive)
	}

	list, err := store.ListByClient(ctx, "hotel-1", domain.PlatformMeta, domain.PeriodWeekly, 10)
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("rows after double upsert = %d, want 1", len(list))
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Get(context.Background(), domain.SummaryKey{
		ClientID: "nobody", Platform: domain.PlatformMeta,
		PeriodType: domain.PeriodWeekly, PeriodID: "2024-01-01",
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %+v, want nil", got)
	}
}

func TestListByClientNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"2024-02-26", "2024-03-11", "2024-03-04"} {
		summary := storedSummary(id)
		if err := store.Upsert(ctx, &summary); err != nil {
			t.Fatalf("Upsert %s: %v", id, err)
		}
	}

	list, err := store.ListByClient(ctx, "hotel-1", domain.PlatformMeta, domain.PeriodWeekly, 2)
	if err != nil {
		t.Fatalf("ListByClient: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].PeriodID != "2024-03-11" || list[1].PeriodID != "2024-03-04" {
		t.Errorf("order = [%s, %s], want newest first", list[0].PeriodID, list[1].PeriodID)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	store := openTestStore(t)
	cache := NewSummaryCache(store)
	ctx := context.Background()
	summary := storedSummary("2024-03-11")

	if err := cache.Set(ctx, &summary); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entry, err := cache.Get(ctx, summary.SummaryKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry == nil {
		t.Fatal("Get returned nil after Set")
	}
	if entry.Summary.TotalSpend != summary.TotalSpend {
		t.Errorf("cached TotalSpend = %v, want %v", entry.Summary.TotalSpend, summary.TotalSpend)
	}
	if !entry.LastUpdated.Equal(summary.LastUpdated) {
		t.Errorf("cached LastUpdated = %v, want %v", entry.LastUpdated, summary.LastUpdated)
	}

	if err := cache.Delete(ctx, summary.SummaryKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	entry, err = cache.Get(ctx, summary.SummaryKey)
	if err != nil {
		t.Fatalf("Get after Delete: %v", err)
	}
	if entry != nil {
		t.Errorf("entry still present after Delete: %+v", entry)
	}
}

func TestClaimLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := storedSummary("2024-03-04").SummaryKey

	ok, err := store.Acquire(ctx, key, "owner-a", 10*time.Minute)
	if err != nil {
		t.Fatalf("Acquire a: %v", err)
	}
	if !ok {
		t.Fatal("first Acquire refused")
	}

	ok, err = store.Acquire(ctx, key, "owner-b", 10*time.Minute)
	if err != nil {
		t.Fatalf("Acquire b: %v", err)
	}
	if ok {
		t.Error("second Acquire succeeded while claim held")
	}

	if err := store.Release(ctx, key, "owner-a"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	ok, err = store.Acquire(ctx, key, "owner-b", 10*time.Minute)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if !ok {
		t.Error("Acquire refused after release")
	}
}

func TestClaimStaleTakeover(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := storedSummary("2024-03-04").SummaryKey

	if ok, err := store.Acquire(ctx, key, "crashed-owner", 10*time.Minute); err != nil || !ok {
		t.Fatalf("seed Acquire = %v, %v", ok, err)
	}

	// A negative staleAfter puts the cutoff in the future, so the held
	// claim reads as abandoned.
	ok, err := store.Acquire(ctx, key, "owner-b", -2*time.Second)
	if err != nil {
		t.Fatalf("takeover Acquire: %v", err)
	}
	if !ok {
		t.Error("stale claim was not taken over")
	}
}

func TestReleaseIgnoresOtherOwner(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	key := storedSummary("2024-03-04").SummaryKey

	if ok, err := store.Acquire(ctx, key, "owner-a", 10*time.Minute); err != nil || !ok {
		t.Fatalf("Acquire = %v, %v", ok, err)
	}
	if err := store.Release(ctx, key, "owner-b"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	ok, err := store.Acquire(ctx, key, "owner-c", 10*time.Minute)
	if err != nil {
		t.Fatalf("Acquire c: %v", err)
	}
	if ok {
		t.Error("claim vanished after a release by the wrong owner")
	}
}

func TestClientDirectory(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	clients := []domain.Client{
		{ID: "hotel-2", Name: "Hotel Two", Hotel: "Seaside", Active: true,
			Accounts: map[domain.Platform]string{domain.PlatformGoogle: "ga_2"}},
		{ID: "hotel-1", Name: "Hotel One", Hotel: "Alpine", Active: true,
			Accounts: map[domain.Platform]string{domain.PlatformMeta: "act_1", domain.PlatformGoogle: "ga_1"}},
		{ID: "hotel-3", Name: "Hotel Three", Active: false,
			Accounts: map[domain.Platform]string{domain.PlatformMeta: "act_3"}},
	}
	for _, c := range clients {
		if err := store.UpsertClient(ctx, c); err != nil {
			t.Fatalf("UpsertClient %s: %v", c.ID, err)
		}
	}

	active, err := store.ListActiveClients(ctx)
	if err != nil {
		t.Fatalf("ListActiveClients: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active clients = %d, want 2", len(active))
	}
	if active[0].ID != "hotel-1" || active[1].ID != "hotel-2" {
		t.Errorf("order = [%s, %s], want id order", active[0].ID, active[1].ID)
	}
	if active[0].Accounts[domain.PlatformMeta] != "act_1" {
		t.Errorf("meta account = %s, want act_1", active[0].Accounts[domain.PlatformMeta])
	}
	if _, ok := active[1].Accounts[domain.PlatformMeta]; ok {
		t.Error("hotel-2 reports a meta account it does not have")
	}
}
