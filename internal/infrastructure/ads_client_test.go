package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"
)

var (
	testMetricsOnce sync.Once
	testMetrics     *metrics.Metrics
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *AdsClient {
	t.Helper()
	testMetricsOnce.Do(func() { testMetrics = metrics.New() })
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewAdsClient(domain.PlatformMeta, server.URL, "test-token", 5*time.Second, logger.New("error"), testMetrics)
}

func TestGetCampaignInsights_ParsesResponse(t *testing.T) {
	var gotPath, gotAuth, gotStart, gotEnd string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotStart = r.URL.Query().Get("start_date")
		gotEnd = r.URL.Query().Get("end_date")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{
			"campaigns":[
				{"campaign_id":"c1","campaign_name":"Summer","spend":120.5,"impressions":4000,"clicks":80,"ctr":2.0,"cpc":1.5},
				{"campaign_id":"c2","campaign_name":"Brand","spend":60.25,"impressions":1500,"clicks":30}
			],
			"account":{"spend":180.75,"impressions":5500,"clicks":110,"ctr":2.0,"cpc":1.64}
		}}`))
	})

	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	rows, account, err := client.GetCampaignInsights(context.Background(), "act_1", start, end)
	if err != nil {
		t.Fatalf("GetCampaignInsights: %v", err)
	}

	if gotPath != "/accounts/act_1/insights" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotStart != "2024-03-04" || gotEnd != "2024-03-10" {
		t.Errorf("date range = %s..%s, want 2024-03-04..2024-03-10", gotStart, gotEnd)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].CampaignID != "c1" || rows[0].Spend != 120.5 {
		t.Errorf("first row = %+v", rows[0])
	}
	if account == nil || account.Spend != 180.75 {
		t.Errorf("account = %+v, want spend 180.75", account)
	}
}

func TestGetCampaignInsights_EmptyCampaignList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"campaigns":[],"account":null}}`))
	})

	rows, account, err := client.GetCampaignInsights(context.Background(), "act_1", time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatalf("GetCampaignInsights: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
	if account != nil {
		t.Errorf("account = %+v, want nil", account)
	}
}

func TestGetCampaignInsights_ErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantAuth  bool
		wantLimit bool
	}{
		{"unauthorized", http.StatusUnauthorized, true, false},
		{"forbidden", http.StatusForbidden, true, false},
		{"throttled", http.StatusTooManyRequests, false, true},
		{"server error", http.StatusInternalServerError, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, _, err := client.GetCampaignInsights(context.Background(), "act_1", time.Now().AddDate(0, 0, -7), time.Now())
			if err == nil {
				t.Fatal("expected error")
			}
			if got := domain.IsAuthError(err); got != tt.wantAuth {
				t.Errorf("IsAuthError = %v, want %v", got, tt.wantAuth)
			}
			if got := domain.IsRateLimitError(err); got != tt.wantLimit {
				t.Errorf("IsRateLimitError = %v, want %v", got, tt.wantLimit)
			}
		})
	}
}

func TestGetCampaignInsights_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":`))
	})

	_, _, err := client.GetCampaignInsights(context.Background(), "act_1", time.Now().AddDate(0, 0, -7), time.Now())
	if err == nil {
		t.Fatal("expected error for truncated body")
	}
	if domain.IsAuthError(err) || domain.IsRateLimitError(err) {
		t.Error("parse failure misclassified as auth or rate limit")
	}
}
