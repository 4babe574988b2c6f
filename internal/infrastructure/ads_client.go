package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"
	"hotelmetrics/pkg/metrics"

	"golang.org/x/time/rate"
)

// insightsResponse is the wire shape of the ads platform's campaign
// insights endpoint.
type insightsResponse struct {
	Data struct {
		Campaigns []domain.CampaignRow   `json:"campaigns"`
		Account   *domain.AccountInsight `json:"account"`
	} `json:"data"`
}

// AdsClient implements domain.InsightFetcher against one ads
// platform's reporting API.
type AdsClient struct {
	client      *http.Client
	baseURL     string
	accessToken string
	platform    domain.Platform
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
}

// NewAdsClient creates a client for one platform's insights API.
func NewAdsClient(platform domain.Platform, baseURL, accessToken string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *AdsClient {
	return &AdsClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:     baseURL,
		accessToken: accessToken,
		platform:    platform,
		logger:      log,
		metrics:     m,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 5),
	}
}

// GetCampaignInsights fetches raw per-campaign rows plus the
// account-level rollup for a date range. An empty campaign list is a
// valid no-spend result.
func (c *AdsClient) GetCampaignInsights(ctx context.Context, accountID string, start, end time.Time) ([]domain.CampaignRow, *domain.AccountInsight, error) {
	started := time.Now()
	label := string(c.platform)

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordFetchFailure(label, "rate_limit")
		return nil, nil, &domain.FetchError{Kind: domain.FetchRateLimit, AccountID: accountID, Err: err}
	}

	endpoint := fmt.Sprintf("%s/accounts/%s/insights", c.baseURL, url.PathEscape(accountID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.metrics.RecordFetchFailure(label, "request_creation")
		return nil, nil, &domain.FetchError{Kind: domain.FetchTransport, AccountID: accountID, Err: err}
	}

	q := req.URL.Query()
	q.Set("start_date", start.Format("2006-01-02"))
	q.Set("end_date", end.Format("2006-01-02"))
	q.Set("time_increment", "all_days")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordFetchFailure(label, "network_error")
		return nil, nil, &domain.FetchError{Kind: domain.FetchTransport, AccountID: accountID, Err: err}
	}
	defer resp.Body.Close()

	duration := time.Since(started)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.metrics.RecordFetchCall(label, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, nil, &domain.FetchError{Kind: domain.FetchAuth, AccountID: accountID,
			Err: fmt.Errorf("insights API returned status %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.metrics.RecordFetchCall(label, "error_429", duration)
		return nil, nil, &domain.FetchError{Kind: domain.FetchRateLimit, AccountID: accountID,
			Err: fmt.Errorf("insights API returned status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		c.metrics.RecordFetchCall(label, fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return nil, nil, &domain.FetchError{Kind: domain.FetchTransport, AccountID: accountID,
			Err: fmt.Errorf("insights API returned status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordFetchFailure(label, "read_body")
		return nil, nil, &domain.FetchError{Kind: domain.FetchTransport, AccountID: accountID, Err: err}
	}

	var parsed insightsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.metrics.RecordFetchFailure(label, "json_parse")
		return nil, nil, &domain.FetchError{Kind: domain.FetchTransport, AccountID: accountID, Err: err}
	}

	c.metrics.RecordFetchCall(label, "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"platform": c.platform,
		"account":  accountID,
		"start":    start.Format("2006-01-02"),
		"end":      end.Format("2006-01-02"),
		"duration": duration,
		"rows":     len(parsed.Data.Campaigns),
	}).Info("Successfully fetched campaign insights")

	return parsed.Data.Campaigns, parsed.Data.Account, nil
}

// PlatformFetchers builds one fetcher per configured platform.
func PlatformFetchers(metaURL, googleURL, token string, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) map[domain.Platform]domain.InsightFetcher {
	fetchers := make(map[domain.Platform]domain.InsightFetcher)
	if metaURL != "" {
		fetchers[domain.PlatformMeta] = NewAdsClient(domain.PlatformMeta, metaURL, token, timeout, log, m)
	}
	if googleURL != "" {
		fetchers[domain.PlatformGoogle] = NewAdsClient(domain.PlatformGoogle, googleURL, token, timeout, log, m)
	}
	return fetchers
}
