// Package infrastructure provides the SQLite persistence layer and the
// ads platform HTTP client.
package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hotelmetrics/internal/domain"
	"hotelmetrics/pkg/logger"

	_ "modernc.org/sqlite" // register sqlite driver
)

// SQLiteStore backs the summary store, the current-period cache, the
// rebuild claims, and the client directory with one SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open opens or creates the database at the given path.
func Open(dbPath string, log *logger.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, logger: log}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert stores a summary, replacing any previous row for the same
// key. The whole write happens in one transaction so readers never
// see a half-written summary.
func (s *SQLiteStore) Upsert(ctx context.Context, summary *domain.AggregateSummary) error {
	payload, err := json.Marshal(summary.CampaignData)
	if err != nil {
		return fmt.Errorf("marshaling campaign breakdown: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO campaign_summaries
		(client_id, platform, period_type, period_id,
		 total_spend, total_impressions, total_clicks, total_conversions,
		 average_ctr, average_cpc,
		 click_to_call, email_contact, booking_step_1, booking_step_2, booking_step_3,
		 reservations, reservation_value, roas, cost_per_reservation,
		 campaign_data, data_source, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id, platform, period_type, period_id) DO UPDATE SET
		 total_spend=excluded.total_spend,
		 total_impressions=excluded.total_impressions,
		 total_clicks=excluded.total_clicks,
		 total_conversions=excluded.total_conversions,
		 average_ctr=excluded.average_ctr,
		 average_cpc=excluded.average_cpc,
		 click_to_call=excluded.click_to_call,
		 email_contact=excluded.email_contact,
		 booking_step_1=excluded.booking_step_1,
		 booking_step_2=excluded.booking_step_2,
		 booking_step_3=excluded.booking_step_3,
		 reservations=excluded.reservations,
		 reservation_value=excluded.reservation_value,
		 roas=excluded.roas,
		 cost_per_reservation=excluded.cost_per_reservation,
		 campaign_data=excluded.campaign_data,
		 data_source=excluded.data_source,
		 last_updated=excluded.last_updated`,
		summary.ClientID, summary.Platform, summary.PeriodType, summary.PeriodID,
		summary.TotalSpend, summary.TotalImpressions, summary.TotalClicks, summary.TotalConversions,
		summary.AverageCTR, summary.AverageCPC,
		summary.ClickToCall, summary.EmailContact, summary.BookingStep1, summary.BookingStep2, summary.BookingStep3,
		summary.Reservations, summary.ReservationValue, summary.ROAS, summary.CostPerReservation,
		string(payload), summary.DataSource, summary.LastUpdated.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const summaryColumns = `client_id, platform, period_type, period_id,
	total_spend, total_impressions, total_clicks, total_conversions,
	average_ctr, average_cpc,
	click_to_call, email_contact, booking_step_1, booking_step_2, booking_step_3,
	reservations, reservation_value, roas, cost_per_reservation,
	campaign_data, data_source, last_updated`

// Get reads one summary; nil, nil when absent.
func (s *SQLiteStore) Get(ctx context.Context, key domain.SummaryKey) (*domain.AggregateSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`
		FROM campaign_summaries
		WHERE client_id = ? AND platform = ? AND period_type = ? AND period_id = ?`,
		key.ClientID, key.Platform, key.PeriodType, key.PeriodID)

	summary, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return summary, err
}

// ListByClient returns the newest summaries for one client/platform,
// most recent period first.
func (s *SQLiteStore) ListByClient(ctx context.Context, clientID string, platform domain.Platform, periodType domain.PeriodType, limit int) ([]domain.AggregateSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+summaryColumns+`
		FROM campaign_summaries
		WHERE client_id = ? AND platform = ? AND period_type = ?
		ORDER BY period_id DESC LIMIT ?`,
		clientID, platform, periodType, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var summaries []domain.AggregateSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (*domain.AggregateSummary, error) {
	var s domain.AggregateSummary
	var payload, updated string

	err := row.Scan(
		&s.ClientID, &s.Platform, &s.PeriodType, &s.PeriodID,
		&s.TotalSpend, &s.TotalImpressions, &s.TotalClicks, &s.TotalConversions,
		&s.AverageCTR, &s.AverageCPC,
		&s.ClickToCall, &s.EmailContact, &s.BookingStep1, &s.BookingStep2, &s.BookingStep3,
		&s.Reservations, &s.ReservationValue, &s.ROAS, &s.CostPerReservation,
		&payload, &s.DataSource, &updated,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &s.CampaignData); err != nil {
		return nil, fmt.Errorf("unmarshaling campaign breakdown: %w", err)
	}
	s.LastUpdated, _ = time.Parse(time.RFC3339, updated)
	return &s, nil
}

// CacheGet reads the current-period fast path; nil, nil on a miss.
func (s *SQLiteStore) CacheGet(ctx context.Context, key domain.SummaryKey) (*domain.CacheEntry, error) {
	var payload, updated string
	err := s.db.QueryRowContext(ctx, `SELECT payload, last_updated FROM current_cache
		WHERE client_id = ? AND platform = ? AND period_type = ? AND period_id = ?`,
		key.ClientID, key.Platform, key.PeriodType, key.PeriodID).Scan(&payload, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry.Summary); err != nil {
		return nil, fmt.Errorf("unmarshaling cache payload: %w", err)
	}
	entry.LastUpdated, _ = time.Parse(time.RFC3339, updated)
	return &entry, nil
}

// CacheSet upserts the current-period entry for the summary's key.
func (s *SQLiteStore) CacheSet(ctx context.Context, summary *domain.AggregateSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling cache payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO current_cache
		(client_id, platform, period_type, period_id, payload, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)`,
		summary.ClientID, summary.Platform, summary.PeriodType, summary.PeriodID,
		string(payload), summary.LastUpdated.UTC().Format(time.RFC3339))
	return err
}

// CacheDelete removes one cache entry.
func (s *SQLiteStore) CacheDelete(ctx context.Context, key domain.SummaryKey) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM current_cache
		WHERE client_id = ? AND platform = ? AND period_type = ? AND period_id = ?`,
		key.ClientID, key.Platform, key.PeriodType, key.PeriodID)
	return err
}

// Acquire takes the rebuild claim for a key. Returns false when
// another owner holds a live claim; claims older than staleAfter are
// treated as abandoned by a crashed rebuild and taken over.
func (s *SQLiteStore) Acquire(ctx context.Context, key domain.SummaryKey, owner string, staleAfter time.Duration) (bool, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-staleAfter).Format(time.RFC3339)

	res, err := s.db.ExecContext(ctx, `INSERT INTO rebuild_claims (cache_key, claimed_by, claimed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (cache_key) DO UPDATE SET
		 claimed_by=excluded.claimed_by,
		 claimed_at=excluded.claimed_at
		WHERE rebuild_claims.claimed_at < ?`,
		key.String(), owner, now.Format(time.RFC3339), cutoff)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Release drops the claim if this owner still holds it.
func (s *SQLiteStore) Release(ctx context.Context, key domain.SummaryKey, owner string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rebuild_claims WHERE cache_key = ? AND claimed_by = ?`,
		key.String(), owner)
	return err
}

// ListActiveClients returns the client directory in stable order.
func (s *SQLiteStore) ListActiveClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, COALESCE(hotel_name, ''),
		COALESCE(meta_account_id, ''), COALESCE(google_account_id, '')
		FROM clients WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		var metaID, googleID string
		if err := rows.Scan(&c.ID, &c.Name, &c.Hotel, &metaID, &googleID); err != nil {
			return nil, err
		}
		c.Active = true
		c.Accounts = make(map[domain.Platform]string)
		if metaID != "" {
			c.Accounts[domain.PlatformMeta] = metaID
		}
		if googleID != "" {
			c.Accounts[domain.PlatformGoogle] = googleID
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpsertClient registers or updates one client row.
func (s *SQLiteStore) UpsertClient(ctx context.Context, c domain.Client) error {
	active := 0
	if c.Active {
		active = 1
	}
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO clients
		(id, name, hotel_name, meta_account_id, google_account_id, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Hotel, c.Accounts[domain.PlatformMeta], c.Accounts[domain.PlatformGoogle], active)
	return err
}

// SummaryCache adapts the store's current-period tables to the
// domain.CacheStore contract.
type SummaryCache struct {
	store *SQLiteStore
}

func NewSummaryCache(store *SQLiteStore) *SummaryCache {
	return &SummaryCache{store: store}
}

func (c *SummaryCache) Get(ctx context.Context, key domain.SummaryKey) (*domain.CacheEntry, error) {
	return c.store.CacheGet(ctx, key)
}

func (c *SummaryCache) Set(ctx context.Context, summary *domain.AggregateSummary) error {
	return c.store.CacheSet(ctx, summary)
}

func (c *SummaryCache) Delete(ctx context.Context, key domain.SummaryKey) error {
	return c.store.CacheDelete(ctx, key)
}
