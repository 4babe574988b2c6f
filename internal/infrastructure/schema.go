package infrastructure

const schemaSQL = `
CREATE TABLE IF NOT EXISTS campaign_summaries (
    client_id            TEXT NOT NULL,
    platform             TEXT NOT NULL,
    period_type          TEXT NOT NULL,
    period_id            TEXT NOT NULL,
    total_spend          REAL NOT NULL DEFAULT 0,
    total_impressions    INTEGER NOT NULL DEFAULT 0,
    total_clicks         INTEGER NOT NULL DEFAULT 0,
    total_conversions    REAL NOT NULL DEFAULT 0,
    average_ctr          REAL NOT NULL DEFAULT 0,
    average_cpc          REAL NOT NULL DEFAULT 0,
    click_to_call        INTEGER NOT NULL DEFAULT 0,
    email_contact        INTEGER NOT NULL DEFAULT 0,
    booking_step_1       INTEGER NOT NULL DEFAULT 0,
    booking_step_2       INTEGER NOT NULL DEFAULT 0,
    booking_step_3       INTEGER NOT NULL DEFAULT 0,
    reservations         INTEGER NOT NULL DEFAULT 0,
    reservation_value    REAL NOT NULL DEFAULT 0,
    roas                 REAL NOT NULL DEFAULT 0,
    cost_per_reservation REAL NOT NULL DEFAULT 0,
    campaign_data        TEXT NOT NULL DEFAULT '[]',
    data_source          TEXT NOT NULL,
    last_updated         TEXT NOT NULL,
    PRIMARY KEY (client_id, platform, period_type, period_id)
);

CREATE TABLE IF NOT EXISTS current_cache (
    client_id            TEXT NOT NULL,
    platform             TEXT NOT NULL,
    period_type          TEXT NOT NULL,
    period_id            TEXT NOT NULL,
    payload              TEXT NOT NULL,
    last_updated         TEXT NOT NULL,
    PRIMARY KEY (client_id, platform, period_type, period_id)
);

CREATE TABLE IF NOT EXISTS rebuild_claims (
    cache_key            TEXT PRIMARY KEY,
    claimed_by           TEXT NOT NULL,
    claimed_at           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL,
    hotel_name           TEXT,
    meta_account_id      TEXT,
    google_account_id    TEXT,
    active               INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_summaries_client ON campaign_summaries(client_id, platform, period_type);
CREATE INDEX IF NOT EXISTS idx_summaries_updated ON campaign_summaries(last_updated);
`
