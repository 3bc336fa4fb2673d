package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'inspector' CHECK (role IN ('admin', 'manager', 'inspector')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
    id       INTEGER PRIMARY KEY,
    name     TEXT NOT NULL,
    building TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_name_building
    ON rooms(name, COALESCE(building, ''));

CREATE TABLE IF NOT EXISTS assets (
    id                INTEGER PRIMARY KEY,
    tag               TEXT NOT NULL UNIQUE,
    status            TEXT,
    expense_code      TEXT,
    account           TEXT,
    description       TEXT NOT NULL,
    responsible       TEXT,
    sector            TEXT,
    serial            TEXT,
    location          TEXT,
    condition         TEXT,
    supplier          TEXT,
    invoice           TEXT,
    entered_at        DATE,
    acquisition_value TEXT,
    depreciated_value TEXT,
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_assets_serial ON assets(serial);
CREATE INDEX IF NOT EXISTS idx_assets_sector ON assets(sector);
CREATE INDEX IF NOT EXISTS idx_assets_location ON assets(location);

CREATE TABLE IF NOT EXISTS campaigns (
    id            INTEGER PRIMARY KEY,
    year          INTEGER NOT NULL UNIQUE,
    active        INTEGER NOT NULL DEFAULT 0,
    include_books INTEGER NOT NULL DEFAULT 0,
    starts_on     DATE,
    ends_on       DATE,
    created_by    INTEGER REFERENCES users(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_campaigns_single_active
    ON campaigns(active) WHERE active = 1;

CREATE TABLE IF NOT EXISTS inspections (
    id                  INTEGER PRIMARY KEY,
    campaign_id         INTEGER NOT NULL REFERENCES campaigns(id),
    asset_id            INTEGER NOT NULL REFERENCES assets(id),
    status              TEXT NOT NULL DEFAULT 'found' CHECK (status IN ('found', 'not_found')),
    matches_description INTEGER NOT NULL DEFAULT 1,
    matches_serial      INTEGER NOT NULL DEFAULT 1,
    matches_location    INTEGER NOT NULL DEFAULT 1,
    matches_condition   INTEGER NOT NULL DEFAULT 1,
    matches_responsible INTEGER NOT NULL DEFAULT 1,
    description_obs     TEXT,
    serial_obs          TEXT,
    room_obs_name       TEXT,
    room_obs_building   TEXT,
    condition_obs       TEXT,
    responsible_obs     TEXT,
    tag_present         INTEGER NOT NULL DEFAULT 1,
    tag_condition       TEXT,
    damage              TEXT,
    notes               TEXT,
    divergent           INTEGER NOT NULL DEFAULT 0,
    photo               BLOB,
    photo_mime          TEXT,
    created_by          INTEGER REFERENCES users(id),
    updated_by          INTEGER REFERENCES users(id),
    created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (campaign_id, asset_id)
);

CREATE INDEX IF NOT EXISTS idx_inspections_campaign_status ON inspections(campaign_id, status);
CREATE INDEX IF NOT EXISTS idx_inspections_campaign_divergent ON inspections(campaign_id, divergent);

CREATE TABLE IF NOT EXISTS extras (
    id                INTEGER PRIMARY KEY,
    campaign_id       INTEGER NOT NULL REFERENCES campaigns(id),
    description       TEXT NOT NULL,
    room_obs_name     TEXT NOT NULL,
    room_obs_building TEXT,
    serial_obs        TEXT,
    condition_obs     TEXT,
    responsible_obs   TEXT,
    tag_present       INTEGER NOT NULL DEFAULT 0,
    tag_condition     TEXT,
    notes             TEXT,
    photo             BLOB,
    photo_mime        TEXT,
    created_by        INTEGER REFERENCES users(id),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
