package database

import (
	"context"
	"database/sql"
	"fmt"
)

// The schema keeps two store-level guards next to the engine's own checks:
//
//   - clients.name_key and rooms.name_key hold lower-cased names under a
//     UNIQUE index, so case-insensitive duplicates are impossible even when
//     two registrations race.
//   - reservations.slot_key holds "room|date|shift" while a reservation is
//     ACTIVE and NULL once it is CANCELLED.  Every supported engine allows
//     many NULLs in a UNIQUE index, so at most one active reservation can
//     exist per slot.
//
// event_date is stored as yyyy-mm-dd text in every dialect; the format
// sorts chronologically and avoids driver specific DATE scanning.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS counters (
		category TEXT PRIMARY KEY,
		value    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id          TEXT PRIMARY KEY,
		given_names TEXT NOT NULL,
		surnames    TEXT NOT NULL,
		name_key    TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		name_key TEXT NOT NULL UNIQUE,
		capacity INTEGER NOT NULL CHECK (capacity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		folio      INTEGER PRIMARY KEY AUTOINCREMENT,
		event_name TEXT NOT NULL,
		client_id  TEXT NOT NULL REFERENCES clients(id),
		room_id    TEXT NOT NULL REFERENCES rooms(id),
		event_date TEXT NOT NULL,
		shift      TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'ACTIVE',
		slot_key   TEXT UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(event_date, status)`,
	`INSERT OR IGNORE INTO counters (category, value) VALUES ('C', 0)`,
	`INSERT OR IGNORE INTO counters (category, value) VALUES ('S', 0)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS counters (
		category VARCHAR(8) NOT NULL PRIMARY KEY,
		value    BIGINT NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS clients (
		id          VARCHAR(16) NOT NULL PRIMARY KEY,
		given_names VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
		surnames    VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
		name_key    VARCHAR(511) COLLATE utf8mb4_bin NOT NULL,
		UNIQUE KEY uq_clients_name_key (name_key)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id       VARCHAR(16) NOT NULL PRIMARY KEY,
		name     VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
		name_key VARCHAR(255) COLLATE utf8mb4_bin NOT NULL,
		capacity INT NOT NULL,
		UNIQUE KEY uq_rooms_name_key (name_key),
		CHECK (capacity > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		folio      BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		event_name VARCHAR(255) NOT NULL,
		client_id  VARCHAR(16) NOT NULL,
		room_id    VARCHAR(16) NOT NULL,
		event_date CHAR(10) NOT NULL,
		shift      VARCHAR(16) NOT NULL,
		status     VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
		slot_key   VARCHAR(64) NULL,
		created_at VARCHAR(40) NOT NULL,
		updated_at VARCHAR(40) NOT NULL,
		UNIQUE KEY uq_reservations_slot (slot_key),
		KEY idx_reservations_date (event_date, status),
		CONSTRAINT fk_reservations_client FOREIGN KEY (client_id) REFERENCES clients(id),
		CONSTRAINT fk_reservations_room FOREIGN KEY (room_id) REFERENCES rooms(id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`INSERT IGNORE INTO counters (category, value) VALUES ('C', 0), ('S', 0)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS counters (
		category TEXT PRIMARY KEY,
		value    BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id          TEXT PRIMARY KEY,
		given_names TEXT COLLATE "C" NOT NULL,
		surnames    TEXT COLLATE "C" NOT NULL,
		name_key    TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS rooms (
		id       TEXT PRIMARY KEY,
		name     TEXT NOT NULL,
		name_key TEXT NOT NULL UNIQUE,
		capacity INTEGER NOT NULL CHECK (capacity > 0)
	)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		folio      BIGSERIAL PRIMARY KEY,
		event_name TEXT NOT NULL,
		client_id  TEXT NOT NULL REFERENCES clients(id),
		room_id    TEXT NOT NULL REFERENCES rooms(id),
		event_date CHAR(10) NOT NULL,
		shift      TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'ACTIVE',
		slot_key   TEXT UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_date ON reservations(event_date, status)`,
	`INSERT INTO counters (category, value) VALUES ('C', 0), ('S', 0) ON CONFLICT (category) DO NOTHING`,
}

// Migrate creates missing tables and seeds the identifier counters.  It is
// idempotent and never resets an existing counter.
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	var stmts []string
	switch d {
	case SQLite:
		stmts = sqliteSchema
	case MySQL:
		stmts = mysqlSchema
	case Postgres:
		stmts = postgresSchema
	default:
		return fmt.Errorf("unsupported dialect %q", d)
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", d, err)
		}
	}
	return nil
}
