// Package database implements the durable store on SQLite. It is the only
// shared mutable resource: all components communicate by reading and
// writing it.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the booking store.
type DB struct {
	*sql.DB
}

// New opens the database at path and runs migrations. The _txlock=immediate
// option makes every transaction take the SQLite write lock up front, which
// is what serializes slot-scoped create/claim operations.
func New(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Venues (administered externally; referenced by bookings/waitlist)
		`CREATE TABLE IF NOT EXISTS venues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			location TEXT NOT NULL DEFAULT '',
			building TEXT NOT NULL DEFAULT '',
			floor TEXT NOT NULL DEFAULT '',
			capacity INTEGER NOT NULL,
			facilities TEXT NOT NULL DEFAULT '[]',
			description TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Hall admin venue assignments
		`CREATE TABLE IF NOT EXISTS venue_admins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			venue_id INTEGER NOT NULL,
			assigned_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, venue_id),
			FOREIGN KEY (venue_id) REFERENCES venues(id)
		)`,

		// Bookings (never deleted; cancelled/completed rows kept for audit)
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT UNIQUE NOT NULL,
			venue_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			event_name TEXT NOT NULL,
			event_description TEXT NOT NULL DEFAULT '',
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			expected_attendees INTEGER NOT NULL,
			contact_number TEXT NOT NULL DEFAULT '',
			special_requirements TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'confirmed',
			cancellation_reason TEXT NOT NULL DEFAULT '',
			cancelled_at DATETIME,
			cancelled_by INTEGER,
			reminder_sent BOOLEAN NOT NULL DEFAULT 0,
			reminder_sent_at DATETIME,
			confirmed BOOLEAN NOT NULL DEFAULT 0,
			confirmed_at DATETIME,
			auto_cancelled BOOLEAN NOT NULL DEFAULT 0,
			auto_cancelled_at DATETIME,
			auto_cancel_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (venue_id) REFERENCES venues(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_venue_start ON bookings(venue_id, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_sweep ON bookings(status, reminder_sent, start_at)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_confirm_sweep ON bookings(status, confirmed, start_at)`,

		// Waitlist queue, FIFO within (priority, created_at) per slot
		`CREATE TABLE IF NOT EXISTS waitlist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ref TEXT UNIQUE NOT NULL,
			venue_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			start_at DATETIME NOT NULL,
			end_at DATETIME NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			notified BOOLEAN NOT NULL DEFAULT 0,
			notified_at DATETIME,
			claimed BOOLEAN NOT NULL DEFAULT 0,
			claimed_at DATETIME,
			expired BOOLEAN NOT NULL DEFAULT 0,
			FOREIGN KEY (venue_id) REFERENCES venues(id)
		)`,
		// One live entry per user per exact slot
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_waitlist_active_slot
			ON waitlist(user_id, venue_id, start_at, end_at)
			WHERE claimed = 0 AND expired = 0`,
		`CREATE INDEX IF NOT EXISTS idx_waitlist_slot ON waitlist(venue_id, start_at, end_at)`,
		`CREATE INDEX IF NOT EXISTS idx_waitlist_stale ON waitlist(notified, claimed, expired, notified_at)`,

		// In-app notifications (append-only feed)
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			link TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN NOT NULL DEFAULT 0,
			read_at DATETIME,
			related_booking_id INTEGER,
			related_venue_id INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, is_read)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at DESC)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// SlotTx is the transactional view used for slot-scoped read-validate-write
// sequences. Because transactions begin with the write lock held, two
// concurrent create/claim calls for the same slot serialize here.
type SlotTx struct {
	tx *sql.Tx
}

// InSlotTx runs fn inside a write transaction and commits if it returns
// nil, rolling back otherwise.
func (db *DB) InSlotTx(ctx context.Context, fn func(tx *SlotTx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin slot tx: %w", err)
	}
	if err := fn(&SlotTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slot tx: %w", err)
	}
	return nil
}
