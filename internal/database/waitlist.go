package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookit/internal/models"
)

const waitlistColumns = `id, ref, venue_id, user_id, start_at, end_at, priority,
	created_at, notified, notified_at, claimed, claimed_at, expired`

// CreateWaitlistEntry inserts an entry and fills in its id. The partial
// unique index rejects a second live entry for the same user and slot.
func (db *DB) CreateWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO waitlist (ref, venue_id, user_id, start_at, end_at, priority, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Ref, e.VenueID, e.UserID, e.StartAt.UTC(), e.EndAt.UTC(), e.Priority, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create waitlist entry: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

// GetWaitlistEntry returns an entry by id, or nil if it does not exist.
func (db *DB) GetWaitlistEntry(ctx context.Context, id int64) (*models.WaitlistEntry, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+waitlistColumns+" FROM waitlist WHERE id = ?", id)
	e, err := scanWaitlistEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// HeadOfQueue returns the next entry to notify for a slot: lowest
// (priority, created_at, id) among entries not yet notified, claimed or
// expired. Returns nil when the queue is empty. The id tie-break keeps
// the order stable for entries created in the same instant.
func (db *DB) HeadOfQueue(ctx context.Context, slot models.Slot) (*models.WaitlistEntry, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+waitlistColumns+` FROM waitlist
		WHERE venue_id = ? AND start_at = ? AND end_at = ?
		  AND notified = 0 AND claimed = 0 AND expired = 0
		ORDER BY priority ASC, created_at ASC, id ASC
		LIMIT 1`,
		slot.VenueID, slot.StartAt.UTC(), slot.EndAt.UTC())
	e, err := scanWaitlistEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// ActiveEntryForSlot returns the user's live entry for the exact slot, or
// nil.
func (db *DB) ActiveEntryForSlot(ctx context.Context, userID int64, slot models.Slot) (*models.WaitlistEntry, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+waitlistColumns+` FROM waitlist
		WHERE user_id = ? AND venue_id = ? AND start_at = ? AND end_at = ?
		  AND claimed = 0 AND expired = 0
		LIMIT 1`,
		userID, slot.VenueID, slot.StartAt.UTC(), slot.EndAt.UTC())
	e, err := scanWaitlistEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// CountActiveForUserBetween counts the user's live entries whose slot
// starts within [from, to). Bounds the per-day join cap.
func (db *DB) CountActiveForUserBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM waitlist
		WHERE user_id = ? AND claimed = 0 AND expired = 0
		  AND start_at >= ? AND start_at < ?`,
		userID, from.UTC(), to.UTC()).Scan(&count)
	return count, err
}

// ListUserWaitlist returns the user's live entries ordered by slot start.
func (db *DB) ListUserWaitlist(ctx context.Context, userID int64) ([]models.WaitlistEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+waitlistColumns+` FROM waitlist
		WHERE user_id = ? AND claimed = 0 AND expired = 0
		ORDER BY start_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user waitlist: %w", err)
	}
	defer rows.Close()
	return collectWaitlistEntries(rows)
}

// StaleNotified returns entries whose claim window closed strictly before
// cutoff and that were neither claimed nor expired yet. The comparison
// matches WaitlistEntry.ClaimWindowElapsed: at the exact deadline the
// entry is still claimable and not yet stale.
func (db *DB) StaleNotified(ctx context.Context, cutoff time.Time) ([]models.WaitlistEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+waitlistColumns+` FROM waitlist
		WHERE notified = 1 AND claimed = 0 AND expired = 0 AND notified_at < ?
		ORDER BY notified_at ASC`, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("stale notified: %w", err)
	}
	defer rows.Close()
	return collectWaitlistEntries(rows)
}

// MarkNotified flips the notified flag. Returns false if the entry was
// already notified, claimed or expired, which makes head notification
// idempotent.
func (db *DB) MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE waitlist SET notified = 1, notified_at = ?
		WHERE id = ? AND notified = 0 AND claimed = 0 AND expired = 0`,
		at.UTC(), id)
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkExpired flips the expired flag. Returns false if the entry was
// already claimed or expired; overlapping expiry sweeps process each
// entry once.
func (db *DB) MarkExpired(ctx context.Context, id int64) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE waitlist SET expired = 1
		WHERE id = ? AND notified = 1 AND claimed = 0 AND expired = 0`, id)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteWaitlistEntry removes a user's own live entry (leaving the queue).
// Returns false if no live entry matched.
func (db *DB) DeleteWaitlistEntry(ctx context.Context, id, userID int64) (bool, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM waitlist
		WHERE id = ? AND user_id = ? AND claimed = 0 AND expired = 0`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete waitlist entry: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func collectWaitlistEntries(rows *sql.Rows) ([]models.WaitlistEntry, error) {
	var entries []models.WaitlistEntry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanWaitlistEntry(s rowScanner) (*models.WaitlistEntry, error) {
	var e models.WaitlistEntry
	var notifiedAt, claimedAt sql.NullTime
	err := s.Scan(&e.ID, &e.Ref, &e.VenueID, &e.UserID, &e.StartAt, &e.EndAt,
		&e.Priority, &e.CreatedAt, &e.Notified, &notifiedAt,
		&e.Claimed, &claimedAt, &e.Expired)
	if err != nil {
		return nil, err
	}
	if notifiedAt.Valid {
		t := notifiedAt.Time
		e.NotifiedAt = &t
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		e.ClaimedAt = &t
	}
	return &e, nil
}
