package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"bookit/internal/models"
)

const bookingColumns = `id, ref, venue_id, user_id, event_name, event_description,
	start_at, end_at, expected_attendees, contact_number, special_requirements,
	status, cancellation_reason, cancelled_at, cancelled_by,
	reminder_sent, reminder_sent_at, confirmed, confirmed_at,
	auto_cancelled, auto_cancelled_at, auto_cancel_reason,
	created_at, updated_at`

// BookingFilter defines criteria for querying bookings.
type BookingFilter struct {
	UserID           *int64
	VenueID          *int64
	VenueIDs         []int64
	Status           string
	StartFrom        *time.Time // start_at >= StartFrom
	StartUntil       *time.Time // start_at < StartUntil
	EndBefore        *time.Time // end_at < EndBefore
	ReminderSent     *bool
	Confirmed        *bool
	ActiveVenuesOnly bool
	OrderBy          string // defaults to "start_at ASC"
	Limit            int
}

func (f BookingFilter) build() (string, []any) {
	var conds []string
	var args []any

	if f.UserID != nil {
		conds = append(conds, "b.user_id = ?")
		args = append(args, *f.UserID)
	}
	if f.VenueID != nil {
		conds = append(conds, "b.venue_id = ?")
		args = append(args, *f.VenueID)
	}
	if len(f.VenueIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.VenueIDs)), ",")
		conds = append(conds, fmt.Sprintf("b.venue_id IN (%s)", placeholders))
		for _, id := range f.VenueIDs {
			args = append(args, id)
		}
	}
	if f.Status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, f.Status)
	}
	if f.StartFrom != nil {
		conds = append(conds, "b.start_at >= ?")
		args = append(args, f.StartFrom.UTC())
	}
	if f.StartUntil != nil {
		conds = append(conds, "b.start_at < ?")
		args = append(args, f.StartUntil.UTC())
	}
	if f.EndBefore != nil {
		conds = append(conds, "b.end_at < ?")
		args = append(args, f.EndBefore.UTC())
	}
	if f.ReminderSent != nil {
		conds = append(conds, "b.reminder_sent = ?")
		args = append(args, *f.ReminderSent)
	}
	if f.Confirmed != nil {
		conds = append(conds, "b.confirmed = ?")
		args = append(args, *f.Confirmed)
	}

	query := "SELECT " + prefixColumns("b") + " FROM bookings b"
	if f.ActiveVenuesOnly {
		query += " JOIN venues v ON v.id = b.venue_id AND v.is_active = 1"
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	order := f.OrderBy
	if order == "" {
		order = "b.start_at ASC"
	}
	query += " ORDER BY " + order
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return query, args
}

func prefixColumns(alias string) string {
	cols := strings.Split(bookingColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

// FindBookings returns bookings matching the filter.
func (db *DB) FindBookings(ctx context.Context, f BookingFilter) ([]models.Booking, error) {
	query, args := f.build()
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// GetBooking returns a booking by id, or nil if it does not exist.
func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE id = ?", id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return b, err
}

// ConfirmedForDay returns confirmed bookings for a venue whose start falls
// within [dayStart, dayEnd). These are the conflict candidates for any
// slot on that day.
func (db *DB) ConfirmedForDay(ctx context.Context, venueID int64, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	status := models.StatusConfirmed
	return db.FindBookings(ctx, BookingFilter{
		VenueID:    &venueID,
		Status:     status,
		StartFrom:  &dayStart,
		StartUntil: &dayEnd,
	})
}

// RemindersDue returns confirmed bookings without a reminder whose start
// falls in the sweep window [from, to).
func (db *DB) RemindersDue(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	sent := false
	return db.FindBookings(ctx, BookingFilter{
		Status:       models.StatusConfirmed,
		ReminderSent: &sent,
		StartFrom:    &from,
		StartUntil:   &to,
	})
}

// AutoCancelDue returns reminded but unconfirmed bookings whose start
// falls in the sweep window [from, to).
func (db *DB) AutoCancelDue(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	sent := true
	confirmed := false
	return db.FindBookings(ctx, BookingFilter{
		Status:       models.StatusConfirmed,
		ReminderSent: &sent,
		Confirmed:    &confirmed,
		StartFrom:    &from,
		StartUntil:   &to,
	})
}

// HasConfirmedBookingForSlot reports whether user already holds a
// confirmed booking for the exact slot.
func (db *DB) HasConfirmedBookingForSlot(ctx context.Context, userID int64, slot models.Slot) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE user_id = ? AND venue_id = ? AND start_at = ? AND end_at = ? AND status = ?`,
		userID, slot.VenueID, slot.StartAt.UTC(), slot.EndAt.UTC(), models.StatusConfirmed,
	).Scan(&count)
	return count > 0, err
}

// MarkReminderSent flips the reminder flag. Returns false when the flag
// was already set; that makes repeated sweeps a no-op.
func (db *DB) MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings SET reminder_sent = 1, reminder_sent_at = ?, updated_at = ?
		WHERE id = ? AND reminder_sent = 0 AND status = ?`,
		at.UTC(), at.UTC(), id, models.StatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkConfirmed records the owner's confirmation. Returns false if the
// booking was already confirmed or no longer holds its slot.
func (db *DB) MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings SET confirmed = 1, confirmed_at = ?, updated_at = ?
		WHERE id = ? AND confirmed = 0 AND status = ?`,
		at.UTC(), at.UTC(), id, models.StatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("mark confirmed: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CancelBooking marks a booking cancelled by an actor. Returns false if it
// was already cancelled.
func (db *DB) CancelBooking(ctx context.Context, id int64, reason string, actorID int64, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, cancellation_reason = ?, cancelled_at = ?, cancelled_by = ?, updated_at = ?
		WHERE id = ? AND status != ?`,
		models.StatusCancelled, reason, at.UTC(), actorID, at.UTC(), id, models.StatusCancelled)
	if err != nil {
		return false, fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AutoCancelBooking marks a booking cancelled by the system. The WHERE
// clause is the exactly-once guard: only an unconfirmed, still-confirmed
// booking not yet auto-cancelled can match, so overlapping sweeps cancel
// it once.
func (db *DB) AutoCancelBooking(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings
		SET status = ?, auto_cancelled = 1, auto_cancelled_at = ?, auto_cancel_reason = ?,
		    cancellation_reason = ?, cancelled_at = ?, updated_at = ?
		WHERE id = ? AND status = ? AND confirmed = 0 AND auto_cancelled = 0`,
		models.StatusCancelled, at.UTC(), reason, reason, at.UTC(), at.UTC(),
		id, models.StatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("auto cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CompletePastBookings flips confirmed bookings whose event has ended to
// completed. Returns the number of rows updated.
func (db *DB) CompletePastBookings(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE bookings SET status = ?, updated_at = ?
		WHERE status = ? AND end_at < ?`,
		models.StatusCompleted, now.UTC(), models.StatusConfirmed, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	return res.RowsAffected()
}

// ConfirmedForDay on a slot transaction reads conflict candidates under
// the write lock.
func (tx *SlotTx) ConfirmedForDay(ctx context.Context, venueID int64, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	rows, err := tx.tx.QueryContext(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE venue_id = ? AND status = ? AND start_at >= ? AND start_at < ?`,
		venueID, models.StatusConfirmed, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, fmt.Errorf("confirmed for day: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

// InsertBooking inserts a booking inside the slot transaction and fills
// in its id.
func (tx *SlotTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	res, err := tx.tx.ExecContext(ctx, `
		INSERT INTO bookings (ref, venue_id, user_id, event_name, event_description,
			start_at, end_at, expected_attendees, contact_number, special_requirements,
			status, reminder_sent, confirmed, confirmed_at, auto_cancelled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		b.Ref, b.VenueID, b.UserID, b.EventName, b.EventDescription,
		b.StartAt.UTC(), b.EndAt.UTC(), b.ExpectedAttendees, b.ContactNumber,
		b.SpecialRequirements, b.Status, b.ReminderSent, b.Confirmed, b.ConfirmedAt,
		now, now)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID, err = res.LastInsertId()
	return err
}

// ClaimEntry marks a waitlist entry claimed inside the slot transaction.
// Returns false if the entry was concurrently claimed or expired.
func (tx *SlotTx) ClaimEntry(ctx context.Context, entryID int64, at time.Time) (bool, error) {
	res, err := tx.tx.ExecContext(ctx, `
		UPDATE waitlist SET claimed = 1, claimed_at = ?
		WHERE id = ? AND notified = 1 AND claimed = 0 AND expired = 0`,
		at.UTC(), entryID)
	if err != nil {
		return false, fmt.Errorf("claim entry: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	var bookings []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(s rowScanner) (*models.Booking, error) {
	var b models.Booking
	var cancelledBy sql.NullInt64
	var cancelledAt, reminderSentAt, confirmedAt, autoCancelledAt sql.NullTime
	err := s.Scan(&b.ID, &b.Ref, &b.VenueID, &b.UserID, &b.EventName, &b.EventDescription,
		&b.StartAt, &b.EndAt, &b.ExpectedAttendees, &b.ContactNumber, &b.SpecialRequirements,
		&b.Status, &b.CancellationReason, &cancelledAt, &cancelledBy,
		&b.ReminderSent, &reminderSentAt, &b.Confirmed, &confirmedAt,
		&b.AutoCancelled, &autoCancelledAt, &b.AutoCancelReason,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	if cancelledBy.Valid {
		v := cancelledBy.Int64
		b.CancelledBy = &v
	}
	if reminderSentAt.Valid {
		t := reminderSentAt.Time
		b.ReminderSentAt = &t
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		b.ConfirmedAt = &t
	}
	if autoCancelledAt.Valid {
		t := autoCancelledAt.Time
		b.AutoCancelledAt = &t
	}
	return &b, nil
}
