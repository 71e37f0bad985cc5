package database

import (
	"context"
	"time"

	"bookit/internal/apperr"
	"bookit/internal/interval"
	"bookit/internal/models"
)

// CreateInSlot inserts a booking after re-checking, under the write lock,
// that no confirmed booking on the same venue and day overlaps its
// interval. Returns a conflict error when one does; the read, the check
// and the insert are one transaction, so two concurrent creates for the
// same slot cannot both succeed.
func (db *DB) CreateInSlot(ctx context.Context, b *models.Booking, check interval.Checker) error {
	dayStart, dayEnd := models.DayBounds(b.StartAt)
	return db.InSlotTx(ctx, func(tx *SlotTx) error {
		existing, err := tx.ConfirmedForDay(ctx, b.VenueID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if conflictsWith(check, b.StartAt, b.EndAt, existing) {
			return apperr.Conflict("venue is not available for the requested time slot")
		}
		return tx.InsertBooking(ctx, b)
	})
}

// ClaimAndBook converts a waitlist entry into a booking: it marks the
// entry claimed and inserts the booking in one transaction, re-validating
// availability at claim time. This is the linearization point for freed
// slots; losing either the entry race or the availability race returns a
// conflict and leaves nothing behind.
func (db *DB) ClaimAndBook(ctx context.Context, entryID int64, b *models.Booking, check interval.Checker) error {
	dayStart, dayEnd := models.DayBounds(b.StartAt)
	now := time.Now().UTC()
	return db.InSlotTx(ctx, func(tx *SlotTx) error {
		claimed, err := tx.ClaimEntry(ctx, entryID, now)
		if err != nil {
			return err
		}
		if !claimed {
			return apperr.Conflict("waitlist entry was claimed or expired concurrently")
		}
		existing, err := tx.ConfirmedForDay(ctx, b.VenueID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if conflictsWith(check, b.StartAt, b.EndAt, existing) {
			return apperr.Conflict("slot was taken by another booking")
		}
		return tx.InsertBooking(ctx, b)
	})
}

func conflictsWith(check interval.Checker, start, end time.Time, existing []models.Booking) bool {
	spans := make([]interval.Span, len(existing))
	for i, eb := range existing {
		spans[i] = interval.Span{Start: eb.StartAt, End: eb.EndAt}
	}
	return interval.Conflicts(check, interval.Span{Start: start, End: end}, spans)
}
