package service

import (
	"context"
	"time"

	"bookit/internal/interval"
	"bookit/internal/models"
	"bookit/internal/notify"
	"bookit/internal/policy"
)

// BookingStore is the persistence capability the booking lifecycle
// manager needs. *database.DB implements it.
type BookingStore interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)

	// ConfirmedForDay returns the conflict candidates for a venue/day.
	ConfirmedForDay(ctx context.Context, venueID int64, dayStart, dayEnd time.Time) ([]models.Booking, error)

	// CreateInSlot atomically re-checks availability with the checker and
	// inserts the booking; returns a conflict error when the slot is taken.
	CreateInSlot(ctx context.Context, b *models.Booking, check interval.Checker) error

	// Conditional flag updates; false means another writer got there
	// first, which the callers treat as a no-op.
	MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error)
	MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error)
	CancelBooking(ctx context.Context, id int64, reason string, actorID int64, at time.Time) (bool, error)
	AutoCancelBooking(ctx context.Context, id int64, reason string, at time.Time) (bool, error)

	// Sweep queries.
	RemindersDue(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	AutoCancelDue(ctx context.Context, from, to time.Time) ([]models.Booking, error)
	CompletePastBookings(ctx context.Context, now time.Time) (int64, error)

	VenueAdminsFor(ctx context.Context, venueID int64) ([]int64, error)
}

// WaitlistStore is the persistence capability the waitlist queue manager
// needs. *database.DB implements it.
type WaitlistStore interface {
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	GetWaitlistEntry(ctx context.Context, id int64) (*models.WaitlistEntry, error)
	CreateWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error

	ActiveEntryForSlot(ctx context.Context, userID int64, slot models.Slot) (*models.WaitlistEntry, error)
	CountActiveForUserBetween(ctx context.Context, userID int64, from, to time.Time) (int, error)
	HasConfirmedBookingForSlot(ctx context.Context, userID int64, slot models.Slot) (bool, error)
	ListUserWaitlist(ctx context.Context, userID int64) ([]models.WaitlistEntry, error)

	HeadOfQueue(ctx context.Context, slot models.Slot) (*models.WaitlistEntry, error)
	MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error)
	StaleNotified(ctx context.Context, cutoff time.Time) ([]models.WaitlistEntry, error)
	MarkExpired(ctx context.Context, id int64) (bool, error)
	DeleteWaitlistEntry(ctx context.Context, id, userID int64) (bool, error)

	// ClaimAndBook marks the entry claimed and creates the booking in one
	// slot-scoped transaction, re-validating availability at claim time.
	ClaimAndBook(ctx context.Context, entryID int64, b *models.Booking, check interval.Checker) error
}

// Notifier dispatches outbound notifications. Delivery failures are the
// caller's to interpret; lifecycle transitions never fail because of them.
type Notifier interface {
	Send(ctx context.Context, recipient int64, kind notify.Kind, fields notify.Fields) error
}

// Sink records in-app notifications, fire-and-forget.
type Sink interface {
	Record(ctx context.Context, n *models.Notification)
}

// WaitlistSignal is how the booking lifecycle tells the waitlist a slot
// freed up. An explicit call, not an event, to keep causality traceable.
type WaitlistSignal interface {
	NotifyHead(ctx context.Context, slot models.Slot) error
}

// PermissionChecker evaluates actor permissions. *policy.Policy
// implements it.
type PermissionChecker interface {
	Can(ctx context.Context, actor models.Actor, action policy.Action, res policy.Resource) (bool, error)
}

// Stats reports the outcome of one sweep over many entities. Sweeps never
// fail as a whole; per-entity failures are counted and logged.
type Stats struct {
	Total   int
	Done    int
	Skipped int
	Failed  int
}
