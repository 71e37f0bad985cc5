package models

import (
	"fmt"
	"time"
)

// Booking statuses. A confirmed booking holds its slot from the moment of
// creation; the separate Confirmed flag records the later user
// acknowledgment that protects it from auto-cancellation.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Booking represents a venue booking record. Bookings are never physically
// deleted; cancelled and completed rows are retained for history.
type Booking struct {
	ID      int64  `json:"id"`
	Ref     string `json:"ref"`
	VenueID int64  `json:"venue_id"`
	UserID  int64  `json:"user_id"`

	EventName        string `json:"event_name"`
	EventDescription string `json:"event_description,omitempty"`

	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`

	ExpectedAttendees   int    `json:"expected_attendees"`
	ContactNumber       string `json:"contact_number"`
	SpecialRequirements string `json:"special_requirements,omitempty"`

	Status             string     `json:"status"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        *int64     `json:"cancelled_by,omitempty"`

	ReminderSent   bool       `json:"reminder_sent"`
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`

	Confirmed   bool       `json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`

	AutoCancelled    bool       `json:"auto_cancelled"`
	AutoCancelledAt  *time.Time `json:"auto_cancelled_at,omitempty"`
	AutoCancelReason string     `json:"auto_cancel_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Slot identifies a specific bookable interval on a venue. It is the
// natural key that booking creation and waitlist claims serialize on.
type Slot struct {
	VenueID int64
	StartAt time.Time
	EndAt   time.Time
}

// Day returns the UTC calendar day the slot falls on.
func (s Slot) Day() string {
	return s.StartAt.UTC().Format("2006-01-02")
}

// String renders the slot for logs.
func (s Slot) String() string {
	return fmt.Sprintf("venue=%d %s %s-%s", s.VenueID, s.Day(),
		s.StartAt.UTC().Format("15:04"), s.EndAt.UTC().Format("15:04"))
}

// DayBounds returns the UTC day window [start, end) containing t. Sweep
// and conflict queries are scoped by these bounds so all deadline math
// happens on one timezone-aware instant type.
func DayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

// SameDay reports whether both instants fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	aStart, _ := DayBounds(a)
	bStart, _ := DayBounds(b)
	return aStart.Equal(bStart)
}

// Slot returns the booking's slot key.
func (b *Booking) Slot() Slot {
	return Slot{VenueID: b.VenueID, StartAt: b.StartAt, EndAt: b.EndAt}
}

// Duration returns the booked interval length.
func (b *Booking) Duration() time.Duration {
	return b.EndAt.Sub(b.StartAt)
}

// IsPast reports whether the event has already ended.
func (b *Booking) IsPast(now time.Time) bool {
	return b.EndAt.Before(now)
}

// IsOngoing reports whether the event is currently happening.
func (b *Booking) IsOngoing(now time.Time) bool {
	return !now.Before(b.StartAt) && !now.After(b.EndAt)
}

// CanCancel reports whether the booking may still be cancelled: it must
// hold a slot, the event must not have ended, and more than cutoff must
// remain before start.
func (b *Booking) CanCancel(now time.Time, cutoff time.Duration) bool {
	if b.Status == StatusCancelled {
		return false
	}
	if b.IsPast(now) {
		return false
	}
	return b.StartAt.Sub(now) > cutoff
}
