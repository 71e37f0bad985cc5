package models

import "time"

// ClaimWindow is how long a notified waitlist entry may be converted into
// a booking before it expires and the next candidate is notified.
const ClaimWindow = 15 * time.Minute

// WaitlistEntry is a user's place in the queue for a fully booked slot.
// Within one slot the queue is ordered by (priority asc, created_at asc);
// priority is always 0 today and reserved for future tiers.
type WaitlistEntry struct {
	ID      int64  `json:"id"`
	Ref     string `json:"ref"`
	VenueID int64  `json:"venue_id"`
	UserID  int64  `json:"user_id"`

	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`

	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`

	Notified   bool       `json:"notified"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`

	Claimed   bool       `json:"claimed"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`

	Expired bool `json:"expired"`
}

// Slot returns the entry's slot key.
func (e *WaitlistEntry) Slot() Slot {
	return Slot{VenueID: e.VenueID, StartAt: e.StartAt, EndAt: e.EndAt}
}

// Active reports whether the entry is still live in the queue: neither
// claimed nor expired.
func (e *WaitlistEntry) Active() bool {
	return !e.Claimed && !e.Expired
}

// ClaimDeadline returns the instant the claim window closes, or the zero
// time if the entry was never notified.
func (e *WaitlistEntry) ClaimDeadline() time.Time {
	if e.NotifiedAt == nil {
		return time.Time{}
	}
	return e.NotifiedAt.Add(ClaimWindow)
}

// ClaimWindowElapsed reports whether a notified entry's claim window has
// passed. Deadlines are evaluated from stored timestamps, never from live
// timers.
func (e *WaitlistEntry) ClaimWindowElapsed(now time.Time) bool {
	if e.NotifiedAt == nil {
		return false
	}
	return now.After(e.ClaimDeadline())
}

// TimeRemaining returns the seconds left to claim, zero once expired or
// if never notified.
func (e *WaitlistEntry) TimeRemaining(now time.Time) int {
	if e.NotifiedAt == nil || e.Expired {
		return 0
	}
	remaining := e.ClaimDeadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}
