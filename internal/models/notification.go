package models

import "time"

// Notification types for the in-app feed.
const (
	NotifyBookingConfirmed = "booking_confirmed"
	NotifyBookingCancelled = "booking_cancelled"
	NotifyBookingReminder  = "booking_reminder"
	NotifyNewBooking       = "new_booking"
	NotifyWaitlist         = "waitlist"
	NotifyVenueAssigned    = "venue_assigned"
	NotifySystem           = "system"
)

// Notification is an in-app notification record. The feed is append-only;
// the only mutation after creation is flipping the read flag.
type Notification struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Link    string `json:"link,omitempty"`

	IsRead bool       `json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	RelatedBookingID *int64 `json:"related_booking_id,omitempty"`
	RelatedVenueID   *int64 `json:"related_venue_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
