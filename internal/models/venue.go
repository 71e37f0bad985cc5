package models

import "time"

// Venue represents a bookable venue/hall. Venues are administered
// externally; the core references them and reads capacity/active state.
type Venue struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Building    string    `json:"building"`
	Floor       string    `json:"floor"`
	Capacity    int       `json:"capacity"`
	Facilities  []string  `json:"facilities"`
	Description string    `json:"description,omitempty"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// VenueAdmin maps a hall admin to a venue they manage.
type VenueAdmin struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	VenueID    int64     `json:"venue_id"`
	AssignedAt time.Time `json:"assigned_at"`
}
