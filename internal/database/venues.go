package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bookit/internal/models"
)

// GetVenue returns a venue by id, or nil if it does not exist.
func (db *DB) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, location, building, floor, capacity, facilities,
		       description, photo_url, is_active, created_at, updated_at
		FROM venues WHERE id = ?`, id)
	return scanVenue(row)
}

// ListVenues returns venues, optionally only active ones, ordered by name.
func (db *DB) ListVenues(ctx context.Context, activeOnly bool) ([]models.Venue, error) {
	query := `
		SELECT id, name, location, building, floor, capacity, facilities,
		       description, photo_url, is_active, created_at, updated_at
		FROM venues`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		v, err := scanVenueRows(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

// CreateVenue inserts a venue. Venue administration is external to the
// core; this exists for seeding and tests.
func (db *DB) CreateVenue(ctx context.Context, v *models.Venue) error {
	facilities, err := json.Marshal(v.Facilities)
	if err != nil {
		return fmt.Errorf("marshal facilities: %w", err)
	}
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO venues (name, location, building, floor, capacity, facilities,
		                    description, photo_url, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Location, v.Building, v.Floor, v.Capacity, string(facilities),
		v.Description, v.PhotoURL, v.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	v.ID, err = res.LastInsertId()
	v.CreatedAt, v.UpdatedAt = now, now
	return err
}

// SetVenueActive flips a venue's active flag.
func (db *DB) SetVenueActive(ctx context.Context, id int64, active bool) error {
	_, err := db.ExecContext(ctx,
		`UPDATE venues SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	return err
}

// AssignVenueAdmin records a hall admin assignment for a venue.
func (db *DB) AssignVenueAdmin(ctx context.Context, userID, venueID int64) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO venue_admins (user_id, venue_id) VALUES (?, ?)
		ON CONFLICT (user_id, venue_id) DO NOTHING`,
		userID, venueID)
	if err != nil {
		return fmt.Errorf("assign venue admin: %w", err)
	}
	return nil
}

// IsVenueAdmin reports whether user is assigned as hall admin for venue.
func (db *DB) IsVenueAdmin(ctx context.Context, userID, venueID int64) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM venue_admins WHERE user_id = ? AND venue_id = ?`,
		userID, venueID).Scan(&count)
	return count > 0, err
}

// VenueAdminsFor returns user ids of hall admins assigned to a venue.
func (db *DB) VenueAdminsFor(ctx context.Context, venueID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT user_id FROM venue_admins WHERE venue_id = ?`, venueID)
	if err != nil {
		return nil, fmt.Errorf("venue admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AssignedVenues returns venue ids a hall admin manages.
func (db *DB) AssignedVenues(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT venue_id FROM venue_admins WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("assigned venues: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVenueFrom(s rowScanner) (*models.Venue, error) {
	var v models.Venue
	var facilities string
	err := s.Scan(&v.ID, &v.Name, &v.Location, &v.Building, &v.Floor,
		&v.Capacity, &facilities, &v.Description, &v.PhotoURL, &v.IsActive,
		&v.CreatedAt, &v.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan venue: %w", err)
	}
	if facilities != "" {
		if err := json.Unmarshal([]byte(facilities), &v.Facilities); err != nil {
			v.Facilities = nil
		}
	}
	return &v, nil
}

func scanVenue(row *sql.Row) (*models.Venue, error)       { return scanVenueFrom(row) }
func scanVenueRows(rows *sql.Rows) (*models.Venue, error) { return scanVenueFrom(rows) }
