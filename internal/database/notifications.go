package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bookit/internal/models"
)

const notificationColumns = `id, user_id, type, title, message, link,
	is_read, read_at, related_booking_id, related_venue_id, created_at`

// CreateNotification appends a notification to the user's feed.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO notifications (user_id, type, title, message, link,
			related_booking_id, related_venue_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Type, n.Title, n.Message, n.Link,
		n.RelatedBookingID, n.RelatedVenueID, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.ID, err = res.LastInsertId()
	return err
}

// ListNotifications returns a user's notifications, newest first.
func (db *DB) ListNotifications(ctx context.Context, userID int64, limit int) ([]models.Notification, error) {
	query := "SELECT " + notificationColumns + ` FROM notifications
		WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var items []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *n)
	}
	return items, rows.Err()
}

// UnreadCount returns the number of unread notifications for a user.
func (db *DB) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`,
		userID).Scan(&count)
	return count, err
}

// MarkNotificationRead flips the read flag on a user's own notification.
func (db *DB) MarkNotificationRead(ctx context.Context, id, userID int64) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1, read_at = ?
		WHERE id = ? AND user_id = ? AND is_read = 0`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkAllNotificationsRead marks every unread notification read and
// returns the number updated.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, userID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE notifications SET is_read = 1, read_at = ?
		WHERE user_id = ? AND is_read = 0`,
		time.Now().UTC(), userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return res.RowsAffected()
}

// ClearReadNotifications deletes a user's read notifications and returns
// the number deleted.
func (db *DB) ClearReadNotifications(ctx context.Context, userID int64) (int64, error) {
	res, err := db.ExecContext(ctx,
		`DELETE FROM notifications WHERE user_id = ? AND is_read = 1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear read notifications: %w", err)
	}
	return res.RowsAffected()
}

func scanNotification(s rowScanner) (*models.Notification, error) {
	var n models.Notification
	var readAt sql.NullTime
	var relatedBooking, relatedVenue sql.NullInt64
	err := s.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link,
		&n.IsRead, &readAt, &relatedBooking, &relatedVenue, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	if relatedBooking.Valid {
		v := relatedBooking.Int64
		n.RelatedBookingID = &v
	}
	if relatedVenue.Valid {
		v := relatedVenue.Int64
		n.RelatedVenueID = &v
	}
	return &n, nil
}
