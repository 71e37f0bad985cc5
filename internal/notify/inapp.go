package notify

import (
	"context"

	"github.com/rs/zerolog"

	"bookit/internal/models"
)

// NotificationStore persists in-app notification records.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// InAppSink records in-app notifications. It is fire-and-forget: failures
// are logged and never block the state transition that triggered them.
type InAppSink struct {
	store  NotificationStore
	logger zerolog.Logger
}

// NewInAppSink creates a sink over the given store.
func NewInAppSink(store NotificationStore, logger zerolog.Logger) *InAppSink {
	return &InAppSink{
		store:  store,
		logger: logger.With().Str("component", "inapp").Logger(),
	}
}

// Record appends a notification to the recipient's feed.
func (s *InAppSink) Record(ctx context.Context, n *models.Notification) {
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.logger.Error().
			Err(err).
			Int64("user_id", n.UserID).
			Str("type", n.Type).
			Msg("failed to record in-app notification")
		return
	}
	s.logger.Debug().
		Int64("user_id", n.UserID).
		Str("type", n.Type).
		Str("title", n.Title).
		Msg("in-app notification recorded")
}
