// Package notify provides the outbound notification dispatch adapter and
// the in-app notification sink. Rendering and transport are external; the
// core hands over structured context and gets back success or failure.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"bookit/internal/metrics"
)

// Kind identifies the notification template to render.
type Kind string

const (
	KindBookingConfirmed  Kind = "booking_confirmed"
	KindBookingCancelled  Kind = "booking_cancelled"
	KindBookingReminder   Kind = "booking_reminder"
	KindAutoCancelled     Kind = "booking_auto_cancelled"
	KindWaitlistAvailable Kind = "waitlist_slot_available"
	KindNewBooking        Kind = "new_booking"
)

// Fields is the structured template context passed to the transport.
type Fields map[string]string

// Transport delivers one notification to one recipient. Implementations
// must be safe to retry: a repeated Send for the same event may deliver
// twice but must have no other side effects.
type Transport interface {
	Send(ctx context.Context, recipient int64, kind Kind, fields Fields) error
}

// Config holds dispatcher pacing and retry settings.
type Config struct {
	RatePerSecond float64
	Burst         int
	MaxRetries    int
	RetryDelays   []time.Duration
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		RatePerSecond: 20,
		Burst:         30,
		MaxRetries:    3,
		RetryDelays: []time.Duration{
			1 * time.Second,
			5 * time.Second,
			30 * time.Second,
		},
	}
}

// Dispatcher wraps a Transport with rate limiting and bounded retry.
type Dispatcher struct {
	transport Transport
	limiter   *rate.Limiter
	config    Config
	logger    zerolog.Logger
}

// NewDispatcher creates a dispatcher over the given transport.
func NewDispatcher(transport Transport, cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultConfig().Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if len(cfg.RetryDelays) == 0 {
		cfg.RetryDelays = DefaultConfig().RetryDelays
	}
	return &Dispatcher{
		transport: transport,
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		config:    cfg,
		logger:    logger.With().Str("component", "notify").Logger(),
	}
}

// Send delivers a notification with pacing and retry. It returns the last
// error once retries are exhausted; callers decide whether delivery
// failure matters for their state transition.
func (d *Dispatcher) Send(ctx context.Context, recipient int64, kind Kind, fields Fields) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		err := d.transport.Send(ctx, recipient, kind, fields)
		if err == nil {
			metrics.IncNotificationDispatch(string(kind), "sent")
			return nil
		}
		lastErr = err

		if attempt < d.config.MaxRetries {
			delay := d.config.RetryDelays[min(attempt, len(d.config.RetryDelays)-1)]
			d.logger.Info().
				Int("attempt", attempt+1).
				Int("max_retries", d.config.MaxRetries).
				Dur("delay", delay).
				Err(err).
				Msg("retrying notification send")

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	metrics.IncNotificationDispatch(string(kind), "failed")
	d.logger.Error().
		Int64("recipient", recipient).
		Str("kind", string(kind)).
		Err(lastErr).
		Msg("notification send failed after retries")

	return lastErr
}

// LogTransport writes notifications to the log. Used in development and
// as the default when no real transport is configured.
type LogTransport struct {
	logger zerolog.Logger
}

// NewLogTransport creates a log-only transport.
func NewLogTransport(logger zerolog.Logger) *LogTransport {
	return &LogTransport{logger: logger.With().Str("component", "notify_log").Logger()}
}

// Send implements Transport.
func (t *LogTransport) Send(_ context.Context, recipient int64, kind Kind, fields Fields) error {
	ev := t.logger.Info().Int64("recipient", recipient).Str("kind", string(kind))
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg("notification dispatched")
	return nil
}
