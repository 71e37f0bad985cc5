// Package scheduler drives the time-based reconciliation sweeps:
// reminders, auto-cancellation of unconfirmed bookings and waitlist
// offer expiry. Each sweep runs on its own ticker so a slow sweep
// never delays the others.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"bookit/internal/metrics"
	"bookit/internal/service"
)

// Config holds the sweep intervals.
type Config struct {
	ReminderInterval   time.Duration
	AutoCancelInterval time.Duration
	ExpiryInterval     time.Duration
}

// DefaultConfig returns the production sweep cadence.
func DefaultConfig() Config {
	return Config{
		ReminderInterval:   time.Hour,
		AutoCancelInterval: 30 * time.Minute,
		ExpiryInterval:     5 * time.Minute,
	}
}

// Bookings is the sweep surface of the booking service.
type Bookings interface {
	SweepReminders(ctx context.Context, now time.Time) service.Stats
	SweepAutoCancel(ctx context.Context, now time.Time) service.Stats
	CompletePast(ctx context.Context, now time.Time) (int64, error)
}

// Waitlist is the sweep surface of the waitlist service.
type Waitlist interface {
	ExpireStale(ctx context.Context, now time.Time) service.Stats
}

// Scheduler owns the sweep goroutines.
type Scheduler struct {
	config   Config
	bookings Bookings
	waitlist Waitlist
	logger   zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// New creates a scheduler; Start launches the loops.
func New(config Config, bookings Bookings, waitlist Waitlist, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		config:   config,
		bookings: bookings,
		waitlist: waitlist,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		stopCh:   make(chan struct{}),
	}
}

// Start launches one goroutine per sweep. Calling Start twice is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info().
		Dur("reminder_interval", s.config.ReminderInterval).
		Dur("auto_cancel_interval", s.config.AutoCancelInterval).
		Dur("expiry_interval", s.config.ExpiryInterval).
		Msg("scheduler started")

	s.loop(ctx, s.config.ReminderInterval, s.runReminders)
	s.loop(ctx, s.config.AutoCancelInterval, s.runAutoCancel)
	s.loop(ctx, s.config.ExpiryInterval, s.runExpiry)
}

// Stop signals all loops to exit and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// IsRunning reports whether the loops are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow executes every sweep once, immediately. Used at startup to
// catch up after downtime and by tests.
func (s *Scheduler) RunNow(ctx context.Context) {
	now := time.Now().UTC()
	s.runReminders(ctx, now)
	s.runAutoCancel(ctx, now)
	s.runExpiry(ctx, now)
}

func (s *Scheduler) loop(ctx context.Context, interval time.Duration, run func(context.Context, time.Time)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			case tick := <-ticker.C:
				run(ctx, tick.UTC())
			}
		}
	}()
}

func (s *Scheduler) runReminders(ctx context.Context, now time.Time) {
	start := time.Now()
	st := s.bookings.SweepReminders(ctx, now)
	s.observe("reminders", st, time.Since(start))

	// Completion rides on the reminder cadence; it has no urgency of
	// its own.
	if _, err := s.bookings.CompletePast(ctx, now); err != nil {
		s.logger.Error().Err(err).Msg("completion sweep failed")
	}
}

func (s *Scheduler) runAutoCancel(ctx context.Context, now time.Time) {
	start := time.Now()
	st := s.bookings.SweepAutoCancel(ctx, now)
	s.observe("auto_cancel", st, time.Since(start))
}

func (s *Scheduler) runExpiry(ctx context.Context, now time.Time) {
	start := time.Now()
	st := s.waitlist.ExpireStale(ctx, now)
	s.observe("waitlist_expiry", st, time.Since(start))
}

func (s *Scheduler) observe(sweep string, st service.Stats, d time.Duration) {
	metrics.ObserveSweep(sweep, d)
	metrics.AddSweepProcessed(sweep, "done", st.Done)
	metrics.AddSweepProcessed(sweep, "skipped", st.Skipped)
	metrics.AddSweepProcessed(sweep, "failed", st.Failed)

	if st.Total == 0 {
		return
	}
	s.logger.Info().
		Str("sweep", sweep).
		Int("total", st.Total).
		Int("done", st.Done).
		Int("skipped", st.Skipped).
		Int("failed", st.Failed).
		Dur("duration", d).
		Msg("sweep finished")
}
