package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "booking_cancelled_total",
			Help:      "Count of bookings cancelled, by origin (manual/auto).",
		},
		[]string{"origin"},
	)

	bookingConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "booking_confirmed_total",
			Help:      "Count of bookings confirmed by their owners.",
		},
	)

	remindersSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "reminders_sent_total",
			Help:      "Count of booking reminders dispatched.",
		},
	)

	waitlistEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "waitlist_events_total",
			Help:      "Count of waitlist transitions by event (joined/notified/expired/claimed/left).",
		},
		[]string{"event"},
	)

	notificationDispatch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "notification_dispatch_total",
			Help:      "Count of outbound notification dispatch attempts by kind and status.",
		},
		[]string{"kind", "status"},
	)

	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bookit",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of reconciliation sweeps.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"sweep"},
	)

	sweepProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookit",
			Name:      "sweep_processed_total",
			Help:      "Entities processed by reconciliation sweeps, by sweep and outcome.",
		},
		[]string{"sweep", "outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingCreated, bookingCancelled, bookingConfirmed,
			remindersSent, waitlistEvents, notificationDispatch,
			sweepDuration, sweepProcessed)
	})
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingCancelled(origin string) {
	bookingCancelled.WithLabelValues(origin).Inc()
}

func IncBookingConfirmed() {
	bookingConfirmed.Inc()
}

func IncReminderSent() {
	remindersSent.Inc()
}

func IncWaitlistEvent(event string) {
	waitlistEvents.WithLabelValues(event).Inc()
}

func IncNotificationDispatch(kind, status string) {
	notificationDispatch.WithLabelValues(kind, status).Inc()
}

func ObserveSweep(sweep string, d time.Duration) {
	sweepDuration.WithLabelValues(sweep).Observe(d.Seconds())
}

func AddSweepProcessed(sweep, outcome string, n int) {
	sweepProcessed.WithLabelValues(sweep, outcome).Add(float64(n))
}
