// Package api exposes the REST surface: venues and calendars, the
// booking lifecycle, the waitlist queue, in-app notifications and the
// admin report export. Reads go straight to the store; every mutation
// goes through a service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"bookit/internal/cache"
	"bookit/internal/database"
	"bookit/internal/models"
	"bookit/internal/service"
)

var validate = validator.New()

// BookingAPI is the mutation surface of the booking service.
type BookingAPI interface {
	CreateBooking(ctx context.Context, actor models.Actor, in service.CreateBookingInput) (*models.Booking, error)
	CancelBooking(ctx context.Context, actor models.Actor, bookingID int64, reason string) error
	ConfirmBooking(ctx context.Context, actor models.Actor, bookingID int64) error
	CheckAvailability(ctx context.Context, slot models.Slot) (bool, error)
}

// WaitlistAPI is the mutation surface of the waitlist service.
type WaitlistAPI interface {
	JoinWaitlist(ctx context.Context, actor models.Actor, slot models.Slot) (*models.WaitlistEntry, error)
	ClaimSlot(ctx context.Context, actor models.Actor, entryID int64, in service.ClaimInput) (*models.Booking, error)
	LeaveWaitlist(ctx context.Context, actor models.Actor, entryID int64) error
	MyWaitlist(ctx context.Context, actor models.Actor) ([]models.WaitlistEntry, error)
}

// Server wires handlers to their dependencies.
type Server struct {
	db       *database.DB
	bookings BookingAPI
	waitlist WaitlistAPI
	calendar *cache.Calendar
	logger   zerolog.Logger
}

func NewServer(db *database.DB, bookings BookingAPI, waitlist WaitlistAPI, calendar *cache.Calendar, logger zerolog.Logger) *Server {
	return &Server{
		db:       db,
		bookings: bookings,
		waitlist: waitlist,
		calendar: calendar,
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// Router builds the chi router with the full route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.logRequests)

	r.Route("/api/v1", func(r chi.Router) {
		// Public reads.
		r.Get("/venues", s.listVenues)
		r.Get("/venues/{id}", s.getVenue)
		r.Get("/venues/{id}/calendar", s.venueCalendar)
		r.Get("/venues/{id}/availability", s.checkAvailability)

		// Everything below needs an identified actor.
		r.Group(func(r chi.Router) {
			r.Use(requireActor)

			r.Post("/bookings", s.createBooking)
			r.Get("/bookings", s.myBookings)
			r.Get("/bookings/{id}", s.getBooking)
			r.Post("/bookings/{id}/cancel", s.cancelBooking)
			r.Post("/bookings/{id}/confirm", s.confirmBooking)

			r.Post("/waitlist", s.joinWaitlist)
			r.Get("/waitlist", s.myWaitlist)
			r.Post("/waitlist/{id}/claim", s.claimSlot)
			r.Delete("/waitlist/{id}", s.leaveWaitlist)

			r.Get("/notifications", s.listNotifications)
			r.Get("/notifications/unread-count", s.unreadCount)
			r.Post("/notifications/{id}/read", s.markNotificationRead)
			r.Post("/notifications/read-all", s.markAllNotificationsRead)
			r.Delete("/notifications/read", s.clearReadNotifications)

			r.Get("/reports/bookings", s.exportBookings)
		})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
