// Package service implements the booking lifecycle and the waitlist
// queue on top of the store primitives. All deadline math works on UTC
// instants supplied by the caller, so sweeps are replayable in tests.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bookit/internal/apperr"
	"bookit/internal/interval"
	"bookit/internal/metrics"
	"bookit/internal/models"
	"bookit/internal/notify"
	"bookit/internal/policy"
)

// BookingOptions carries the lifecycle tunables. Zero values are not
// usable; build it from config getters.
type BookingOptions struct {
	Horizon          time.Duration
	CancelCutoff     time.Duration
	ReminderLead     time.Duration
	ReminderWindow   time.Duration
	AutoCancelLead   time.Duration
	AutoCancelWindow time.Duration
}

// BookingService owns booking creation, cancellation, attendance
// confirmation and the time-driven reminder and auto-cancel sweeps.
type BookingService struct {
	store    BookingStore
	checker  interval.Checker
	perms    PermissionChecker
	notifier Notifier
	sink     Sink
	waitlist WaitlistSignal
	opts     BookingOptions
	logger   zerolog.Logger
}

func NewBookingService(store BookingStore, checker interval.Checker, perms PermissionChecker,
	notifier Notifier, sink Sink, opts BookingOptions, logger zerolog.Logger) *BookingService {
	return &BookingService{
		store:    store,
		checker:  checker,
		perms:    perms,
		notifier: notifier,
		sink:     sink,
		opts:     opts,
		logger:   logger.With().Str("component", "booking_service").Logger(),
	}
}

// SetWaitlistSignal wires the waitlist after construction; the two
// services reference each other.
func (s *BookingService) SetWaitlistSignal(w WaitlistSignal) {
	s.waitlist = w
}

// CreateBookingInput is everything a caller supplies for a new booking.
type CreateBookingInput struct {
	VenueID             int64
	StartAt             time.Time
	EndAt               time.Time
	EventName           string
	EventDescription    string
	ExpectedAttendees   int
	ContactNumber       string
	SpecialRequirements string
}

// CreateBooking validates the request, checks availability and inserts
// the booking inside a slot-scoped transaction. A slot taken between the
// check and the insert surfaces as a validation error on start_at, same
// as a slot that was never free.
func (s *BookingService) CreateBooking(ctx context.Context, actor models.Actor, in CreateBookingInput) (*models.Booking, error) {
	ok, err := s.perms.Can(ctx, actor, policy.ActionCreateBooking, policy.Resource{VenueID: in.VenueID})
	if err != nil {
		return nil, fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return nil, apperr.Permission("your role cannot book venues")
	}

	venue, err := s.store.GetVenue(ctx, in.VenueID)
	if err != nil {
		return nil, fmt.Errorf("load venue: %w", err)
	}
	if venue == nil || !venue.IsActive {
		return nil, apperr.ValidationField("venue_id", "venue not found or inactive")
	}

	now := time.Now().UTC()
	if err := s.validateSlot(in, venue, now); err != nil {
		return nil, err
	}

	b := &models.Booking{
		Ref:                 uuid.NewString(),
		VenueID:             in.VenueID,
		UserID:              actor.UserID,
		EventName:           in.EventName,
		EventDescription:    in.EventDescription,
		StartAt:             in.StartAt.UTC(),
		EndAt:               in.EndAt.UTC(),
		ExpectedAttendees:   in.ExpectedAttendees,
		ContactNumber:       in.ContactNumber,
		SpecialRequirements: in.SpecialRequirements,
		Status:              models.StatusConfirmed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.CreateInSlot(ctx, b, s.checker); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.ValidationField("start_at", "venue is already booked for this time")
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("booking_id", b.ID).
		Int64("venue_id", b.VenueID).
		Int64("user_id", b.UserID).
		Time("start_at", b.StartAt).
		Msg("booking created")

	s.recordCreated(ctx, b, venue)
	return b, nil
}

func (s *BookingService) validateSlot(in CreateBookingInput, venue *models.Venue, now time.Time) error {
	start, end := in.StartAt.UTC(), in.EndAt.UTC()
	switch {
	case !end.After(start):
		return apperr.ValidationField("end_at", "end time must be after start time")
	case !models.SameDay(start, end):
		return apperr.ValidationField("end_at", "booking must start and end on the same day")
	case !start.After(now):
		return apperr.ValidationField("start_at", "booking must be in the future")
	case start.After(now.Add(s.opts.Horizon)):
		return apperr.ValidationField("start_at",
			fmt.Sprintf("booking cannot be more than %d days in advance", int(s.opts.Horizon.Hours()/24)))
	case in.ExpectedAttendees <= 0:
		return apperr.ValidationField("expected_attendees", "expected attendees must be positive")
	case in.ExpectedAttendees > venue.Capacity:
		return apperr.ValidationField("expected_attendees",
			fmt.Sprintf("venue capacity is %d", venue.Capacity))
	case in.EventName == "":
		return apperr.ValidationField("event_name", "event name is required")
	case in.ContactNumber == "":
		return apperr.ValidationField("contact_number", "contact number is required")
	}
	return nil
}

// CheckAvailability reports whether the slot is free of confirmed
// bookings. Advisory only; CreateBooking re-checks transactionally.
func (s *BookingService) CheckAvailability(ctx context.Context, slot models.Slot) (bool, error) {
	dayStart, dayEnd := models.DayBounds(slot.StartAt)
	existing, err := s.store.ConfirmedForDay(ctx, slot.VenueID, dayStart, dayEnd)
	if err != nil {
		return false, fmt.Errorf("load day bookings: %w", err)
	}
	spans := make([]interval.Span, len(existing))
	for i, b := range existing {
		spans[i] = interval.Span{Start: b.StartAt, End: b.EndAt}
	}
	cand := interval.Span{Start: slot.StartAt, End: slot.EndAt}
	return !interval.Conflicts(s.checker, cand, spans), nil
}

// CancelBooking cancels on behalf of the owner, a super admin or an
// assigned hall admin. Cancellation frees the slot and pings the
// waitlist head.
func (s *BookingService) CancelBooking(ctx context.Context, actor models.Actor, bookingID int64, reason string) error {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return apperr.NotFound("booking not found")
	}

	ok, err := s.perms.Can(ctx, actor, policy.ActionCancelBooking,
		policy.Resource{OwnerID: b.UserID, VenueID: b.VenueID})
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return apperr.Permission("you cannot cancel this booking")
	}

	now := time.Now().UTC()
	if b.Status == models.StatusCancelled {
		return apperr.InvalidState("booking is already cancelled")
	}
	if b.IsPast(now) {
		return apperr.InvalidState("booking has already ended")
	}
	if !b.CanCancel(now, s.opts.CancelCutoff) {
		return apperr.InvalidState(
			fmt.Sprintf("bookings cannot be cancelled within %s of the start time", s.opts.CancelCutoff))
	}

	changed, err := s.store.CancelBooking(ctx, bookingID, reason, actor.UserID, now)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	if !changed {
		// Lost a race with another cancel path.
		return apperr.InvalidState("booking is already cancelled")
	}

	metrics.IncBookingCancelled("user")
	s.logger.Info().
		Int64("booking_id", bookingID).
		Int64("actor_id", actor.UserID).
		Msg("booking cancelled")

	s.recordCancelled(ctx, b, reason, actor.UserID != b.UserID)
	s.signalWaitlist(ctx, b.Slot())
	return nil
}

// ConfirmBooking records the owner's attendance confirmation after a
// reminder. Repeat confirmations are no-ops.
func (s *BookingService) ConfirmBooking(ctx context.Context, actor models.Actor, bookingID int64) error {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load booking: %w", err)
	}
	if b == nil {
		return apperr.NotFound("booking not found")
	}

	ok, err := s.perms.Can(ctx, actor, policy.ActionConfirmBooking,
		policy.Resource{OwnerID: b.UserID, VenueID: b.VenueID})
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return apperr.Permission("only the booking owner can confirm attendance")
	}

	now := time.Now().UTC()
	if b.Status != models.StatusConfirmed {
		return apperr.InvalidState("only active bookings can be confirmed")
	}
	// Confirmation only makes sense ahead of the event; once it has
	// started there is nothing left to confirm.
	if !now.Before(b.StartAt) {
		return apperr.InvalidState("booking has already started")
	}

	changed, err := s.store.MarkConfirmed(ctx, bookingID, now)
	if err != nil {
		return fmt.Errorf("confirm booking: %w", err)
	}
	if changed {
		metrics.IncBookingConfirmed()
		s.logger.Info().Int64("booking_id", bookingID).Msg("attendance confirmed")
	}
	return nil
}

// SweepReminders sends reminders for bookings starting within the
// reminder window. The flag is set before dispatch so each booking is
// claimed exactly once even if delivery fails; a failed delivery is
// counted, not retried by the sweep.
func (s *BookingService) SweepReminders(ctx context.Context, now time.Time) Stats {
	from := now.Add(s.opts.ReminderLead)
	to := from.Add(s.opts.ReminderWindow)

	var st Stats
	due, err := s.store.RemindersDue(ctx, from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("reminder sweep query failed")
		return st
	}
	st.Total = len(due)

	for i := range due {
		b := &due[i]
		claimed, err := s.store.MarkReminderSent(ctx, b.ID, now)
		if err != nil {
			st.Failed++
			s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("mark reminder failed")
			continue
		}
		if !claimed {
			st.Skipped++
			continue
		}
		st.Done++
		metrics.IncReminderSent()
		s.sendReminder(ctx, b)
	}
	return st
}

func (s *BookingService) sendReminder(ctx context.Context, b *models.Booking) {
	fields := notify.Fields{
		"event":    b.EventName,
		"start_at": b.StartAt.Format(time.RFC3339),
	}
	if err := s.notifier.Send(ctx, b.UserID, notify.KindBookingReminder, fields); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("reminder delivery failed")
	}
	s.sink.Record(ctx, &models.Notification{
		UserID:           b.UserID,
		Type:             models.NotifyBookingReminder,
		Title:            "Booking Reminder",
		Message:          fmt.Sprintf("Your booking %q starts at %s. Please confirm your attendance.", b.EventName, b.StartAt.Format("15:04 on Jan 2")),
		RelatedBookingID: &b.ID,
		RelatedVenueID:   &b.VenueID,
	})
}

// SweepAutoCancel releases bookings whose owner never confirmed after
// the reminder. Only reminded, unconfirmed bookings inside the lead
// window qualify; the conditional update makes release exactly-once.
func (s *BookingService) SweepAutoCancel(ctx context.Context, now time.Time) Stats {
	from := now.Add(s.opts.AutoCancelLead)
	to := from.Add(s.opts.AutoCancelWindow)

	var st Stats
	due, err := s.store.AutoCancelDue(ctx, from, to)
	if err != nil {
		s.logger.Error().Err(err).Msg("auto-cancel sweep query failed")
		return st
	}
	st.Total = len(due)

	for i := range due {
		b := &due[i]
		released, err := s.autoCancel(ctx, b, now)
		switch {
		case err != nil:
			st.Failed++
			s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("auto-cancel failed")
		case released:
			st.Done++
		default:
			st.Skipped++
		}
	}
	return st
}

func (s *BookingService) autoCancel(ctx context.Context, b *models.Booking, now time.Time) (bool, error) {
	const reason = "not confirmed after reminder"
	released, err := s.store.AutoCancelBooking(ctx, b.ID, reason, now)
	if err != nil || !released {
		return false, err
	}

	metrics.IncBookingCancelled("auto")
	s.logger.Info().Int64("booking_id", b.ID).Msg("booking auto-cancelled")

	fields := notify.Fields{
		"event":    b.EventName,
		"start_at": b.StartAt.Format(time.RFC3339),
		"reason":   reason,
	}
	if err := s.notifier.Send(ctx, b.UserID, notify.KindAutoCancelled, fields); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("auto-cancel notice delivery failed")
	}
	s.sink.Record(ctx, &models.Notification{
		UserID:           b.UserID,
		Type:             models.NotifyBookingCancelled,
		Title:            "Booking Released",
		Message:          fmt.Sprintf("Your booking %q was released because attendance was not confirmed.", b.EventName),
		RelatedBookingID: &b.ID,
		RelatedVenueID:   &b.VenueID,
	})

	s.signalWaitlist(ctx, b.Slot())
	return true, nil
}

// CompletePast moves ended bookings to the completed status in bulk.
func (s *BookingService) CompletePast(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.CompletePastBookings(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("complete past bookings: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("bookings marked completed")
	}
	return n, nil
}

func (s *BookingService) signalWaitlist(ctx context.Context, slot models.Slot) {
	if s.waitlist == nil {
		return
	}
	if err := s.waitlist.NotifyHead(ctx, slot); err != nil {
		s.logger.Error().Err(err).
			Str("slot", slot.String()).
			Msg("waitlist head notification failed")
	}
}

func (s *BookingService) recordCreated(ctx context.Context, b *models.Booking, venue *models.Venue) {
	fields := notify.Fields{
		"event":    b.EventName,
		"venue":    venue.Name,
		"start_at": b.StartAt.Format(time.RFC3339),
	}
	if err := s.notifier.Send(ctx, b.UserID, notify.KindBookingConfirmed, fields); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("confirmation delivery failed")
	}
	s.sink.Record(ctx, &models.Notification{
		UserID:           b.UserID,
		Type:             models.NotifyBookingConfirmed,
		Title:            "Booking Confirmed",
		Message:          fmt.Sprintf("Your booking %q at %s is confirmed for %s.", b.EventName, venue.Name, b.StartAt.Format("Jan 2 15:04")),
		RelatedBookingID: &b.ID,
		RelatedVenueID:   &b.VenueID,
	})

	admins, err := s.store.VenueAdminsFor(ctx, b.VenueID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("venue_id", b.VenueID).Msg("venue admin lookup failed")
		return
	}
	for _, adminID := range admins {
		s.sink.Record(ctx, &models.Notification{
			UserID:           adminID,
			Type:             models.NotifyNewBooking,
			Title:            "New Booking",
			Message:          fmt.Sprintf("%s was booked for %q on %s.", venue.Name, b.EventName, b.StartAt.Format("Jan 2")),
			RelatedBookingID: &b.ID,
			RelatedVenueID:   &b.VenueID,
		})
	}
}

func (s *BookingService) recordCancelled(ctx context.Context, b *models.Booking, reason string, byAdmin bool) {
	msg := fmt.Sprintf("Your booking %q on %s was cancelled.", b.EventName, b.StartAt.Format("Jan 2"))
	if byAdmin {
		msg = fmt.Sprintf("Your booking %q on %s was cancelled by an administrator.", b.EventName, b.StartAt.Format("Jan 2"))
	}
	if reason != "" {
		msg += " Reason: " + reason
	}

	fields := notify.Fields{
		"event":  b.EventName,
		"reason": reason,
	}
	if err := s.notifier.Send(ctx, b.UserID, notify.KindBookingCancelled, fields); err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", b.ID).Msg("cancellation notice delivery failed")
	}
	s.sink.Record(ctx, &models.Notification{
		UserID:           b.UserID,
		Type:             models.NotifyBookingCancelled,
		Title:            "Booking Cancelled",
		Message:          msg,
		RelatedBookingID: &b.ID,
		RelatedVenueID:   &b.VenueID,
	})
}
