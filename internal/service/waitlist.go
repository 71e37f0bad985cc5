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

// WaitlistOptions carries the queue tunables.
type WaitlistOptions struct {
	Horizon         time.Duration
	MaxActivePerDay int
}

// WaitlistService manages the per-slot FIFO queue: joining, head
// notification with a claim window, claiming and expiry.
type WaitlistService struct {
	store    WaitlistStore
	checker  interval.Checker
	perms    PermissionChecker
	notifier Notifier
	sink     Sink
	opts     WaitlistOptions
	logger   zerolog.Logger
}

func NewWaitlistService(store WaitlistStore, checker interval.Checker, perms PermissionChecker,
	notifier Notifier, sink Sink, opts WaitlistOptions, logger zerolog.Logger) *WaitlistService {
	return &WaitlistService{
		store:    store,
		checker:  checker,
		perms:    perms,
		notifier: notifier,
		sink:     sink,
		opts:     opts,
		logger:   logger.With().Str("component", "waitlist_service").Logger(),
	}
}

// JoinWaitlist queues the actor for a slot. The slot need not be full
// at join time; the queue only matters once it is.
func (s *WaitlistService) JoinWaitlist(ctx context.Context, actor models.Actor, slot models.Slot) (*models.WaitlistEntry, error) {
	ok, err := s.perms.Can(ctx, actor, policy.ActionCreateBooking, policy.Resource{VenueID: slot.VenueID})
	if err != nil {
		return nil, fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return nil, apperr.Permission("your role cannot book venues")
	}

	venue, err := s.store.GetVenue(ctx, slot.VenueID)
	if err != nil {
		return nil, fmt.Errorf("load venue: %w", err)
	}
	if venue == nil || !venue.IsActive {
		return nil, apperr.ValidationField("venue_id", "venue not found or inactive")
	}

	now := time.Now().UTC()
	slot.StartAt, slot.EndAt = slot.StartAt.UTC(), slot.EndAt.UTC()
	switch {
	case !slot.EndAt.After(slot.StartAt):
		return nil, apperr.ValidationField("end_at", "end time must be after start time")
	case !models.SameDay(slot.StartAt, slot.EndAt):
		return nil, apperr.ValidationField("end_at", "slot must start and end on the same day")
	case !slot.StartAt.After(now):
		return nil, apperr.ValidationField("start_at", "slot must be in the future")
	case slot.StartAt.After(now.Add(s.opts.Horizon)):
		return nil, apperr.ValidationField("start_at", "slot is beyond the booking horizon")
	}

	booked, err := s.store.HasConfirmedBookingForSlot(ctx, actor.UserID, slot)
	if err != nil {
		return nil, fmt.Errorf("check own booking: %w", err)
	}
	if booked {
		return nil, apperr.InvalidState("you already hold a booking for this slot")
	}

	existing, err := s.store.ActiveEntryForSlot(ctx, actor.UserID, slot)
	if err != nil {
		return nil, fmt.Errorf("check existing entry: %w", err)
	}
	if existing != nil {
		return nil, apperr.InvalidState("you are already on the waitlist for this slot")
	}

	dayStart, dayEnd := models.DayBounds(slot.StartAt)
	active, err := s.store.CountActiveForUserBetween(ctx, actor.UserID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("count active entries: %w", err)
	}
	if active >= s.opts.MaxActivePerDay {
		return nil, apperr.Validation(
			fmt.Sprintf("at most %d active waitlist entries per day", s.opts.MaxActivePerDay), nil)
	}

	e := &models.WaitlistEntry{
		Ref:       uuid.NewString(),
		VenueID:   slot.VenueID,
		UserID:    actor.UserID,
		StartAt:   slot.StartAt,
		EndAt:     slot.EndAt,
		CreatedAt: now,
	}
	if err := s.store.CreateWaitlistEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("create waitlist entry: %w", err)
	}

	metrics.IncWaitlistEvent("joined")
	s.logger.Info().
		Int64("entry_id", e.ID).
		Int64("user_id", e.UserID).
		Str("slot", slot.String()).
		Msg("joined waitlist")
	return e, nil
}

// NotifyHead offers a freed slot to the queue head and starts its claim
// window. Delivery runs before the notified flag is set: if delivery
// fails the head stays eligible and the next free-up retries it.
func (s *WaitlistService) NotifyHead(ctx context.Context, slot models.Slot) error {
	head, err := s.store.HeadOfQueue(ctx, slot)
	if err != nil {
		return fmt.Errorf("load queue head: %w", err)
	}
	if head == nil {
		return nil
	}

	fields := notify.Fields{
		"start_at": head.StartAt.Format(time.RFC3339),
		"end_at":   head.EndAt.Format(time.RFC3339),
		"claim_by": time.Now().UTC().Add(models.ClaimWindow).Format(time.RFC3339),
	}
	if err := s.notifier.Send(ctx, head.UserID, notify.KindWaitlistAvailable, fields); err != nil {
		return fmt.Errorf("notify queue head: %w", err)
	}

	now := time.Now().UTC()
	marked, err := s.store.MarkNotified(ctx, head.ID, now)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	if !marked {
		// Entry changed under us; the offer message is a harmless dupe.
		return nil
	}

	metrics.IncWaitlistEvent("notified")
	s.logger.Info().
		Int64("entry_id", head.ID).
		Int64("user_id", head.UserID).
		Str("slot", slot.String()).
		Msg("waitlist head notified")

	s.sink.Record(ctx, &models.Notification{
		UserID:         head.UserID,
		Type:           models.NotifyWaitlist,
		Title:          "Slot Available",
		Message:        fmt.Sprintf("A slot you waitlisted is free: %s. You have %d minutes to claim it.", head.Slot().String(), int(models.ClaimWindow.Minutes())),
		RelatedVenueID: &head.VenueID,
	})
	return nil
}

// ClaimInput is the booking detail supplied when converting a waitlist
// entry into a booking.
type ClaimInput struct {
	EventName           string
	EventDescription    string
	ExpectedAttendees   int
	ContactNumber       string
	SpecialRequirements string
}

// ClaimSlot converts a notified entry into a confirmed booking. The
// claim window is measured from the stored notified_at timestamp, and
// availability is re-checked inside the slot transaction, so two claims
// or a claim racing a direct booking cannot both win.
func (s *WaitlistService) ClaimSlot(ctx context.Context, actor models.Actor, entryID int64, in ClaimInput) (*models.Booking, error) {
	e, err := s.store.GetWaitlistEntry(ctx, entryID)
	if err != nil {
		return nil, fmt.Errorf("load waitlist entry: %w", err)
	}
	if e == nil {
		return nil, apperr.NotFound("waitlist entry not found")
	}

	ok, err := s.perms.Can(ctx, actor, policy.ActionClaimSlot,
		policy.Resource{OwnerID: e.UserID, VenueID: e.VenueID})
	if err != nil {
		return nil, fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return nil, apperr.Permission("only the waitlisted user can claim this slot")
	}

	now := time.Now().UTC()
	switch {
	case e.Claimed:
		return nil, apperr.InvalidState("this entry was already claimed")
	case e.Expired:
		return nil, apperr.InvalidState("the claim window for this entry has expired")
	case !e.Notified:
		return nil, apperr.InvalidState("this entry has not been offered a slot yet")
	case e.ClaimWindowElapsed(now):
		return nil, apperr.InvalidState("the claim window for this entry has expired")
	}

	venue, err := s.store.GetVenue(ctx, e.VenueID)
	if err != nil {
		return nil, fmt.Errorf("load venue: %w", err)
	}
	if venue == nil || !venue.IsActive {
		return nil, apperr.ValidationField("venue_id", "venue not found or inactive")
	}
	switch {
	case in.EventName == "":
		return nil, apperr.ValidationField("event_name", "event name is required")
	case in.ExpectedAttendees <= 0:
		return nil, apperr.ValidationField("expected_attendees", "expected attendees must be positive")
	case in.ExpectedAttendees > venue.Capacity:
		return nil, apperr.ValidationField("expected_attendees",
			fmt.Sprintf("venue capacity is %d", venue.Capacity))
	case in.ContactNumber == "":
		return nil, apperr.ValidationField("contact_number", "contact number is required")
	}

	b := &models.Booking{
		Ref:                 uuid.NewString(),
		VenueID:             e.VenueID,
		UserID:              e.UserID,
		EventName:           in.EventName,
		EventDescription:    in.EventDescription,
		StartAt:             e.StartAt,
		EndAt:               e.EndAt,
		ExpectedAttendees:   in.ExpectedAttendees,
		ContactNumber:       in.ContactNumber,
		SpecialRequirements: in.SpecialRequirements,
		Status:              models.StatusConfirmed,
		// Claiming counts as attendance confirmation; the reminder and
		// auto-cancel sweeps must not touch this booking.
		Confirmed:   true,
		ConfirmedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.ClaimAndBook(ctx, e.ID, b, s.checker); err != nil {
		if apperr.IsConflict(err) {
			return nil, err
		}
		return nil, fmt.Errorf("claim slot: %w", err)
	}

	metrics.IncWaitlistEvent("claimed")
	metrics.IncBookingCreated()
	s.logger.Info().
		Int64("entry_id", e.ID).
		Int64("booking_id", b.ID).
		Int64("user_id", e.UserID).
		Msg("waitlist slot claimed")

	s.sink.Record(ctx, &models.Notification{
		UserID:           b.UserID,
		Type:             models.NotifyBookingConfirmed,
		Title:            "Booking Confirmed",
		Message:          fmt.Sprintf("You claimed %s for %q on %s.", venue.Name, b.EventName, b.StartAt.Format("Jan 2 15:04")),
		RelatedBookingID: &b.ID,
		RelatedVenueID:   &b.VenueID,
	})
	return b, nil
}

// LeaveWaitlist removes the actor's own active entry from the queue.
func (s *WaitlistService) LeaveWaitlist(ctx context.Context, actor models.Actor, entryID int64) error {
	e, err := s.store.GetWaitlistEntry(ctx, entryID)
	if err != nil {
		return fmt.Errorf("load waitlist entry: %w", err)
	}
	if e == nil {
		return apperr.NotFound("waitlist entry not found")
	}

	ok, err := s.perms.Can(ctx, actor, policy.ActionLeaveWaitlist,
		policy.Resource{OwnerID: e.UserID, VenueID: e.VenueID})
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !ok {
		return apperr.Permission("only the waitlisted user can leave the queue")
	}
	if e.Claimed {
		return apperr.InvalidState("this entry was already claimed")
	}

	removed, err := s.store.DeleteWaitlistEntry(ctx, entryID, actor.UserID)
	if err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	if !removed {
		return apperr.NotFound("waitlist entry not found")
	}

	metrics.IncWaitlistEvent("left")
	s.logger.Info().Int64("entry_id", entryID).Int64("user_id", actor.UserID).Msg("left waitlist")

	// If the departing user had the open offer, hand it to the next head.
	if e.Notified {
		if err := s.NotifyHead(ctx, e.Slot()); err != nil {
			s.logger.Error().Err(err).Str("slot", e.Slot().String()).Msg("waitlist head notification failed")
		}
	}
	return nil
}

// MyWaitlist lists the actor's entries, newest first.
func (s *WaitlistService) MyWaitlist(ctx context.Context, actor models.Actor) ([]models.WaitlistEntry, error) {
	entries, err := s.store.ListUserWaitlist(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	return entries, nil
}

// ExpireStale expires entries whose claim window lapsed and cascades
// each freed offer to the next head. Expiry of one entry never blocks
// the rest of the sweep.
func (s *WaitlistService) ExpireStale(ctx context.Context, now time.Time) Stats {
	var st Stats
	stale, err := s.store.StaleNotified(ctx, now.Add(-models.ClaimWindow))
	if err != nil {
		s.logger.Error().Err(err).Msg("expiry sweep query failed")
		return st
	}
	st.Total = len(stale)

	for i := range stale {
		e := &stale[i]
		expired, err := s.store.MarkExpired(ctx, e.ID)
		if err != nil {
			st.Failed++
			s.logger.Error().Err(err).Int64("entry_id", e.ID).Msg("mark expired failed")
			continue
		}
		if !expired {
			st.Skipped++
			continue
		}
		st.Done++
		metrics.IncWaitlistEvent("expired")
		s.logger.Info().Int64("entry_id", e.ID).Int64("user_id", e.UserID).Msg("waitlist offer expired")

		s.sink.Record(ctx, &models.Notification{
			UserID:         e.UserID,
			Type:           models.NotifyWaitlist,
			Title:          "Offer Expired",
			Message:        fmt.Sprintf("Your claim window for %s has expired.", e.Slot().String()),
			RelatedVenueID: &e.VenueID,
		})

		if err := s.NotifyHead(ctx, e.Slot()); err != nil {
			s.logger.Error().Err(err).Str("slot", e.Slot().String()).Msg("cascade notification failed")
		}
	}
	return st
}
