package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"bookit/internal/interval"
	"bookit/internal/models"
	"bookit/internal/notify"
)

type mockBookingStore struct {
	mock.Mock
}

func (m *mockBookingStore) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}

func (m *mockBookingStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockBookingStore) ConfirmedForDay(ctx context.Context, venueID int64, dayStart, dayEnd time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, venueID, dayStart, dayEnd)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingStore) CreateInSlot(ctx context.Context, b *models.Booking, check interval.Checker) error {
	args := m.Called(ctx, b, check)
	if args.Error(0) == nil {
		b.ID = 1
	}
	return args.Error(0)
}

func (m *mockBookingStore) MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) MarkConfirmed(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) CancelBooking(ctx context.Context, id int64, reason string, actorID int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, actorID, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) AutoCancelBooking(ctx context.Context, id int64, reason string, at time.Time) (bool, error) {
	args := m.Called(ctx, id, reason, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockBookingStore) RemindersDue(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingStore) AutoCancelDue(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *mockBookingStore) CompletePastBookings(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBookingStore) VenueAdminsFor(ctx context.Context, venueID int64) ([]int64, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).([]int64), args.Error(1)
}

type mockWaitlistStore struct {
	mock.Mock
}

func (m *mockWaitlistStore) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Venue), args.Error(1)
}

func (m *mockWaitlistStore) GetWaitlistEntry(ctx context.Context, id int64) (*models.WaitlistEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaitlistEntry), args.Error(1)
}

func (m *mockWaitlistStore) CreateWaitlistEntry(ctx context.Context, e *models.WaitlistEntry) error {
	args := m.Called(ctx, e)
	if args.Error(0) == nil {
		e.ID = 1
	}
	return args.Error(0)
}

func (m *mockWaitlistStore) ActiveEntryForSlot(ctx context.Context, userID int64, slot models.Slot) (*models.WaitlistEntry, error) {
	args := m.Called(ctx, userID, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaitlistEntry), args.Error(1)
}

func (m *mockWaitlistStore) CountActiveForUserBetween(ctx context.Context, userID int64, from, to time.Time) (int, error) {
	args := m.Called(ctx, userID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *mockWaitlistStore) HasConfirmedBookingForSlot(ctx context.Context, userID int64, slot models.Slot) (bool, error) {
	args := m.Called(ctx, userID, slot)
	return args.Bool(0), args.Error(1)
}

func (m *mockWaitlistStore) ListUserWaitlist(ctx context.Context, userID int64) ([]models.WaitlistEntry, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.WaitlistEntry), args.Error(1)
}

func (m *mockWaitlistStore) HeadOfQueue(ctx context.Context, slot models.Slot) (*models.WaitlistEntry, error) {
	args := m.Called(ctx, slot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WaitlistEntry), args.Error(1)
}

func (m *mockWaitlistStore) MarkNotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockWaitlistStore) StaleNotified(ctx context.Context, cutoff time.Time) ([]models.WaitlistEntry, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]models.WaitlistEntry), args.Error(1)
}

func (m *mockWaitlistStore) MarkExpired(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockWaitlistStore) DeleteWaitlistEntry(ctx context.Context, id, userID int64) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockWaitlistStore) ClaimAndBook(ctx context.Context, entryID int64, b *models.Booking, check interval.Checker) error {
	args := m.Called(ctx, entryID, b, check)
	if args.Error(0) == nil {
		b.ID = 1
	}
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(ctx context.Context, recipient int64, kind notify.Kind, fields notify.Fields) error {
	return m.Called(ctx, recipient, kind, fields).Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) Record(ctx context.Context, n *models.Notification) {
	m.Called(ctx, n)
}

type mockSignal struct {
	mock.Mock
}

func (m *mockSignal) NotifyHead(ctx context.Context, slot models.Slot) error {
	return m.Called(ctx, slot).Error(0)
}

type mockAssignments struct {
	mock.Mock
}

func (m *mockAssignments) IsVenueAdmin(ctx context.Context, userID, venueID int64) (bool, error) {
	args := m.Called(ctx, userID, venueID)
	return args.Bool(0), args.Error(1)
}
