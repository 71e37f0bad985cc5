package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookit/internal/apperr"
	"bookit/internal/interval"
	"bookit/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestVenue(t *testing.T, db *DB, name string, capacity int) *models.Venue {
	t.Helper()
	v := &models.Venue{
		Name:       name,
		Location:   "North Campus",
		Capacity:   capacity,
		Facilities: []string{"projector"},
		IsActive:   true,
	}
	require.NoError(t, db.CreateVenue(context.Background(), v))
	return v
}

func testSlot(venueID int64) models.Slot {
	day := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	return models.Slot{VenueID: venueID, StartAt: day.Add(10 * time.Hour), EndAt: day.Add(12 * time.Hour)}
}

func insertBooking(t *testing.T, db *DB, venueID, userID int64, start, end time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{
		Ref:               fmt.Sprintf("ref-%d-%d", userID, start.Unix()),
		VenueID:           venueID,
		UserID:            userID,
		EventName:         "Test Event",
		StartAt:           start,
		EndAt:             end,
		ExpectedAttendees: 10,
		ContactNumber:     "555-0100",
		Status:            models.StatusConfirmed,
	}
	require.NoError(t, db.CreateInSlot(context.Background(), b, interval.LinearChecker{}))
	require.NotZero(t, b.ID)
	return b
}

func TestVenues(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	v := createTestVenue(t, db, "Main Auditorium", 50)

	got, err := db.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Main Auditorium", got.Name)
	assert.Equal(t, 50, got.Capacity)
	assert.Equal(t, []string{"projector"}, got.Facilities)
	assert.True(t, got.IsActive)

	missing, err := db.GetVenue(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	inactive := createTestVenue(t, db, "Old Hall", 20)
	require.NoError(t, db.SetVenueActive(ctx, inactive.ID, false))

	active, err := db.ListVenues(ctx, true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := db.ListVenues(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestVenueAdmins(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)

	require.NoError(t, db.AssignVenueAdmin(ctx, 31, v.ID))
	// Re-assigning is a no-op, not an error.
	require.NoError(t, db.AssignVenueAdmin(ctx, 31, v.ID))

	is, err := db.IsVenueAdmin(ctx, 31, v.ID)
	require.NoError(t, err)
	assert.True(t, is)

	is, err = db.IsVenueAdmin(ctx, 32, v.ID)
	require.NoError(t, err)
	assert.False(t, is)

	admins, err := db.VenueAdminsFor(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{31}, admins)

	venues, err := db.AssignedVenues(ctx, 31)
	require.NoError(t, err)
	assert.Equal(t, []int64{v.ID}, venues)
}

func TestCreateInSlot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	slot := testSlot(v.ID)

	insertBooking(t, db, v.ID, 7, slot.StartAt, slot.EndAt)

	t.Run("OverlapRejected", func(t *testing.T) {
		b := &models.Booking{
			Ref: "ref-overlap", VenueID: v.ID, UserID: 8,
			EventName: "Clash", StartAt: slot.StartAt.Add(time.Hour), EndAt: slot.EndAt.Add(time.Hour),
			Status: models.StatusConfirmed,
		}
		err := db.CreateInSlot(ctx, b, interval.LinearChecker{})
		assert.True(t, apperr.IsConflict(err))
	})

	t.Run("BackToBackAllowed", func(t *testing.T) {
		b := &models.Booking{
			Ref: "ref-adjacent", VenueID: v.ID, UserID: 8,
			EventName: "Adjacent", StartAt: slot.EndAt, EndAt: slot.EndAt.Add(time.Hour),
			Status: models.StatusConfirmed,
		}
		assert.NoError(t, db.CreateInSlot(ctx, b, interval.LinearChecker{}))
	})

	t.Run("CancelledRowDoesNotBlock", func(t *testing.T) {
		other := createTestVenue(t, db, "Seminar Room", 20)
		s := testSlot(other.ID)
		old := insertBooking(t, db, other.ID, 7, s.StartAt, s.EndAt)
		ok, err := db.CancelBooking(ctx, old.ID, "moved", 7, time.Now().UTC())
		require.NoError(t, err)
		require.True(t, ok)

		b := &models.Booking{
			Ref: "ref-refill", VenueID: other.ID, UserID: 8,
			EventName: "Refill", StartAt: s.StartAt, EndAt: s.EndAt,
			Status: models.StatusConfirmed,
		}
		assert.NoError(t, db.CreateInSlot(ctx, b, interval.LinearChecker{}))
	})
}

func TestConditionalUpdates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	slot := testSlot(v.ID)
	now := time.Now().UTC()

	t.Run("ReminderSentOnce", func(t *testing.T) {
		b := insertBooking(t, db, v.ID, 7, slot.StartAt, slot.EndAt)

		ok, err := db.MarkReminderSent(ctx, b.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.MarkReminderSent(ctx, b.ID, now)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("AutoCancelSkipsConfirmed", func(t *testing.T) {
		b := insertBooking(t, db, v.ID, 7, slot.StartAt.Add(3*time.Hour), slot.EndAt.Add(3*time.Hour))

		ok, err := db.MarkConfirmed(ctx, b.ID, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.AutoCancelBooking(ctx, b.ID, "not confirmed", now)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
	})

	t.Run("AutoCancelOnce", func(t *testing.T) {
		b := insertBooking(t, db, v.ID, 7, slot.StartAt.Add(6*time.Hour), slot.EndAt.Add(6*time.Hour))

		ok, err := db.AutoCancelBooking(ctx, b.ID, "not confirmed", now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.AutoCancelBooking(ctx, b.ID, "not confirmed", now)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		assert.True(t, got.AutoCancelled)
	})

	t.Run("CancelOnce", func(t *testing.T) {
		b := insertBooking(t, db, v.ID, 8, slot.StartAt.Add(9*time.Hour), slot.EndAt.Add(9*time.Hour))

		ok, err := db.CancelBooking(ctx, b.ID, "plans changed", 8, now)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.CancelBooking(ctx, b.ID, "again", 8, now)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "plans changed", got.CancellationReason)
		require.NotNil(t, got.CancelledBy)
		assert.Equal(t, int64(8), *got.CancelledBy)
	})
}

func TestSweepQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	now := time.Date(2026, 9, 9, 12, 0, 0, 0, time.UTC)

	inWindow := insertBooking(t, db, v.ID, 7, now.Add(24*time.Hour+30*time.Minute), now.Add(26*time.Hour))
	insertBooking(t, db, v.ID, 8, now.Add(30*time.Hour), now.Add(31*time.Hour))

	due, err := db.RemindersDue(ctx, now.Add(24*time.Hour), now.Add(25*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, inWindow.ID, due[0].ID)

	ok, err := db.MarkReminderSent(ctx, inWindow.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	// Reminded but unconfirmed, so it shows up for auto-cancel once
	// inside the lead window.
	cancelDue, err := db.AutoCancelDue(ctx, now.Add(24*time.Hour), now.Add(25*time.Hour))
	require.NoError(t, err)
	require.Len(t, cancelDue, 1)
	assert.Equal(t, inWindow.ID, cancelDue[0].ID)

	// After the reminder is sent it no longer qualifies for reminders.
	due, err = db.RemindersDue(ctx, now.Add(24*time.Hour), now.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestCompletePastBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	slot := testSlot(v.ID)

	b := insertBooking(t, db, v.ID, 7, slot.StartAt, slot.EndAt)

	n, err := db.CompletePastBookings(ctx, slot.EndAt.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
}

func TestWaitlistQueue(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	slot := testSlot(v.ID)
	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	addEntry := func(userID int64, createdAt time.Time) *models.WaitlistEntry {
		e := &models.WaitlistEntry{
			Ref:     fmt.Sprintf("wl-%d", userID),
			VenueID: v.ID, UserID: userID,
			StartAt: slot.StartAt, EndAt: slot.EndAt,
			CreatedAt: createdAt,
		}
		require.NoError(t, db.CreateWaitlistEntry(ctx, e))
		return e
	}

	first := addEntry(7, base)
	second := addEntry(8, base.Add(time.Minute))
	third := addEntry(9, base.Add(2*time.Minute))

	t.Run("DuplicateLiveEntryRejected", func(t *testing.T) {
		dup := &models.WaitlistEntry{
			Ref: "wl-dup", VenueID: v.ID, UserID: 7,
			StartAt: slot.StartAt, EndAt: slot.EndAt,
		}
		assert.Error(t, db.CreateWaitlistEntry(ctx, dup))
	})

	t.Run("FIFOOrder", func(t *testing.T) {
		head, err := db.HeadOfQueue(ctx, slot)
		require.NoError(t, err)
		require.NotNil(t, head)
		assert.Equal(t, first.ID, head.ID)

		ok, err := db.MarkNotified(ctx, first.ID, base.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, ok)

		head, err = db.HeadOfQueue(ctx, slot)
		require.NoError(t, err)
		require.NotNil(t, head)
		assert.Equal(t, second.ID, head.ID)
	})

	t.Run("ExpiryRequiresNotified", func(t *testing.T) {
		ok, err := db.MarkExpired(ctx, third.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = db.MarkExpired(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = db.MarkExpired(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("StaleNotified", func(t *testing.T) {
		ok, err := db.MarkNotified(ctx, second.ID, base.Add(time.Hour))
		require.NoError(t, err)
		require.True(t, ok)

		stale, err := db.StaleNotified(ctx, base.Add(2*time.Hour))
		require.NoError(t, err)
		require.Len(t, stale, 1)
		assert.Equal(t, second.ID, stale[0].ID)
	})

	t.Run("CountAndDelete", func(t *testing.T) {
		dayStart, dayEnd := models.DayBounds(slot.StartAt)
		count, err := db.CountActiveForUserBetween(ctx, 9, dayStart, dayEnd)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		ok, err := db.DeleteWaitlistEntry(ctx, third.ID, 9)
		require.NoError(t, err)
		assert.True(t, ok)

		count, err = db.CountActiveForUserBetween(ctx, 9, dayStart, dayEnd)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestClaimAndBook(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	slot := testSlot(v.ID)
	now := time.Now().UTC()

	e := &models.WaitlistEntry{
		Ref: "wl-claim", VenueID: v.ID, UserID: 7,
		StartAt: slot.StartAt, EndAt: slot.EndAt,
	}
	require.NoError(t, db.CreateWaitlistEntry(ctx, e))
	ok, err := db.MarkNotified(ctx, e.ID, now)
	require.NoError(t, err)
	require.True(t, ok)

	b := &models.Booking{
		Ref: "ref-claimed", VenueID: v.ID, UserID: 7,
		EventName: "Claimed Event", StartAt: slot.StartAt, EndAt: slot.EndAt,
		ExpectedAttendees: 10, ContactNumber: "555-0100",
		Status: models.StatusConfirmed,
	}
	require.NoError(t, db.ClaimAndBook(ctx, e.ID, b, interval.LinearChecker{}))
	assert.NotZero(t, b.ID)

	got, err := db.GetWaitlistEntry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Claimed)

	// A second claim of the same entry loses.
	again := &models.Booking{
		Ref: "ref-claimed-2", VenueID: v.ID, UserID: 7,
		EventName: "Claimed Twice", StartAt: slot.StartAt, EndAt: slot.EndAt,
		Status: models.StatusConfirmed,
	}
	err = db.ClaimAndBook(ctx, e.ID, again, interval.LinearChecker{})
	assert.True(t, apperr.IsConflict(err))
}

func TestClaimRaceSingleWinner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	v := createTestVenue(t, db, "Main Auditorium", 50)
	slot := testSlot(v.ID)
	now := time.Now().UTC()

	first := &models.WaitlistEntry{
		Ref: "wl-race-1", VenueID: v.ID, UserID: 7,
		StartAt: slot.StartAt, EndAt: slot.EndAt,
	}
	second := &models.WaitlistEntry{
		Ref: "wl-race-2", VenueID: v.ID, UserID: 8,
		StartAt: slot.StartAt, EndAt: slot.EndAt,
	}
	require.NoError(t, db.CreateWaitlistEntry(ctx, first))
	require.NoError(t, db.CreateWaitlistEntry(ctx, second))
	for _, e := range []*models.WaitlistEntry{first, second} {
		ok, err := db.MarkNotified(ctx, e.ID, now)
		require.NoError(t, err)
		require.True(t, ok)
	}

	winner := &models.Booking{
		Ref: "ref-race-winner", VenueID: v.ID, UserID: 7,
		EventName: "Winner Event", StartAt: slot.StartAt, EndAt: slot.EndAt,
		ExpectedAttendees: 10, ContactNumber: "555-0100",
		Status: models.StatusConfirmed, Confirmed: true, ConfirmedAt: &now,
	}
	require.NoError(t, db.ClaimAndBook(ctx, first.ID, winner, interval.LinearChecker{}))
	require.NotZero(t, winner.ID)

	// The second entry is a distinct live claim on the same interval; its
	// availability re-check must see the winner's booking and lose.
	loser := &models.Booking{
		Ref: "ref-race-loser", VenueID: v.ID, UserID: 8,
		EventName: "Loser Event", StartAt: slot.StartAt, EndAt: slot.EndAt,
		ExpectedAttendees: 10, ContactNumber: "555-0200",
		Status: models.StatusConfirmed,
	}
	err := db.ClaimAndBook(ctx, second.ID, loser, interval.LinearChecker{})
	assert.True(t, apperr.IsConflict(err))
	assert.Zero(t, loser.ID)

	// Losing the availability race leaves no booking behind and keeps the
	// entry live for the expiry sweep.
	got, err := db.GetWaitlistEntry(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, got.Claimed)
	assert.False(t, got.Expired)
}

func TestNotifications(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, db.CreateNotification(ctx, &models.Notification{
			UserID: 7, Type: models.NotifySystem,
			Title: fmt.Sprintf("Notice %d", i), Message: "hello",
		}))
	}
	require.NoError(t, db.CreateNotification(ctx, &models.Notification{
		UserID: 8, Type: models.NotifySystem, Title: "Other", Message: "hello",
	}))

	list, err := db.ListNotifications(ctx, 7, 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	count, err := db.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	ok, err := db.MarkNotificationRead(ctx, list[0].ID, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	// Reading someone else's notification does not work.
	ok, err = db.MarkNotificationRead(ctx, list[1].ID, 8)
	require.NoError(t, err)
	assert.False(t, ok)

	updated, err := db.MarkAllNotificationsRead(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	deleted, err := db.ClearReadNotifications(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	count, err = db.UnreadCount(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
