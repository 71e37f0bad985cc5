// Package policy centralizes permission evaluation so booking and
// waitlist checks cannot drift apart.
package policy

import (
	"context"

	"bookit/internal/models"
)

// Action names a permission-checked operation.
type Action string

const (
	ActionCreateBooking  Action = "booking.create"
	ActionCancelBooking  Action = "booking.cancel"
	ActionConfirmBooking Action = "booking.confirm"
	ActionClaimSlot      Action = "waitlist.claim"
	ActionLeaveWaitlist  Action = "waitlist.leave"
	ActionExportReport   Action = "report.export"
)

// Resource describes the entity an action targets.
type Resource struct {
	OwnerID int64
	VenueID int64
}

// AssignmentStore answers hall-admin venue assignment lookups.
type AssignmentStore interface {
	IsVenueAdmin(ctx context.Context, userID, venueID int64) (bool, error)
}

// Policy evaluates (actor, action, resource) decisions.
type Policy struct {
	assignments AssignmentStore
}

// New creates a policy backed by the given assignment store.
func New(assignments AssignmentStore) *Policy {
	return &Policy{assignments: assignments}
}

// Can reports whether actor may perform action on resource.
func (p *Policy) Can(ctx context.Context, actor models.Actor, action Action, res Resource) (bool, error) {
	switch action {
	case ActionCreateBooking:
		return actor.CanBookVenue(), nil

	case ActionCancelBooking:
		// Owner, super admin, or a hall admin assigned to the venue.
		if actor.UserID == res.OwnerID || actor.IsAdmin() {
			return true, nil
		}
		if actor.IsHallAdmin() {
			return p.assignments.IsVenueAdmin(ctx, actor.UserID, res.VenueID)
		}
		return false, nil

	case ActionConfirmBooking, ActionClaimSlot, ActionLeaveWaitlist:
		// Strictly owner-only, including for admins: confirmation and
		// claiming express the owner's own intent.
		return actor.UserID == res.OwnerID, nil

	case ActionExportReport:
		if actor.IsAdmin() {
			return true, nil
		}
		if actor.IsHallAdmin() && res.VenueID != 0 {
			return p.assignments.IsVenueAdmin(ctx, actor.UserID, res.VenueID)
		}
		return false, nil
	}
	return false, nil
}
