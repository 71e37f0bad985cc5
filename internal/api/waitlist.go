package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"bookit/internal/models"
	"bookit/internal/service"
)

type joinWaitlistRequest struct {
	VenueID int64     `json:"venue_id" validate:"required,gt=0"`
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
}

func (s *Server) joinWaitlist(w http.ResponseWriter, r *http.Request) {
	var req joinWaitlistRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("failed to decode request"))
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse(err.Error()))
		return
	}

	entry, err := s.waitlist.JoinWaitlist(r.Context(), actorFrom(r), models.Slot{
		VenueID: req.VenueID, StartAt: req.StartAt, EndAt: req.EndAt,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, entry)
}

func (s *Server) myWaitlist(w http.ResponseWriter, r *http.Request) {
	entries, err := s.waitlist.MyWaitlist(r.Context(), actorFrom(r))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, entries)
}

type claimSlotRequest struct {
	EventName           string `json:"event_name" validate:"required,max=200"`
	EventDescription    string `json:"event_description" validate:"max=2000"`
	ExpectedAttendees   int    `json:"expected_attendees" validate:"required,gt=0"`
	ContactNumber       string `json:"contact_number" validate:"required,max=30"`
	SpecialRequirements string `json:"special_requirements" validate:"max=2000"`
}

func (s *Server) claimSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid waitlist entry id"))
		return
	}
	var req claimSlotRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("failed to decode request"))
		return
	}
	if err := validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse(err.Error()))
		return
	}

	b, err := s.waitlist.ClaimSlot(r.Context(), actorFrom(r), id, service.ClaimInput{
		EventName:           req.EventName,
		EventDescription:    req.EventDescription,
		ExpectedAttendees:   req.ExpectedAttendees,
		ContactNumber:       req.ContactNumber,
		SpecialRequirements: req.SpecialRequirements,
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.calendar.Invalidate(r.Context(), b.VenueID, b.Slot().Day())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, b)
}

func (s *Server) leaveWaitlist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid waitlist entry id"))
		return
	}
	if err := s.waitlist.LeaveWaitlist(r.Context(), actorFrom(r), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, okResponse())
}
