package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"bookit/internal/service"
)

type createBookingRequest struct {
	VenueID             int64     `json:"venue_id" validate:"required,gt=0"`
	StartAt             time.Time `json:"start_at" validate:"required"`
	EndAt               time.Time `json:"end_at" validate:"required"`
	EventName           string    `json:"event_name" validate:"required,max=200"`
	EventDescription    string    `json:"event_description" validate:"max=2000"`
	ExpectedAttendees   int       `json:"expected_attendees" validate:"required,gt=0"`
	ContactNumber       string    `json:"contact_number" validate:"required,max=30"`
	SpecialRequirements string    `json:"special_requirements" validate:"max=2000"`
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
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

	b, err := s.bookings.CreateBooking(r.Context(), actorFrom(r), service.CreateBookingInput{
		VenueID:             req.VenueID,
		StartAt:             req.StartAt,
		EndAt:               req.EndAt,
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

func (s *Server) myBookings(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	f := bookingFilterFromQuery(r)
	f.UserID = &actor.UserID
	f.OrderBy = "start_at DESC"

	// when=upcoming|past narrows to events that have not started yet or
	// have already ended, relative to request time.
	switch r.URL.Query().Get("when") {
	case "upcoming":
		now := time.Now().UTC()
		f.StartFrom = &now
		f.OrderBy = "start_at ASC"
	case "past":
		now := time.Now().UTC()
		f.EndBefore = &now
	}

	bookings, err := s.db.FindBookings(r.Context(), f)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, bookings)
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid booking id"))
		return
	}
	b, err := s.db.GetBooking(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if b == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errResponse("booking not found"))
		return
	}

	// Full booking detail is for the owner and venue staff; others see
	// only that the slot is taken via the public calendar.
	actor := actorFrom(r)
	if b.UserID != actor.UserID && !actor.IsAdmin() {
		assigned, err := s.db.IsVenueAdmin(r.Context(), actor.UserID, b.VenueID)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if !assigned {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, errResponse("you cannot view this booking"))
			return
		}
	}
	render.JSON(w, r, b)
}

type cancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid booking id"))
		return
	}
	// The reason is optional; an empty body is fine.
	var req cancelBookingRequest
	_ = render.DecodeJSON(r.Body, &req)

	b, err := s.db.GetBooking(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.bookings.CancelBooking(r.Context(), actorFrom(r), id, req.Reason); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if b != nil {
		s.calendar.Invalidate(r.Context(), b.VenueID, b.Slot().Day())
	}
	render.JSON(w, r, okResponse())
}

func (s *Server) confirmBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid booking id"))
		return
	}
	if err := s.bookings.ConfirmBooking(r.Context(), actorFrom(r), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, okResponse())
}
