package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"bookit/internal/database"
	"bookit/internal/models"
)

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("all") != "true"
	venues, err := s.db.ListVenues(r.Context(), activeOnly)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, venues)
}

func (s *Server) getVenue(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid venue id"))
		return
	}
	venue, err := s.db.GetVenue(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if venue == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errResponse("venue not found"))
		return
	}
	render.JSON(w, r, venue)
}

// calendarSlot is the public day-view projection: occupied ranges
// only, no organizer details.
type calendarSlot struct {
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
}

type calendarResponse struct {
	VenueID int64          `json:"venue_id"`
	Date    string         `json:"date"`
	Booked  []calendarSlot `json:"booked"`
}

func (s *Server) venueCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid venue id"))
		return
	}
	day, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("date must be YYYY-MM-DD"))
		return
	}
	dateKey := day.Format("2006-01-02")

	var resp calendarResponse
	if s.calendar.Get(r.Context(), id, dateKey, &resp) {
		render.JSON(w, r, resp)
		return
	}

	dayStart, dayEnd := models.DayBounds(day.UTC())
	bookings, err := s.db.ConfirmedForDay(r.Context(), id, dayStart, dayEnd)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	resp = calendarResponse{VenueID: id, Date: dateKey, Booked: make([]calendarSlot, len(bookings))}
	for i, b := range bookings {
		resp.Booked[i] = calendarSlot{StartAt: b.StartAt, EndAt: b.EndAt}
	}
	s.calendar.Set(r.Context(), id, dateKey, resp)
	render.JSON(w, r, resp)
}

func (s *Server) checkAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid venue id"))
		return
	}
	start, err1 := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	end, err2 := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err1 != nil || err2 != nil || !end.After(start) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("start and end must be RFC3339 timestamps with end after start"))
		return
	}

	free, err := s.bookings.CheckAvailability(r.Context(), models.Slot{
		VenueID: id, StartAt: start.UTC(), EndAt: end.UTC(),
	})
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"available": free})
}

// bookingFilterFromQuery is shared by the self-service list and the
// report export.
func bookingFilterFromQuery(r *http.Request) database.BookingFilter {
	var f database.BookingFilter
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		f.Status = s
	}
	if from, err := time.Parse("2006-01-02", q.Get("from")); err == nil {
		u := from.UTC()
		f.StartFrom = &u
	}
	if to, err := time.Parse("2006-01-02", q.Get("to")); err == nil {
		u := to.UTC().Add(24 * time.Hour)
		f.StartUntil = &u
	}
	return f
}
