package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"bookit/internal/report"
)

// exportBookings streams an Excel workbook of bookings. Super admins
// export any venue; hall admins only the venues assigned to them.
func (s *Server) exportBookings(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	f := bookingFilterFromQuery(r)
	f.OrderBy = "start_at ASC"

	venueID, _ := strconv.ParseInt(r.URL.Query().Get("venue_id"), 10, 64)
	if venueID > 0 {
		f.VenueID = &venueID
	}

	switch {
	case actor.IsAdmin():
		// Unrestricted.
	case actor.IsHallAdmin():
		assigned, err := s.db.AssignedVenues(r.Context(), actor.UserID)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		if len(assigned) == 0 {
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, errResponse("no venues assigned"))
			return
		}
		if venueID > 0 {
			if !containsID(assigned, venueID) {
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, errResponse("venue not assigned to you"))
				return
			}
		} else {
			f.VenueIDs = assigned
		}
	default:
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, errResponse("reports are restricted to venue administrators"))
		return
	}

	bookings, err := s.db.FindBookings(r.Context(), f)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	names := make(map[int64]string)
	venues, err := s.db.ListVenues(r.Context(), false)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	for _, v := range venues {
		names[v.ID] = v.Name
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := report.Bookings(w, bookings, func(id int64) string { return names[id] }); err != nil {
		s.logger.Error().Err(err).Msg("report export failed")
	}
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
