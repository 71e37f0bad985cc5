package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/render"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	notifications, err := s.db.ListNotifications(r.Context(), actor.UserID, limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, notifications)
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	count, err := s.db.UnreadCount(r.Context(), actor.UserID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]int{"unread": count})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errResponse("invalid notification id"))
		return
	}
	actor := actorFrom(r)
	found, err := s.db.MarkNotificationRead(r.Context(), id, actor.UserID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if !found {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errResponse("notification not found"))
		return
	}
	render.JSON(w, r, okResponse())
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	updated, err := s.db.MarkAllNotificationsRead(r.Context(), actor.UserID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]int64{"updated": updated})
}

func (s *Server) clearReadNotifications(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	deleted, err := s.db.ClearReadNotifications(r.Context(), actor.UserID)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	render.JSON(w, r, map[string]int64{"deleted": deleted})
}
