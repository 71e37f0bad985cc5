package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"bookit/internal/models"
)

type actorKey struct{}

// requireActor resolves the calling user from the X-User-ID and
// X-User-Role headers set by the authenticating proxy. Requests
// without a valid pair are rejected before reaching a handler.
func requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || userID <= 0 {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, errResponse("missing or invalid X-User-ID header"))
			return
		}
		role := models.Role(r.Header.Get("X-User-Role"))
		if !models.ValidRole(role) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, errResponse("missing or invalid X-User-Role header"))
			return
		}
		actor := models.Actor{UserID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, actor)))
	})
}

func actorFrom(r *http.Request) models.Actor {
	actor, _ := r.Context().Value(actorKey{}).(models.Actor)
	return actor
}
