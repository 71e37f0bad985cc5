package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"bookit/internal/apperr"
)

type response struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func okResponse() response {
	return response{Status: "ok"}
}

func errResponse(msg string) response {
	return response{Status: "error", Error: msg}
}

// respondErr maps application errors onto HTTP statuses. Unknown
// errors become opaque 500s; their detail stays in the logs.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errResponse("internal error"))
		return
	}

	var status int
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPermission:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidState, apperr.KindConflict:
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	render.Status(r, status)
	render.JSON(w, r, response{Status: "error", Error: appErr.Msg, Fields: appErr.Fields})
}
