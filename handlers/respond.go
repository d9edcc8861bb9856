package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"streamvault/database"
	"streamvault/mail"
	"streamvault/middleware"
	"streamvault/security"
	"streamvault/services"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return security.NewValidationError("Request body is required")
		}
		return security.NewValidationError("Malformed request body: " + err.Error())
	}
	return nil
}

// writeError maps service and database errors onto HTTP responses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *security.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Errors: verr.Problems})
	case errors.Is(err, database.ErrContention):
		slog.Warn("Request abandoned after lock contention", "path", r.URL.Path, "request_id", chimw.GetReqID(r.Context()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "busy, please try again"})
	case errors.Is(err, database.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, services.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: services.ErrInvalidCredentials.Error()})
	case errors.Is(err, services.ErrInvalidToken):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: services.ErrInvalidToken.Error()})
	case errors.Is(err, services.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, mail.ErrNotConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "email delivery is not available"})
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func currentUser(r *http.Request) *services.SessionUser {
	u, _ := middleware.User(r.Context())
	return u
}

// queryInt returns the integer query parameter name, or def when it is
// missing or invalid.
func queryInt(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func param(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

type created struct {
	ID string `json:"id"`
}
