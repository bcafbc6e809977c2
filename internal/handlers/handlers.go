package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"finance-tracker/internal/models"
	"finance-tracker/internal/tracker"
)

// Context key type to avoid collisions.
type contextKey string

// SessionContextKey is the context key for the active session.
const SessionContextKey contextKey = "session"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	app *tracker.App
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(app *tracker.App) *Handlers {
	return &Handlers{app: app}
}

// GetSessionFromContext retrieves the active session from request context.
func GetSessionFromContext(r *http.Request) *models.Session {
	if sess, ok := r.Context().Value(SessionContextKey).(*models.Session); ok {
		return sess
	}
	return nil
}

// AuthMiddleware rejects requests when nobody is logged in.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.app.Current(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if sess == nil {
			writeError(w, r, models.ErrNoSession)
			return
		}
		ctx := context.WithValue(r.Context(), SessionContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.app.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SessionFor(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates and opens the session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := h.app.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Logout ends the session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the logged-in user.
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GetSessionFromContext(r))
}

// Categories lists the fixed category table, optionally for one type.
func (h *Handlers) Categories(w http.ResponseWriter, r *http.Request) {
	t := models.TransactionType(strings.ToLower(r.URL.Query().Get("type")))
	if t != "" && !t.Valid() {
		writeError(w, r, models.NewValidationError("type", "type must be income or expense"))
		return
	}
	writeJSON(w, http.StatusOK, models.CategoriesFor(t))
}

type themeBody struct {
	Theme models.Theme `json:"theme"`
}

// GetTheme returns the theme preference.
func (h *Handlers) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.app.Theme(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: theme})
}

// PutTheme stores the theme preference.
func (h *Handlers) PutTheme(w http.ResponseWriter, r *http.Request) {
	var body themeBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.app.SetTheme(r.Context(), body.Theme); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// Health reports liveness, checking storage when a pinger is set.
func Health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			if err := p.Ping(r.Context()); err != nil {
				slog.ErrorContext(r.Context(), "health check failed", slog.Any("error", err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Pinger checks that storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: "VALIDATION_ERROR", Message: verr.Reason, Field: verr.Field})
	case errors.Is(err, models.ErrDuplicateEmail):
		writeJSON(w, http.StatusConflict, ErrorBody{Code: "DUPLICATE_EMAIL", Message: err.Error()})
	case errors.Is(err, models.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Code: "INVALID_CREDENTIALS", Message: err.Error()})
	case errors.Is(err, models.ErrNoSession):
		writeJSON(w, http.StatusUnauthorized, ErrorBody{Code: "NO_SESSION", Message: err.Error()})
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Code: "INTERNAL_ERROR", Message: "internal server error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Code: "BAD_REQUEST", Message: "request body must be valid JSON"})
		return false
	}
	return true
}
