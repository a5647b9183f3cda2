// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/Shivanand-hulikatti/studio-booking/internal/model"
	"github.com/Shivanand-hulikatti/studio-booking/internal/repository"
	"github.com/Shivanand-hulikatti/studio-booking/internal/service"
	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
	"github.com/go-chi/chi/v5"
)

// Machine-readable codes carried in ErrorResponse.Code.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeCapacityExceeded = "CAPACITY_EXCEEDED"
	CodeInvalidTimezone  = "INVALID_TIMEZONE"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInternal         = "INTERNAL_ERROR"
)

// Studio is the service surface the handlers need.
type Studio interface {
	CreateClass(ctx context.Context, req model.CreateClassRequest) (*model.Class, error)
	ListClasses(ctx context.Context, zone string) ([]model.Class, error)
	GetClass(ctx context.Context, id int64, zone string) (*model.Class, error)
	Book(ctx context.Context, req model.BookRequest) (*model.Booking, error)
	BookingsFor(ctx context.Context, email string) ([]model.Booking, error)
	ListClassBookings(ctx context.Context, classID int64) ([]model.Booking, error)
}

// StudioHandler holds all HTTP handlers for the booking API.
type StudioHandler struct {
	svc         Studio
	defaultZone string
	log         *logger.Logger
}

// NewStudioHandler constructs a StudioHandler. defaultZone is used by
// /classes_in_timezone when the tz parameter is omitted.
func NewStudioHandler(svc Studio, defaultZone string, log *logger.Logger) *StudioHandler {
	return &StudioHandler{svc: svc, defaultZone: defaultZone, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, model.ErrorResponse{Error: msg, Code: code, Details: details})
}

// decodeJSON reads one JSON value from the body. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeServiceError maps service errors onto status codes.
func (h *StudioHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, "validation failed", verrs)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "class not found", nil)
	case errors.Is(err, repository.ErrCapacityExceeded):
		writeError(w, http.StatusBadRequest, CodeCapacityExceeded, "no slots available", nil)
	case errors.Is(err, timezone.ErrInvalidTimezone):
		writeError(w, http.StatusBadRequest, CodeInvalidTimezone, err.Error(), nil)
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}

func classID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, service.ValidationErrors{{Field: "id", Message: "id must be an integer"}}
	}
	return id, nil
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateClass handles POST /classes
func (h *StudioHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req model.CreateClassRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, "invalid request body: "+err.Error(), nil)
		return
	}

	class, err := h.svc.CreateClass(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, class)
}

// ListClasses handles GET /classes
// Start times are UTC unless ?tz= names another zone.
func (h *StudioHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	h.listClasses(w, r, r.URL.Query().Get("tz"))
}

// ListClassesInTimezone handles GET /classes_in_timezone
// Same as ListClasses but tz defaults to the studio zone.
func (h *StudioHandler) ListClassesInTimezone(w http.ResponseWriter, r *http.Request) {
	zone := r.URL.Query().Get("tz")
	if zone == "" {
		zone = h.defaultZone
	}
	h.listClasses(w, r, zone)
}

func (h *StudioHandler) listClasses(w http.ResponseWriter, r *http.Request, zone string) {
	classes, err := h.svc.ListClasses(r.Context(), zone)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if classes == nil {
		classes = []model.Class{}
	}
	writeJSON(w, http.StatusOK, classes)
}

// GetClass handles GET /classes/{id}
func (h *StudioHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	id, err := classID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	class, err := h.svc.GetClass(r.Context(), id, r.URL.Query().Get("tz"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, class)
}

// ListClassBookings handles GET /classes/{id}/bookings
func (h *StudioHandler) ListClassBookings(w http.ResponseWriter, r *http.Request) {
	id, err := classID(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	bookings, err := h.svc.ListClassBookings(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// Book handles POST /book
func (h *StudioHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req model.BookRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, "invalid request body: "+err.Error(), nil)
		return
	}

	booking, err := h.svc.Book(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// GetBookings handles GET /bookings?email=
// The parameter must be present; an empty value matches nothing.
func (h *StudioHandler) GetBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("email") {
		h.writeServiceError(w, r, service.ValidationErrors{{Field: "email", Message: "email is required"}})
		return
	}

	bookings, err := h.svc.BookingsFor(r.Context(), query.Get("email"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Pinger reports store reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck handles GET /health
func HealthCheck(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
