package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires middleware and routes.
func NewRouter(h *StudioHandler, db Pinger, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(log))
	r.Use(CORS)

	r.Get("/health", HealthCheck(db))

	r.Route("/classes", func(r chi.Router) {
		r.Post("/", h.CreateClass)
		r.Get("/", h.ListClasses)
		r.Get("/{id}", h.GetClass)
		r.Get("/{id}/bookings", h.ListClassBookings)
	})
	r.Get("/classes_in_timezone", h.ListClassesInTimezone)
	r.Post("/book", h.Book)
	r.Get("/bookings", h.GetBookings)

	return r
}
