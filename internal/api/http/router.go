package http

import (
	"net/http"
	"time"

	"equiprent-backend/internal/logger"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewRouter registers the API and probe routes. bookingLimit wraps booking
// creation only; nil disables it.
func NewRouter(h *Handler, health *HealthHandler, bookingLimit func(http.Handler) http.Handler) http.Handler {
	if bookingLimit == nil {
		bookingLimit = func(next http.Handler) http.Handler { return next }
	}

	router := mux.NewRouter()
	router.Use(requestLogging)

	router.HandleFunc("/healthz", health.Live).Methods(http.MethodGet)
	router.HandleFunc("/readyz", health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/equipment/{id}/availability", h.CheckAvailability).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/pricing", h.CalculatePricing).Methods(http.MethodPost)
	api.HandleFunc("/equipment/{id}/blocks", h.ListBlocks).Methods(http.MethodGet)
	api.HandleFunc("/equipment/{id}/blocks", h.CreateBlock).Methods(http.MethodPost)
	api.HandleFunc("/blocks/{id}", h.ResizeBlock).Methods(http.MethodPatch)
	api.HandleFunc("/blocks/{id}", h.DeleteBlock).Methods(http.MethodDelete)
	api.Handle("/bookings", bookingLimit(http.HandlerFunc(h.CreateBooking))).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet)
	api.HandleFunc("/bookings/{id}/status", h.UpdateBookingStatus).Methods(http.MethodPatch)
	api.HandleFunc("/bookings/{id}/dates", h.RescheduleBooking).Methods(http.MethodPatch)

	return otelhttp.NewHandler(router, "equiprent-http")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
