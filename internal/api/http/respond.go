package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps domain errors onto HTTP statuses. Anything untyped is a 500.
func statusFor(err error) (int, string) {
	switch {
	case domain.IsInvalidRequest(err):
		return http.StatusBadRequest, "invalid_request"
	case domain.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case domain.IsOverlap(err):
		return http.StatusConflict, "overlap"
	case domain.IsSerializationConflict(err):
		return http.StatusConflict, "serialization_conflict"
	case domain.IsStoreError(err):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		var se *domain.StoreError
		if errors.As(err, &se) {
			msg = "storage temporarily unavailable"
		} else {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: msg, Code: code})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.NewInvalidRequest("malformed request body: %v", err)
	}
	return nil
}
