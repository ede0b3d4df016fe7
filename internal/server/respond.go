package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pixtape/internal/services"
	"github.com/desertthunder/pixtape/internal/shared"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to the HTTP status reported to the client.
func statusFor(err error) int {
	var upstream *services.UpstreamError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &upstream):
		if upstream.StatusCode >= 400 && upstream.StatusCode < 600 {
			return upstream.StatusCode
		}
		return http.StatusBadGateway
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrNotAnalyzed):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrMissingCredentials),
		errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrAPIRequest),
		errors.Is(err, shared.ErrParseFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {"error": message}. Server errors are logged and their details hidden.
func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()

	switch {
	case status == http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		msg = http.StatusText(status)
	case status >= 500:
		logger.Warn("upstream failure", "status", status, "error", err)
	}

	var upstream *services.UpstreamError
	if errors.As(err, &upstream) && upstream.Message != "" {
		msg = upstream.Message
	}

	writeJSON(w, status, errorBody{Error: msg})
}
