package http

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/consorcio/emissions/errors"
	"github.com/consorcio/emissions/logging"
)

// JSON sends a JSON response.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		// The status line is already written, so an encode error cannot be reported.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// OK sends a 200 OK response with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response.
func Created(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusCreated, data)
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes err as an error response carrying the request ID. Errors that
// map to a 5xx status are logged.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	if apperrors.HTTPStatus(err) >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	apperrors.WriteError(w, err, logging.RequestIDFromContext(r.Context()))
}
