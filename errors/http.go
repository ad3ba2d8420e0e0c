package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

var httpStatusMap = map[string]int{
	CodeInternal:               http.StatusInternalServerError,
	CodeNotFound:               http.StatusNotFound,
	CodeBadRequest:             http.StatusBadRequest,
	CodeUnauthorized:           http.StatusUnauthorized,
	CodeForbidden:              http.StatusForbidden,
	CodeConflict:               http.StatusConflict,
	CodeValidation:             http.StatusBadRequest,
	CodeUnavailable:            http.StatusServiceUnavailable,
	CodeRateLimited:            http.StatusTooManyRequests,
	CodeUnsupportedMediaType:   http.StatusUnsupportedMediaType,
	CodeMissingField:           http.StatusBadRequest,
	CodeInvalidDistance:        http.StatusBadRequest,
	CodeInvalidFuel:            http.StatusBadRequest,
	CodeOccupancyLimitExceeded: http.StatusBadRequest,
	CodeNoRecords:              http.StatusNotFound,
	CodeExportInProgress:       http.StatusConflict,
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// ErrorBody contains the error details.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HTTPStatus returns the HTTP status code for an error. Errors that are not
// an *AppError map to 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, exists := httpStatusMap[appErr.Code]; exists {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteError writes an error response. The message of errors that are not an
// *AppError is never exposed.
func WriteError(w http.ResponseWriter, err error, requestID string) {
	status := HTTPStatus(err)

	body := ErrorBody{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		body.Code = appErr.Code
		body.Message = appErr.Message
		body.Details = appErr.Details
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: body, RequestID: requestID})
}
