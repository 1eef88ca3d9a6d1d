// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding/decoding, and request parsing.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
	"github.com/platinummonkey/taskboard/pkg/observability"
)

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteText writes a text/plain body followed by a newline
func WriteText(w http.ResponseWriter, status int, text string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(text + "\n"))
	return err
}

// WriteErrorMessage writes a JSON error response with a custom message
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusTooManyRequests, message)
}

// StatusFor maps an error to its HTTP status. This is the only place the
// error taxonomy is translated.
func StatusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsUnauthenticated(err):
		return http.StatusUnauthorized
	case apperrors.IsForbidden(err):
		return http.StatusForbidden
	case apperrors.IsNotFound(err):
		return http.StatusNotFound
	case apperrors.IsConflict(err):
		return http.StatusConflict
	case apperrors.IsDuplicate(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err with the status from StatusFor. Validation errors
// carry their per-field messages; internal errors are logged and their
// message is not exposed.
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	status := StatusFor(err)
	log := observability.FromContext(r.Context(), logger).WithField("status", status)

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		WriteErrorMessage(w, status, "internal server error")
		return
	}

	log.WithError(err).Debug("Request rejected")

	resp := ErrorResponse{Error: err.Error()}
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}
	_ = WriteJSON(w, status, resp)
}
