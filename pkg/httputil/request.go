package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/taskboard/pkg/apperrors"
)

// ParseJSON decodes JSON from the request body into dest. Every failure is
// an apperrors.ErrValidation.
func ParseJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is empty", apperrors.ErrValidation)
	}

	err := json.NewDecoder(r.Body).Decode(dest)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return fmt.Errorf("%w: request body is empty", apperrors.ErrValidation)
	case errors.As(err, &tooLarge):
		return fmt.Errorf("%w: request body exceeds %d bytes", apperrors.ErrValidation, tooLarge.Limit)
	default:
		return fmt.Errorf("%w: invalid JSON: %v", apperrors.ErrValidation, err)
	}
}

// ParseJSONOrError decodes JSON and writes a 400 response on failure
func ParseJSONOrError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, dest interface{}) bool {
	if err := ParseJSON(r, dest); err != nil {
		WriteAppError(w, r, logger, err)
		return false
	}
	return true
}

// ParsePathID extracts a positive int64 path parameter
func ParsePathID(r *http.Request, key string) (int64, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return 0, fmt.Errorf("%w: missing path parameter %s", apperrors.ErrValidation, key)
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("%w: invalid id for %s: %s", apperrors.ErrValidation, key, str)
	}
	return val, nil
}

// ParsePathIDOrError extracts a positive int64 path parameter and writes a
// 400 response on failure
func ParsePathIDOrError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, key string) (int64, bool) {
	val, err := ParsePathID(r, key)
	if err != nil {
		WriteAppError(w, r, logger, err)
		return 0, false
	}
	return val, true
}

// ParseQueryID extracts an optional positive int64 query parameter; nil
// means the parameter was absent
func ParseQueryID(r *http.Request, key string) (*int64, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return nil, nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil || val <= 0 {
		return nil, fmt.Errorf("%w: invalid id for query param %s: %s", apperrors.ErrValidation, key, str)
	}
	return &val, nil
}
