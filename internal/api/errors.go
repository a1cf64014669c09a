package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/j-veylop/aximo-tui/internal/models"
)

var (
	// ErrUnauthorized is matched by responses with status 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is matched by responses with status 404.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("backend unavailable")
	// ErrValidation is matched by responses with status 400 or 422 and by
	// input rejected before sending.
	ErrValidation = models.ErrValidation
)

// maxMessageRunes bounds a plain-text error body kept in StatusError.
const maxMessageRunes = 200

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	Message    string
	StatusCode int
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s failed (status %d): %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s %s failed (status %d)", e.Method, e.Path, e.StatusCode)
}

// Unwrap maps auth, lookup and validation failures onto the package sentinels so callers
// can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	}
	return nil
}

// Retryable reports whether repeating the request could succeed.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// newStatusError builds a StatusError, lifting the backend's "message" field
// out of a JSON body when present.
func newStatusError(method, path string, status int, body []byte) *StatusError {
	e := &StatusError{Method: method, Path: path, StatusCode: status}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
		if r := []rune(e.Message); len(r) > maxMessageRunes {
			e.Message = string(r[:maxMessageRunes])
		}
	}
	return e
}

// isClientError reports whether err is a 4xx response other than 429.
func isClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && !se.Retryable()
}
