package interviewapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/BY1502/ai-interview-service/pkg"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRejected matches any other 4xx: the backend refused the request as
	// sent.
	ErrRejected = errors.New("rejected")
)

// APIError is a non-2xx answer from the interview backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("interview api error (status %d): %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrRejected:
		return e.Status >= 400 && e.Status < 500 &&
			e.Status != http.StatusNotFound && e.Status != http.StatusUnauthorized && e.Status != http.StatusForbidden
	}
	return false
}

// newAPIError pulls a readable message out of FastAPI ({"detail": ...}) and
// generic ({"error": ...}) bodies, falling back to the raw text.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		var detail string
		switch {
		case len(payload.Detail) > 0 && json.Unmarshal(payload.Detail, &detail) == nil:
			msg = detail
		case len(payload.Detail) > 0:
			msg = string(payload.Detail)
		case payload.Error != "":
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: pkg.Truncate(msg, 300)}
}
