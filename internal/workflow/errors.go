package workflow

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BY1502/ai-interview-service/internal/interviewapi"
)

var (
	ErrEmptyAnswer     = errors.New("answer is empty")
	ErrNoAudio         = errors.New("no audio file selected")
	ErrUnknownQuestion = errors.New("question is not part of this session")
	ErrVisitNotFound   = errors.New("interview visit not found")
)

// ValidationError carries per-field messages for a form that was rejected
// before any backend call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// IsUnauthorized reports whether err means the backend no longer accepts the
// client's credentials.
func IsUnauthorized(err error) bool {
	return errors.Is(err, interviewapi.ErrUnauthorized)
}

// Describe turns err into a message fit for an inline notice.
func Describe(err error) string {
	var verr *ValidationError
	var apiErr *interviewapi.APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "Please fill in the required fields."
	case errors.Is(err, ErrEmptyAnswer):
		return "Write an answer before submitting."
	case errors.Is(err, ErrNoAudio):
		return "Choose an audio file first."
	case errors.Is(err, ErrUnknownQuestion):
		return "That question does not belong to this session."
	case errors.Is(err, ErrVisitNotFound):
		return "This interview page expired. Reload it to continue."
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return "The interview service could not be reached."
}
