package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the backend requires a session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when the viewer's role may not perform the action.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned for missing resources.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Messages are the human-readable error strings found in the body.
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("backend error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend error: %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// Unwrap maps well-known statuses onto the package sentinels so callers
// can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Messages extracts display messages from err. Backend errors yield their
// parsed messages; anything else yields its Error text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Messages) > 0 {
		return apiErr.Messages
	}
	return []string{err.Error()}
}

func parseError(status int, body []byte) error {
	e := &APIError{Status: status}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		if msg := strings.TrimSpace(string(body)); msg != "" {
			e.Messages = []string{msg}
		}
		return e
	}
	if obj, ok := payload.(map[string]any); ok {
		switch {
		case obj["error"] != nil:
			payload = obj["error"]
		case obj["errors"] != nil:
			payload = obj["errors"]
		case obj["detail"] != nil:
			payload = obj["detail"]
		}
	}
	e.Messages = flatten(payload)
	return e
}

// flatten collects every string in a nested error payload. Object keys are
// visited in sorted order so the result is stable.
func flatten(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, flatten(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, flatten(v[k])...)
		}
		return out
	}
	return nil
}
