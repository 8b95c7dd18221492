package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrInvalidResponse reports a 2xx response whose body did not match the
// expected schema.
var ErrInvalidResponse = errors.New("invalid response from server")

// Error is the normalized failure of a backend call. Message is always
// displayable; Status is 0 when no HTTP response was received.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Transport reports whether the call failed before a response arrived.
func (e *Error) Transport() bool { return e.Status == 0 }

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Status
	}
	return 0
}

const maxMessageLen = 300

// serverMessage extracts a human-readable message from an error body. The
// backend answers either with a JSON object carrying "message" or "error", a
// JSON string, or plain text.
func serverMessage(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return ""
	}

	switch text[0] {
	case '{':
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal([]byte(text), &payload); err != nil {
			return ""
		}
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	case '"':
		var s string
		if err := json.Unmarshal([]byte(text), &s); err != nil {
			return ""
		}
		return s
	case '<', '[':
		return ""
	}

	if len(text) > maxMessageLen {
		return ""
	}
	return text
}

func outcomeFor(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	}
	return "success"
}
