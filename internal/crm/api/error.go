package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Error is the typed failure every remote call resolves to. Retriable marks
// errors worth another attempt; RateLimited additionally selects the longer
// backoff curve.
type Error struct {
	StatusCode  int
	Message     string
	Retriable   bool
	RateLimited bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Classify maps an HTTP status and response body onto the error taxonomy.
// A nil return means the status is a success.
func Classify(status int, body []byte) *Error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 401:
		return &Error{StatusCode: status, Message: withDetail("unauthorized: invalid credentials", body)}
	case status == 403:
		return &Error{StatusCode: status, Message: withDetail("forbidden", body)}
	case status == 404:
		return &Error{StatusCode: status, Message: withDetail("resource not found", body)}
	case status == 422:
		return &Error{StatusCode: status, Message: "validation failed: " + validationDetail(body)}
	case status == 429:
		return &Error{StatusCode: status, Message: "rate limited", Retriable: true, RateLimited: true}
	case status == 500:
		return &Error{StatusCode: status, Message: withDetail("remote server error", body)}
	case status == 502 || status == 503 || status == 504:
		return &Error{StatusCode: status, Message: "remote unavailable", Retriable: true}
	default:
		return &Error{StatusCode: status, Message: fmt.Sprintf("unexpected status: %s", Truncate(string(body), 200))}
	}
}

// NewParseError reports a response body that was not valid JSON where JSON
// was expected. Never retriable; the raw body is kept, truncated, for
// diagnostics.
func NewParseError(status int, body []byte) *Error {
	return &Error{
		StatusCode: status,
		Message:    "invalid JSON in response: " + Truncate(string(body), 200),
	}
}

// validationDetail digs the human-readable message out of a structured 422
// body, falling back to the raw body.
func validationDetail(body []byte) string {
	var parsed struct {
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if len(parsed.Errors) > 0 {
			return string(parsed.Errors)
		}
	}
	if msg := bodyMessage(body); msg != "" {
		return msg
	}
	return Truncate(string(body), 200)
}

// withDetail appends the remote's own diagnostic to a fixed classification
// message when the body carries one.
func withDetail(base string, body []byte) string {
	if msg := bodyMessage(body); msg != "" {
		return base + ": " + msg
	}
	return base
}

// bodyMessage pulls the diagnostic out of an error body. Two shapes appear
// in the wild: GLPI answers with ["ERROR_CODE", "human message"] arrays,
// Krayin with {"message": "..."} objects.
func bodyMessage(body []byte) string {
	var arr []any
	if err := json.Unmarshal(body, &arr); err == nil {
		var parts []string
		for _, el := range arr {
			if s, ok := el.(string); ok && s != "" {
				parts = append(parts, s)
			}
			if len(parts) == 2 {
				break
			}
		}
		return Truncate(strings.Join(parts, ": "), 200)
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &obj); err == nil && obj.Message != "" {
		return Truncate(obj.Message, 200)
	}
	return ""
}

// Truncate caps s at n runes with an ellipsis marker.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// IsStatus reports whether err is an api.Error with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsNotFound reports whether err is a 404 from the remote API.
func IsNotFound(err error) bool {
	return IsStatus(err, 404)
}
