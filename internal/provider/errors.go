package provider

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Error is a provider-reported failure. The wire form is either a bare string
// or a structured {code, message} object; both decode into this type.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e == nil || e.Message == "" {
		return "provider error"
	}
	return e.Message
}

func (e *Error) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Code = ""
		e.Message = s
		return nil
	}
	type structured struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	var v structured
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	e.Code = v.Code
	if e.Code == "" {
		e.Code = v.Type
	}
	e.Message = v.Message
	return nil
}

// StatusForCode maps a provider error code to the HTTP status the proxy
// endpoints answer with.
func StatusForCode(code string) int {
	switch code {
	case "invalid_api_key":
		return http.StatusUnauthorized
	case "rate_limit_exceeded":
		return http.StatusTooManyRequests
	case "moderation_blocked":
		return http.StatusBadRequest
	case "invalid_request":
		return http.StatusBadRequest
	case "network_error":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Classify normalizes an arbitrary failure into a provider Error. Known
// provider errors pass through; transport failures become network_error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*Error); ok {
		if pe.Code == "" {
			pe.Code = "api_error"
		}
		return pe
	}
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "no such host") {
		return &Error{Code: "network_error", Message: "Network error. Please check your connection and try again."}
	}
	return &Error{Code: "unknown_error", Message: msg}
}

// decodeErrorBody pulls an Error out of a non-2xx response body. Accepts
// {"error": {...}}, {"error": "..."} and falls back to the raw body.
func decodeErrorBody(status int, body []byte) *Error {
	var envelope struct {
		Error *Error `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		if envelope.Error.Code == "" {
			envelope.Error.Code = codeForStatus(status)
		}
		return envelope.Error
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Code: codeForStatus(status), Message: msg}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "invalid_api_key"
	case http.StatusTooManyRequests:
		return "rate_limit_exceeded"
	case http.StatusBadRequest:
		return "invalid_request"
	default:
		return "api_error"
	}
}
