package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	ErrMissingURL         = errors.New("backend: URL is required")
	ErrMissingAnonKey     = errors.New("backend: anon key is required")
	ErrNoSession          = errors.New("backend: no active session")
	ErrMultipleRows       = errors.New("backend: query returned more than one row")
	ErrUnfilteredMutation = errors.New("backend: update or delete without a filter")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

// ErrorClass buckets the status for operation metrics.
func (e *APIError) ErrorClass() string {
	switch {
	case e.Status >= 500:
		return "http_5xx"
	case e.Status >= 400:
		return "http_4xx"
	default:
		return "http_other"
	}
}

// errorBody covers the GoTrue and PostgREST error shapes.
type errorBody struct {
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Code             json.RawMessage `json:"code"`
	Details          string          `json:"details"`
	Hint             string          `json:"hint"`
}

// decodeAPIError builds an APIError from a response body. The message is
// the first non-empty of error_description, msg, message, then fallback,
// then the HTTP status text.
func decodeAPIError(status int, body []byte, fallback string) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	msg := firstNonEmpty(eb.ErrorDescription, eb.Msg, eb.Message, fallback, http.StatusText(status))
	code := firstNonEmpty(eb.ErrorCode, rawCode(eb.Code), eb.Error)

	return &APIError{
		Status:  status,
		Code:    code,
		Message: msg,
		Details: eb.Details,
		Hint:    eb.Hint,
	}
}

// rawCode accepts both "23505" and 400.
func rawCode(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	if unq, err := strconv.Unquote(s); err == nil {
		return unq
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsServerFailure reports whether err indicates the backend itself is
// unhealthy: transport failures and 5xx responses. It is the intended
// CircuitBreakerConfig.IsFailure for a Client.
func IsServerFailure(err error) bool {
	if err == nil {
		return false
	}
	status := StatusOf(err)
	return status == 0 || status >= 500
}
