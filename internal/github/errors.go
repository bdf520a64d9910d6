package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError represents a non-2xx response from the GitHub REST API.
type APIError struct {
	StatusCode       int
	Message          string
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// RateLimitError is an APIError caused by an exhausted quota.
// Reset is when GitHub says the quota refills (zero if not reported).
type RateLimitError struct {
	*APIError
	Reset time.Time
}

func (err *RateLimitError) Error() string {
	if err.Reset.IsZero() {
		return "github: rate limit exceeded: " + err.Message
	}
	return fmt.Sprintf("github: rate limit exceeded until %s: %s", err.Reset.UTC().Format(time.RFC3339), err.Message)
}

func (err *RateLimitError) Unwrap() error {
	return err.APIError
}

// IsRateLimited reports whether err is a rate limit response.
func IsRateLimited(err error) bool {
	var rateLimit *RateLimitError
	return errors.As(err, &rateLimit)
}

// IsNotFound reports whether err is a GitHub API 404 Not Found response.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// StatusCode returns the HTTP status of an APIError in err's chain, or 0
// when err did not come from a GitHub response (network failure, decoding).
func StatusCode(err error) int {
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.StatusCode
	}
	return 0
}

// parseAPIError builds the error for a non-2xx response. A 429, or a 403
// with a zero X-RateLimit-Remaining header or a rate-limit message, becomes
// a *RateLimitError.
//
// WHY CAN A 403 BE A RATE LIMIT?
// GitHub answers an exhausted primary quota with 403, not 429, and
// secondary limits use either. Treating such a 403 as "bad credentials"
// would log users out for hitting a quota, so the headers and message are
// checked before the status decides.
func parseAPIError(statusCode int, header http.Header, body []byte) error {
	apiError := &APIError{StatusCode: statusCode}

	var wireError struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if json.Unmarshal(body, &wireError) == nil && wireError.Message != "" {
		apiError.Message = wireError.Message
		apiError.DocumentationURL = wireError.DocumentationURL
	} else {
		apiError.Message = strings.TrimSpace(string(body))
	}

	if isRateLimited(statusCode, header, apiError.Message) {
		return &RateLimitError{APIError: apiError, Reset: resetTime(header)}
	}
	return apiError
}

func isRateLimited(statusCode int, header http.Header, message string) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if statusCode != http.StatusForbidden {
		return false
	}
	if header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") || strings.Contains(lower, "abuse detection")
}

func resetTime(header http.Header) time.Time {
	resetStr := header.Get("X-RateLimit-Reset")
	if resetStr == "" {
		return time.Time{}
	}
	resetUnix, err := strconv.ParseInt(resetStr, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(resetUnix, 0)
}
