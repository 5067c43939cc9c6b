package github

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// APIError is returned for any non-2xx GitHub response.
type APIError struct {
	StatusCode       int
	Endpoint         string
	Message          string
	DocumentationURL string
	// RateLimitRemaining is -1 when the response carried no rate limit headers.
	RateLimitRemaining int
	RateLimitReset     time.Time
	RetryAfter         time.Duration
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("github %s: %d %s", e.Endpoint, e.StatusCode, msg)
}

// newAPIError builds an APIError from a response whose body has already been
// read.
func newAPIError(endpoint string, resp *http.Response, body []byte) *APIError {
	e := &APIError{
		StatusCode:         resp.StatusCode,
		Endpoint:           endpoint,
		RateLimitRemaining: -1,
	}
	var payload struct {
		Message          string `json:"message"`
		DocumentationURL string `json:"documentation_url"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Message
		e.DocumentationURL = payload.DocumentationURL
	}
	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			e.RateLimitRemaining = n
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			e.RateLimitReset = time.Unix(n, 0).UTC()
		}
	}
	if v := resp.Header.Get("Retry-After"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			e.RetryAfter = time.Duration(n) * time.Second
		}
	}
	return e
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsNotFound reports whether err is a 404 from GitHub.
func IsNotFound(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is an authentication failure.
func IsUnauthorized(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited reports whether err is a primary or secondary rate limit
// rejection.
func IsRateLimited(err error) bool {
	e, ok := asAPIError(err)
	if !ok {
		return false
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusForbidden:
		return e.RateLimitRemaining == 0 || e.RetryAfter > 0 ||
			strings.Contains(strings.ToLower(e.Message), "rate limit")
	}
	return false
}

// IsValidationFailed reports whether GitHub rejected the query itself.
func IsValidationFailed(err error) bool {
	e, ok := asAPIError(err)
	return ok && e.StatusCode == http.StatusUnprocessableEntity
}

// Describe turns err into a short message suitable for a caller, naming the
// likely fix where one is known.
func Describe(err error) string {
	e, ok := asAPIError(err)
	if !ok {
		return err.Error()
	}
	switch {
	case IsRateLimited(err):
		if !e.RateLimitReset.IsZero() {
			return fmt.Sprintf("GitHub rate limit exceeded; resets at %s", e.RateLimitReset.Format(time.RFC3339))
		}
		return "GitHub rate limit exceeded"
	case e.StatusCode == http.StatusUnauthorized:
		return "GitHub rejected the credentials; check the configured token"
	case e.StatusCode == http.StatusNotFound:
		return "not found on GitHub"
	case e.StatusCode == http.StatusUnprocessableEntity:
		if e.Message != "" {
			return "GitHub rejected the query: " + e.Message
		}
		return "GitHub rejected the query"
	}
	return e.Error()
}
