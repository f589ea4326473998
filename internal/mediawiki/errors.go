package mediawiki

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrPageMissing means the page was deleted or never existed
	ErrPageMissing = errors.New("page missing")

	// ErrRetriesExhausted means every attempt hit a transient failure
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// APIError is a definitive failure of one API call
type APIError struct {
	Endpoint  string
	Status    int    // HTTP status, 0 when no response arrived
	Code      string // MediaWiki error code from the payload, if any
	Info      string
	Attempts  int
	Exhausted bool  // Every attempt failed transiently
	Err       error // Transport error, if any
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "mediawiki %s", e.Endpoint)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (%s)", e.Code)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " after %d attempts", e.Attempts)
	}
	return b.String()
}

// Unwrap exposes the transport error and ErrRetriesExhausted to errors.Is
func (e *APIError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Exhausted {
		errs = append(errs, ErrRetriesExhausted)
	}
	return errs
}

// Retriable reports whether another attempt may succeed: transport errors,
// 429 and 503 responses, and the maxlag and ratelimited API codes.
func (e *APIError) Retriable() bool {
	if e.Err != nil {
		return true
	}
	switch e.Status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	}
	switch e.Code {
	case "maxlag", "ratelimited":
		return true
	}
	return false
}
