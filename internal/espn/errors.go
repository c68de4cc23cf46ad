package espn

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed ESPN API interaction. Classification happens once,
// at this boundary, so callers can branch on a structured field instead of
// matching message text.
type Kind int

const (
	// KindTransient covers network faults and any response that cannot be
	// classified more specifically. The default bucket.
	KindTransient Kind = iota

	// KindAuth indicates the league is private and the supplied credentials
	// were missing or rejected (401/403).
	KindAuth

	// KindNotFound indicates the league, season or resource does not exist.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	default:
		return "transient"
	}
}

// Error is the structured error returned for all failed ESPN API calls.
type Error struct {
	Kind   Kind
	Status int // HTTP status, 0 when the request never completed
	Op     string
	Cause  error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("espn: %s failed: status %d (%s)", e.Op, e.Status, e.Kind)
	}
	return fmt.Sprintf("espn: %s failed: %v", e.Op, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// KindOf extracts the classification from an error chain. Errors that did not
// originate at this boundary report KindTransient.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindTransient
}

// StatusOf extracts the HTTP status from an error chain, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func classifyStatus(op string, status int) *Error {
	kind := KindTransient
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &Error{Kind: kind, Status: status, Op: op}
}

func transportError(op string, cause error) *Error {
	return &Error{Kind: KindTransient, Op: op, Cause: cause}
}
