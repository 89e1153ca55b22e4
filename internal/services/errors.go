package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/foxhole/internal/shared"
	"google.golang.org/api/googleapi"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindRateLimited
	KindQuotaExhausted
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindQuotaExhausted:
		return "quota exhausted"
	case KindNotFound:
		return "not found"
	default:
		return "other"
	}
}

// APIError is a YouTube API failure tagged with the kind callers dispatch on.
type APIError struct {
	Kind   ErrorKind
	Status int
	Reason string
	Err    error
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api: %s (%d %s): %v", e.Kind, e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("youtube api: %s (%d): %v", e.Kind, e.Status, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is maps each kind onto its sentinel in the shared package.
func (e *APIError) Is(target error) bool {
	switch e.Kind {
	case KindRateLimited:
		return target == shared.ErrRateLimited
	case KindQuotaExhausted:
		return target == shared.ErrQuotaExhausted
	case KindNotFound:
		return target == shared.ErrNotFound
	default:
		return target == shared.ErrAPIRequest
	}
}

// Classify converts a [*googleapi.Error] into an [*APIError].
// nil and errors that already carry a kind are returned unchanged; anything else becomes KindOther.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	reasons := errorReasons(gerr)
	kind := KindOther
	switch {
	case gerr.Code == http.StatusTooManyRequests && hasReason(reasons, "ratelimitexceeded", "rate_limit_exceeded"):
		kind = KindRateLimited
	case gerr.Code == http.StatusForbidden && hasReason(reasons, "quotaexceeded", "dailylimitexceeded"):
		kind = KindQuotaExhausted
	case gerr.Code == http.StatusNotFound:
		kind = KindNotFound
	}

	reason := ""
	if len(reasons) > 0 {
		reason = reasons[0]
	}
	return &APIError{Kind: kind, Status: gerr.Code, Reason: reason, Err: err}
}

// KindOf reports the kind of err, KindOther when it is not an [*APIError].
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(Classify(err), &apiErr) {
		return apiErr.Kind
	}
	return KindOther
}

// errorReasons collects the legacy error item reasons and any ErrorInfo reasons from the details.
func errorReasons(gerr *googleapi.Error) []string {
	var reasons []string
	for _, item := range gerr.Errors {
		if item.Reason != "" {
			reasons = append(reasons, item.Reason)
		}
	}
	for _, detail := range gerr.Details {
		m, ok := detail.(map[string]any)
		if !ok {
			continue
		}
		if r, ok := m["reason"].(string); ok && r != "" {
			reasons = append(reasons, r)
		}
	}
	return reasons
}

func hasReason(reasons []string, want ...string) bool {
	for _, r := range reasons {
		for _, w := range want {
			if strings.EqualFold(r, w) {
				return true
			}
		}
	}
	return false
}
