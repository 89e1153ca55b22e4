package shared

import "fmt"

var (

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrQuotaExhausted     = fmt.Errorf("API quota exhausted")
	ErrMaxRetriesExceeded = fmt.Errorf("max retries exceeded")
	ErrNotFound           = fmt.Errorf("resource not found")
	ErrNoVideos           = fmt.Errorf("no qualifying videos")

	// Local storage errors
	ErrStorage       = fmt.Errorf("storage failure")
	ErrCorruptRecord = fmt.Errorf("corrupt channel record")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
