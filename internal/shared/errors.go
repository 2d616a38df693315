package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingToken  = fmt.Errorf("missing user token")

	// Network errors. ErrNetwork and ErrRateLimited are recoverable and
	// retried with backoff; ErrAuth and ErrAPIRequest fail fast.
	ErrNetwork     = fmt.Errorf("recoverable network error")
	ErrRateLimited = fmt.Errorf("rate limited")
	ErrAuth        = fmt.Errorf("authentication failed")
	ErrAPIRequest  = fmt.Errorf("API request failed")
	ErrTimeout     = fmt.Errorf("operation timed out")

	// Sync engine errors
	ErrMalformedRecord = fmt.Errorf("malformed record")
	ErrPersistence     = fmt.Errorf("persistence failure")
	ErrCancelled       = fmt.Errorf("cancellation requested")
	ErrRetriesExceeded = fmt.Errorf("retry limit exhausted")
	ErrUserNotFound    = fmt.Errorf("user not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
