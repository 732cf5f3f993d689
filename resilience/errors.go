package resilience

import "errors"

// Sentinel errors for guarded upstream calls.
var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")

	// ErrRateLimited is returned when the token bucket is empty.
	ErrRateLimited = errors.New("resilience: rate limit exceeded")

	// ErrBulkheadFull is returned when every concurrency slot is taken.
	ErrBulkheadFull = errors.New("resilience: bulkhead at capacity")

	// ErrTimeout is returned when an attempt runs past its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// permanentError marks an error that retrying cannot fix, such as an
// upstream 4xx or a payload that does not parse.
type permanentError struct {
	err error
}

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent wraps err so Retry stops immediately and CircuitBreaker does not
// count it as an upstream failure. Permanent(nil) is nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked with
// Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}
