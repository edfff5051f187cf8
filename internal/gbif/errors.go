package gbif

import (
	"errors"
	"fmt"
)

// Sentinel errors for GBIF lookups. Every one of them means "no data";
// callers branch on them only for logging and metrics.
var (
	ErrNotFound         = errors.New("gbif: not found")
	ErrRateLimited      = errors.New("gbif: rate limited by server")
	ErrBadRequest       = errors.New("gbif: bad request")
	ErrServer           = errors.New("gbif: server error")
	ErrUnexpectedStatus = errors.New("gbif: unexpected status")
	ErrUnavailable      = errors.New("gbif: service unavailable")
	ErrMalformed        = errors.New("gbif: malformed payload")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // match, details, vernacular
	Key string // query name or usage key
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gbif %s [%s]: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, key string, err error) error {
	return &Error{Op: op, Key: key, Err: err}
}

// Outcome classifies an error for metrics labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrServer):
		return "server_error"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
