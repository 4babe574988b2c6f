package domain

import (
	"errors"
	"fmt"
)

// FetchErrorKind distinguishes the failure modes of the ads platform.
type FetchErrorKind string

const (
	FetchAuth      FetchErrorKind = "auth"
	FetchRateLimit FetchErrorKind = "rate_limit"
	FetchTransport FetchErrorKind = "transport"
)

// FetchError is a typed failure from the ads platform client. Auth
// failures are fatal for the client's remaining periods; rate limits
// are retryable; transport failures fail the single period.
type FetchError struct {
	Kind      FetchErrorKind
	AccountID string
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ads fetch failed (%s) for account %s: %v", e.Kind, e.AccountID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is an authentication failure.
func IsAuthError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchAuth
}

// IsRateLimitError reports whether err is a rate-limit rejection.
func IsRateLimitError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchRateLimit
}

// PersistenceError is a failed read or write against the store. Fatal
// for that single operation only; the batch continues.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed for %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
