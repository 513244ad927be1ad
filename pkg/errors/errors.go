package pollbox_errors

import (
	"errors"
	"strings"
)

// Common errors
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrValidationFailed       = errors.New("validation failed")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrNotFound               = errors.New("not found")
	ErrPollClosed             = errors.New("poll has closed")
	ErrAlreadyVoted           = errors.New("already voted on this poll")
	ErrStoreFailure           = errors.New("store failure")
	ErrAlreadyExists          = errors.New("already exists")
)

// ValidationError carries every field violation found in one input.
type ValidationError struct {
	Errors []string
}

func NewValidationError(violations []string) *ValidationError {
	return &ValidationError{Errors: violations}
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Errors, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// StoreError wraps an error returned by the data store. Err may be a join of the
// original failure and a failed compensation.
type StoreError struct {
	Op  string
	Err error
}

func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func (e *StoreError) Error() string {
	return "store failure: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}

// Violations returns the field violations carried by err, if any.
func Violations(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	return nil
}

// HTTPStatus maps an error kind to the status code the HTTP layer answers with.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return 401
	case errors.Is(err, ErrUnauthorized):
		return 403
	case errors.Is(err, ErrValidationFailed):
		return 400
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrPollClosed), errors.Is(err, ErrAlreadyVoted), errors.Is(err, ErrAlreadyExists):
		return 409
	case errors.Is(err, ErrRateLimited):
		return 429
	default:
		return 500
	}
}

// Code returns the machine readable code used in error responses.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrAuthenticationRequired):
		return "AUTHENTICATION_REQUIRED"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrValidationFailed):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrPollClosed):
		return "POLL_CLOSED"
	case errors.Is(err, ErrAlreadyVoted):
		return "ALREADY_VOTED"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrStoreFailure):
		return "STORE_FAILURE"
	default:
		return "INTERNAL_ERROR"
	}
}
