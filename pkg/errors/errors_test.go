package pollbox_errors

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestHTTPStatusAndCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"authentication", ErrAuthenticationRequired, 401, "AUTHENTICATION_REQUIRED"},
		{"unauthorized", fmt.Errorf("update poll: %w", ErrUnauthorized), 403, "UNAUTHORIZED"},
		{"validation", NewValidationError([]string{"title: Title is required"}), 400, "VALIDATION_FAILED"},
		{"not found", ErrNotFound, 404, "NOT_FOUND"},
		{"closed", ErrPollClosed, 409, "POLL_CLOSED"},
		{"already voted", ErrAlreadyVoted, 409, "ALREADY_VOTED"},
		{"already exists", ErrAlreadyExists, 409, "ALREADY_EXISTS"},
		{"already exists from the store", Store("insert vote", ErrAlreadyExists), 409, "ALREADY_EXISTS"},
		{"rate limited", ErrRateLimited, 429, "RATE_LIMITED"},
		{"store", Store("insert poll", errors.New("disk full")), 500, "STORE_FAILURE"},
		{"unknown", errors.New("boom"), 500, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Errorf("HTTPStatus = %d, want %d", got, tt.status)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestStore(t *testing.T) {
	if Store("op", nil) != nil {
		t.Fatal("Store(nil) should be nil")
	}

	cause := errors.New("connection reset")
	compensation := errors.New("compensate delete poll: timeout")
	err := Store("create poll", errors.Join(cause, compensation))

	if !errors.Is(err, ErrStoreFailure) {
		t.Error("StoreError should match ErrStoreFailure")
	}
	if !errors.Is(err, cause) || !errors.Is(err, compensation) {
		t.Error("StoreError should expose both joined errors")
	}
	if again := Store("outer", err); again != err {
		t.Error("Store should not wrap a StoreError twice")
	}
}

func TestViolations(t *testing.T) {
	err := fmt.Errorf("create: %w", NewValidationError([]string{"a: x", "b: y"}))
	if got := Violations(err); !slices.Equal(got, []string{"a: x", "b: y"}) {
		t.Errorf("Violations = %v", got)
	}
	if Violations(ErrNotFound) != nil {
		t.Error("Violations of a non-validation error should be nil")
	}
}
