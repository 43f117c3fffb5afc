package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"conflict", ErrConflict, http.StatusConflict},
		{"resource exhausted", ErrResourceExhausted, http.StatusConflict},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"invalid operation", ErrInvalidOperation, http.StatusBadRequest},
		{"rate limited", ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapErrorToStatus(tt.err); got != tt.want {
				t.Errorf("MapErrorToStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestMapErrorToStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("listing not found: %w", ErrNotFound)
	if got := MapErrorToStatus(wrapped); got != http.StatusNotFound {
		t.Errorf("MapErrorToStatus(wrapped) = %d, want %d", got, http.StatusNotFound)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	appErr := New(http.StatusConflict, "duplicate", ErrConflict)
	if !errors.Is(appErr, ErrConflict) {
		t.Error("expected AppError to unwrap to ErrConflict")
	}
	if appErr.Error() != ErrConflict.Error() {
		t.Errorf("Error() = %q, want %q", appErr.Error(), ErrConflict.Error())
	}
}
