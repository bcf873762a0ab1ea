package shared

import (
	"errors"
	"fmt"
	"testing"
)

// TestDomainError_Is verifies kinds survive wrapping.
func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("load: %w", Misconfigured("cohort", "NewRegistry", "intervals %s and %s overlap", "a", "b"))
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("errors.Is(err, ErrConfiguration) = false, want true")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Fatalf("errors.Is(err, ErrInvalidInput) = true, want false")
	}
	if got := err.Error(); got != "load: cohort.NewRegistry: intervals a and b overlap" {
		t.Errorf("Error() = %q", got)
	}
}

// TestDomainError_WrapsUnderlying verifies the underlying error is reachable.
func TestDomainError_WrapsUnderlying(t *testing.T) {
	cause := errors.New("disk full")
	err := &DomainError{Domain: "attendance", Op: "Upsert", Kind: ErrInvalidInput, Message: "write failed", Err: cause}
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is(err, cause) = false, want true")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("errors.Is(err, ErrInvalidInput) = false, want true")
	}
}
