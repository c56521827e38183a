package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := Wrap(ErrNotFound, "organizing", "verify source", "missing", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"organizing", "verify source", "missing"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestRetryable(t *testing.T) {
	if Retryable(nil) {
		t.Fatal("nil error should not be retryable")
	}
	if Retryable(Wrap(ErrValidation, "organizing", "check", "same path", nil)) {
		t.Fatal("validation errors should not be retryable")
	}
	if Retryable(Wrap(ErrConflict, "organizing", "transfer", "exists", nil)) {
		t.Fatal("conflict errors should not be retryable")
	}
	if !Retryable(Wrap(ErrTransient, "organizing", "transfer", "io", errors.New("eio"))) {
		t.Fatal("transient errors should be retryable")
	}
}
