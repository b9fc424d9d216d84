package svcerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestServiceErrorFormatsCodeAndCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New("reports.save_entry", "write_failed", cause)

	if err.Error() != "reports.save_entry.write_failed: disk full" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected error to unwrap to cause")
	}
	code, ok := CodeOf(fmt.Errorf("handler: %w", err))
	if !ok || code != "reports.save_entry.write_failed" {
		t.Fatalf("unexpected code %q (%v)", code, ok)
	}
}

func TestServiceErrorWithoutCause(t *testing.T) {
	err := New("safety.add_talk", "missing_id", nil)
	if err.Error() != "safety.add_talk.missing_id" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Fatalf("plain errors carry no code")
	}
}
