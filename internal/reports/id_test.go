package reports

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestUUIDProviderIssuesOrderedV7(t *testing.T) {
	provider := NewUUIDProvider()
	first, err := provider.NewID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := provider.NewID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := uuid.Parse(first)
	if err != nil || parsed.Version() != 7 {
		t.Fatalf("expected a v7 uuid, got %q (%v)", first, err)
	}
	if first == second || second < first {
		t.Fatalf("expected increasing ids, got %s then %s", first, second)
	}
}

func TestIDFuncPropagatesErrors(t *testing.T) {
	failure := errors.New("no entropy")
	provider := IDFunc(func() (string, error) { return "", failure })
	if _, err := provider.NewID(); !errors.Is(err, failure) {
		t.Fatalf("expected failure, got %v", err)
	}
}
