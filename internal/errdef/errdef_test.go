package errdef

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeHTTP, "status %d", 502)
	if got := CodeOf(err); got != CodeHTTP {
		t.Fatalf("expected code %q got %q", CodeHTTP, got)
	}
	if got := Message(err); got != "status 502" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestWrapNilReturnsNil(t *testing.T) {
	if err := Wrap(CodeParse, nil, "ignored"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestWrapPreservesChain(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(CodeHTTP, base, "send request")
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error lost the cause")
	}
	if got := err.Error(); got != "send request: connection refused" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestCodeOfUnwrapsThroughForeignWrappers(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeProfile, "missing profile"))
	if got := CodeOf(err); got != CodeProfile {
		t.Fatalf("expected code %q got %q", CodeProfile, got)
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected unknown code, got %q", got)
	}
}
