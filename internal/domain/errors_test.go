package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorUnwrapsToKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("Cart not found"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound kind")
	}
	msg, ok := Message(err)
	if !ok || msg != "Cart not found" {
		t.Fatalf("unexpected message %q (ok=%v)", msg, ok)
	}
}

func TestMessageOnPlainError(t *testing.T) {
	if _, ok := Message(errors.New("boom")); ok {
		t.Fatalf("expected no client message for plain error")
	}
}
