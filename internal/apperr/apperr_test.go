package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("failed to create word: %w", Validation("word %q already exists", "cat"))
	if KindOf(wrapped) != KindValidation {
		t.Fatalf("expected validation kind, got %s", KindOf(wrapped))
	}
	if KindOf(errors.New("boom")) != KindBackend {
		t.Fatalf("plain errors should be treated as backend errors")
	}
	if !Is(Config("set OPENAI_API_KEY"), KindConfig) {
		t.Fatalf("expected config kind")
	}
}

func TestBackendNil(t *testing.T) {
	if Backend("failed", nil) != nil {
		t.Fatalf("expected nil for nil cause")
	}
	err := Backend("failed to list words", errors.New("connection refused"))
	if err.Error() != "failed to list words: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
