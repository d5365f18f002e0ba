package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantOK   bool
	}{
		{"not found", NotFound("task %s not found", "t1"), KindNotFound, true},
		{"authorization", Authorization("wrong role"), KindAuthorization, true},
		{"conflict", Conflict("duplicate"), KindConflict, true},
		{"validation", Validation("missing field"), KindValidation, true},
		{"wrapped", fmt.Errorf("outer: %w", Conflict("inner")), KindConflict, true},
		{"plain error", errors.New("boom"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, ok := KindOf(tt.err)
			if ok != tt.wantOK {
				t.Fatalf("KindOf ok = %v, want %v", ok, tt.wantOK)
			}
			if kind != tt.wantKind {
				t.Errorf("KindOf kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("relationship %s not found", "r1")
	if got := err.Error(); got != "relationship r1 not found" {
		t.Errorf("unexpected message: %q", got)
	}

	wrapped := &Error{Kind: KindValidation, Message: "bad input", Err: errors.New("cause")}
	if got := wrapped.Error(); got != "bad input: cause" {
		t.Errorf("unexpected wrapped message: %q", got)
	}
	if !errors.Is(wrapped, wrapped.Err) {
		t.Error("expected Unwrap to expose the cause")
	}
}

func TestIsKind(t *testing.T) {
	err := Validation("terminal task")
	if !IsKind(err, KindValidation) {
		t.Error("expected IsKind to match")
	}
	if IsKind(err, KindConflict) {
		t.Error("expected IsKind to reject a different kind")
	}
}
