package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestHelpersWrapKind(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{Validationf("p_slip %.2f", 1.5), ErrValidation},
		{NotFoundf("course %q", "c1"), ErrNotFound},
		{Unavailablef("timeout"), ErrDependencyUnavailable},
		{Conflictf("version %d", 3), ErrConcurrencyConflict},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, tt.kind) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.kind)
		}
		if got := Kind(tt.err); got != tt.kind {
			t.Errorf("Kind(%v) = %v, want %v", tt.err, got, tt.kind)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("record attempt: %w", NotFoundf("concept %q", "x"))
	if Kind(err) != ErrNotFound {
		t.Errorf("Kind = %v, want ErrNotFound", Kind(err))
	}
	if Kind(errors.New("plain")) != nil {
		t.Error("unclassified error should have nil kind")
	}
}

func TestMessagesCarryPrefix(t *testing.T) {
	msg := Validationf("bad %s", "input").Error()
	if !strings.HasPrefix(msg, "mastery: ") {
		t.Errorf("message %q lacks prefix", msg)
	}
	if !strings.HasSuffix(msg, "bad input") {
		t.Errorf("message %q lacks detail", msg)
	}
}
