package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestScreenErrorMatchesKind(t *testing.T) {
	cause := fmt.Errorf("dial tcp: timeout")
	err := NewScreenError("TCS", ErrCollaboratorFailure, "Failed to fetch spot price for TCS", cause)

	if err.Error() != "Failed to fetch spot price for TCS" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, ErrCollaboratorFailure) {
		t.Error("expected ScreenError to match its kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected ScreenError to match its cause")
	}
	if errors.Is(err, ErrNoSuitableContract) {
		t.Error("ScreenError matched an unrelated kind")
	}

	var se *ScreenError
	if !As(Wrap(err, "screen"), &se) || se.Symbol != "TCS" {
		t.Error("expected to recover ScreenError through a wrap")
	}
}

func TestValidationErrorIsInvalidRequest(t *testing.T) {
	err := NewValidationError("strategy", "XYZ", "Strategy must be CCP or ACC")
	if !Is(err, ErrInvalidRequest) {
		t.Error("validation errors should match ErrInvalidRequest")
	}
	if err.Error() != "Strategy must be CCP or ACC" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ctx") != nil || Wrapf(nil, "ctx %d", 1) != nil {
		t.Error("wrapping nil should yield nil")
	}
}
