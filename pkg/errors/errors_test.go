package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidPuzzle, "move %q out of range", "U")

	if err.Code != ErrCodeInvalidPuzzle {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidPuzzle)
	}
	if err.Message != `move "U" out of range` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCodeResourceExhausted, cause, "growing table %d", 2)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if err.Error() != "RESOURCE_EXHAUSTED: growing table 2: disk full" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeUnreachableTarget, "parity violation")

	if !Is(err, ErrCodeUnreachableTarget) {
		t.Error("Is should match the error code")
	}
	if Is(err, ErrCodeAborted) {
		t.Error("Is should not match a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeUnreachableTarget) {
		t.Error("Is should not match a plain error")
	}

	// Is should unwrap through fmt.Errorf chains.
	wrapped := fmt.Errorf("outer: %w", err)
	if !Is(wrapped, ErrCodeUnreachableTarget) {
		t.Error("Is should unwrap the error chain")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeWorkerFailure, "oops")); got != ErrCodeWorkerFailure {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeWorkerFailure)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeInvalidTarget, "cycle length 0")
	if got := UserMessage(err); got != "cycle length 0" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := []Code{
		ErrCodeUnreachableTarget,
		ErrCodeAborted,
		ErrCodeInvalidPuzzle,
		ErrCodeInvalidTarget,
	}
	for _, code := range terminal {
		if !IsTerminal(New(code, "x")) {
			t.Errorf("IsTerminal(%s) = false, want true", code)
		}
	}

	recoverable := []Code{ErrCodeResourceExhausted, ErrCodeNotFound, ErrCodeStorage}
	for _, code := range recoverable {
		if IsTerminal(New(code, "x")) {
			t.Errorf("IsTerminal(%s) = true, want false", code)
		}
	}
}
