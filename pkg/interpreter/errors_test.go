package interpreter

import (
	"errors"
	"fmt"
	"testing"
)

func TestRuntimeError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "unknown command",
			err:  NewUnknownCommandError("jump"),
			want: "[UNKNOWN_COMMAND] unknown command: jump",
		},
		{
			name: "handler failure",
			err:  NewHandlerFailureError("forward1", "robot", errors.New("disconnected")),
			want: "[HANDLER_FAILURE] handler robot for forward1 failed: disconnected",
		},
		{
			name: "malformed program",
			err:  NewMalformedProgramError("B"),
			want: "[MALFORMED_PROGRAM] loop B has no matching start or end",
		},
		{
			name: "invalid block",
			err:  NewInvalidBlockError("endLoop"),
			want: "[INVALID_BLOCK] cannot execute endLoop block as a command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRuntimeError_Classification(t *testing.T) {
	cause := errors.New("stalled")
	wrapped := fmt.Errorf("run: %w", NewHandlerFailureError("left45", "robot", cause))

	if !IsHandlerFailure(wrapped) {
		t.Error("IsHandlerFailure() = false for wrapped failure")
	}
	if IsUnknownCommand(wrapped) {
		t.Error("IsUnknownCommand() = true for handler failure")
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is() did not reach the handler's error")
	}
	if ErrorTypeOf(cause) != "" {
		t.Errorf("ErrorTypeOf(plain error) = %q, want empty", ErrorTypeOf(cause))
	}
}

func TestNewUnknownCommandError_RecordsCommand(t *testing.T) {
	err := NewUnknownCommandError("spin")
	if err.Command != "spin" {
		t.Errorf("Command = %q, want spin", err.Command)
	}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}
}
