package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err    error
		target error
	}{
		{IndexOutOfRange("multicam.add_cut", 3), ErrIndexOutOfRange},
		{InvalidEnum("multicam.sync_angles", "genlock"), ErrInvalidEnum},
		{InvalidState("scene.add", "title"), ErrInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.target.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.target) {
				t.Errorf("expected %v to match %v", wrapped, tt.target)
			}
			for _, other := range []error{ErrIndexOutOfRange, ErrInvalidEnum, ErrInvalidState} {
				if other != tt.target && errors.Is(tt.err, other) {
					t.Errorf("%v should not match %v", tt.err, other)
				}
			}
		})
	}
}

func TestErrorValue(t *testing.T) {
	err := IndexOutOfRange("multicam.remove_angle", 7)

	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if e.Value != 7 {
		t.Errorf("expected offending value 7, got %v", e.Value)
	}
	if got := err.Error(); got != "multicam.remove_angle: index out of range: 7" {
		t.Errorf("unexpected message %q", got)
	}
}
