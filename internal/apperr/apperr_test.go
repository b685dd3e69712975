package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestInvalidWrapsKind(t *testing.T) {
	err := Invalid("recurrenceInterval needs to be at least %d", 1)
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatal("expected errors.Is(err, ErrInvalidRequest)")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("did not expect ErrNotFound")
	}
	if err.Error() != "recurrenceInterval needs to be at least 1" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NotFound("task"), "task not found"},
		{fmt.Errorf("complete task: %w", Conflict("task was already completed")), "task was already completed"},
		{fmt.Errorf("lookup: %w", ErrNotInHousehold), "not in household"},
		{errors.New("disk full"), "internal error"},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
