package queue

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrCapabilityViolation is wrapped by every CapabilityError
var ErrCapabilityViolation = errors.New("capability violation")

// CapabilityError is returned when an operation requiring one capability is attempted on a command
// buffer, submission, or queue that does not support it. Nothing is recorded or submitted when this
// error is returned.
type CapabilityError struct {
	Operation string
	Have      Kind
	Need      Kind
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s requires %s capability, but only %s is available", e.Operation, e.Need, e.Have)
}

func (e *CapabilityError) Unwrap() error {
	return ErrCapabilityViolation
}

// Check returns a CapabilityError if have does not support need
func Check(operation string, have, need Kind) error {
	if have.Supports(need) {
		return nil
	}

	return &CapabilityError{
		Operation: operation,
		Have:      have,
		Need:      need,
	}
}
