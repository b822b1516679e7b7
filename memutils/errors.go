package memutils

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrOutOfCapacity is the sentinel wrapped by every OutOfCapacityError. Test for it with errors.Is.
var ErrOutOfCapacity error = errors.New("out of capacity")

// OutOfCapacityError is returned when an allocator or pool cannot satisfy a request. It carries
// enough information for the caller to decide whether to grow the backing storage or shrink
// its working set.
type OutOfCapacityError struct {
	// Resource names what ran out, e.g. "sampler gpu heap"
	Resource string
	// Requested is the number of slots that were asked for
	Requested int
	// Available is the largest number of contiguous slots that could have been handed out
	Available int
}

func (e *OutOfCapacityError) Error() string {
	return fmt.Sprintf("%s: %s: requested %d, available %d", ErrOutOfCapacity.Error(), e.Resource, e.Requested, e.Available)
}

func (e *OutOfCapacityError) Unwrap() error {
	return ErrOutOfCapacity
}

// NewOutOfCapacityError builds an OutOfCapacityError for the provided resource
func NewOutOfCapacityError(resource string, requested, available int) error {
	return &OutOfCapacityError{
		Resource:  resource,
		Requested: requested,
		Available: available,
	}
}
