package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

// CheckCapacity verifies that a heap capacity lies in [1, limit]
func CheckCapacity(capacity, limit int, name string) error {
	if capacity < 1 || capacity > limit {
		return cerrors.Newf("%s is %d, but must be between 1 and %d", name, capacity, limit)
	}
	return nil
}
