//go:build debug_mem_utils

package memutils

import "fmt"

// DebugValidate panics if validatable's bookkeeping is inconsistent. Without the debug_mem_utils
// build tag it does nothing.
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(fmt.Sprintf("%T failed validation: %+v", validatable, err))
	}
}
