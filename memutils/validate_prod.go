//go:build !debug_mem_utils

package memutils

// DebugValidate panics if validatable's bookkeeping is inconsistent. Without the debug_mem_utils
// build tag it does nothing.
func DebugValidate(Validatable) {}
