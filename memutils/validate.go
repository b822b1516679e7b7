package memutils

// Validatable is implemented by every allocator, pool and heap that can check its own bookkeeping.
// DebugValidate calls it after mutations when built with the debug_mem_utils tag.
type Validatable interface {
	Validate() error
}
