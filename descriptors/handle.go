package descriptors

import (
	"fmt"

	"github.com/vkngwrapper/arsenal/hal/driver"
)

// DualHandle addresses one descriptor slot from both the host and, for shader visible heaps, the
// device. It is a view into a heap and is invalid once the slot is freed or the heap destroyed.
type DualHandle struct {
	CPU driver.CPUHandle
	GPU driver.GPUHandle
}

// Offset returns the handle index slots past h in a heap with the provided stride
func (h DualHandle) Offset(index, stride uint64) DualHandle {
	return DualHandle{
		CPU: h.CPU.Offset(index, stride),
		GPU: h.GPU.Offset(index, stride),
	}
}

// IsShaderVisible returns true if the handle has a device address
func (h DualHandle) IsShaderVisible() bool {
	return h.GPU != 0
}

func (h DualHandle) String() string {
	if h.GPU == 0 {
		return fmt.Sprintf("{CPU: %#x}", uint64(h.CPU))
	}
	return fmt.Sprintf("{CPU: %#x, GPU: %#x}", uint64(h.CPU), uint64(h.GPU))
}

// Handle is a single descriptor slot allocated from a CPUPool. It remembers where it came from so
// that it can be returned with CPUPool.Free.
type Handle struct {
	DualHandle
	heap int
	slot int
}

// HeapIndex returns the index of the pool heap the slot belongs to
func (h Handle) HeapIndex() int { return h.heap }

// Slot returns the index of the slot within its heap
func (h Handle) Slot() int { return h.slot }
