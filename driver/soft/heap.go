package soft

import (
	"fmt"

	"github.com/vkngwrapper/arsenal/hal/driver"
)

// Heap is a descriptor heap backed by a byte slice
type Heap struct {
	device    *Device
	desc      driver.HeapDesc
	cpuStart  driver.CPUHandle
	gpuStart  driver.GPUHandle
	stride    uint64
	data      []byte
	destroyed bool
}

var _ driver.DescriptorHeap = &Heap{}

func (h *Heap) Desc() driver.HeapDesc      { return h.desc }
func (h *Heap) CPUStart() driver.CPUHandle { return h.cpuStart }
func (h *Heap) GPUStart() driver.GPUHandle { return h.gpuStart }
func (h *Heap) Stride() uint64             { return h.stride }
func (h *Heap) end() driver.CPUHandle      { return h.cpuStart + driver.CPUHandle(len(h.data)) }
func (h *Heap) Destroyed() bool            { return h.destroyed }

// Destroy releases the heap. Destroying a heap twice panics.
func (h *Heap) Destroy() {
	if h.destroyed {
		panic(fmt.Sprintf("attempted to destroy descriptor heap at %#x twice", uint64(h.cpuStart)))
	}

	h.destroyed = true
	h.device.releaseHeap(h)
	h.data = nil
}
