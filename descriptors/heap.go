package descriptors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"golang.org/x/exp/slog"
)

// heap owns one native descriptor heap. The native heap is destroyed exactly once, with the heap.
type heap struct {
	id       int
	native   driver.DescriptorHeap
	desc     driver.HeapDesc
	stride   uint64
	base     DualHandle
	released bool
}

func createHeap(logger *slog.Logger, device driver.HeapDevice, desc driver.HeapDesc, id int) (*heap, error) {
	native, err := device.CreateDescriptorHeap(desc)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s descriptor heap with %d slots", desc.Type, desc.Capacity)
	}

	h := &heap{
		id:     id,
		native: native,
		desc:   desc,
		stride: native.Stride(),
		base: DualHandle{
			CPU: native.CPUStart(),
			GPU: native.GPUStart(),
		},
	}

	if desc.ShaderVisible && h.base.GPU == 0 {
		native.Destroy()
		return nil, errors.Newf("driver returned a shader visible %s heap without a device address", desc.Type)
	}

	logger.Debug("created descriptor heap",
		slog.String("Type", desc.Type.String()),
		slog.Bool("ShaderVisible", desc.ShaderVisible),
		slog.Int("Capacity", desc.Capacity),
		slog.Int("Id", id),
	)

	return h, nil
}

func (h *heap) Capacity() int { return h.desc.Capacity }

// At returns the handle of the slot at index
func (h *heap) At(index uint64) DualHandle {
	if index >= uint64(h.desc.Capacity) {
		panic(fmt.Sprintf("attempted to address slot %d of a %s heap with %d slots", index, h.desc.Type, h.desc.Capacity))
	}
	return h.base.Offset(index, h.stride)
}

func (h *heap) Destroy() {
	if h.released {
		panic(fmt.Sprintf("attempted to destroy %s descriptor heap %d twice", h.desc.Type, h.id))
	}

	h.released = true
	h.native.Destroy()
	h.native = nil
}
