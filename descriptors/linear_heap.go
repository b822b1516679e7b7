package descriptors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
	"golang.org/x/exp/slog"
)

// LinearHeap hands out descriptor slots from a single native heap in increasing order. Slots are
// never freed individually: Clear releases all of them at once. It suits per-frame descriptors
// that are discarded together once the frame's GPU work has completed.
//
// LinearHeap is not synchronized.
type LinearHeap struct {
	heap  *heap
	slots *metadata.LinearAllocator
}

// NewLinearHeap creates a LinearHeap over a new native heap described by desc
func NewLinearHeap(logger *slog.Logger, device driver.HeapDevice, desc driver.HeapDesc) (*LinearHeap, error) {
	if desc.Capacity <= 0 {
		return nil, errors.Newf("linear descriptor heap capacity must be positive, but was %d", desc.Capacity)
	}

	h, err := createHeap(logger, device, desc, 0)
	if err != nil {
		return nil, err
	}

	return &LinearHeap{
		heap:  h,
		slots: metadata.NewLinearAllocator(desc.Capacity),
	}, nil
}

func (l *LinearHeap) Desc() driver.HeapDesc { return l.heap.desc }
func (l *LinearHeap) HandleSize() uint64    { return l.heap.stride }
func (l *LinearHeap) IsFull() bool          { return l.slots.IsFull() }
func (l *LinearHeap) Used() int             { return l.slots.Used() }

// AllocHandle reserves the next slot
func (l *LinearHeap) AllocHandle() (DualHandle, error) {
	if l.slots.IsFull() {
		return DualHandle{}, memutils.NewOutOfCapacityError(l.resourceName(), 1, 0)
	}

	return l.heap.At(uint64(l.slots.Alloc())), nil
}

// AllocRange reserves count contiguous slots and returns the handle of the first. A count of zero
// returns the heap's first handle and consumes nothing.
func (l *LinearHeap) AllocRange(count int) (DualHandle, metadata.Range, error) {
	r, ok := l.slots.AllocRange(count)
	if !ok {
		return DualHandle{}, metadata.Range{}, memutils.NewOutOfCapacityError(l.resourceName(), count, l.slots.FreeSlotCount())
	}

	return l.heap.At(r.Start), r, nil
}

// At returns the handle of slot index
func (l *LinearHeap) At(index uint64) DualHandle {
	return l.heap.At(index)
}

// Clear releases every slot. The caller must ensure no GPU work still reads from them.
func (l *LinearHeap) Clear() {
	l.slots.Clear()
}

func (l *LinearHeap) AddStatistics(stats *memutils.Statistics) {
	l.slots.AddStatistics(stats)
}

func (l *LinearHeap) Destroy() {
	l.heap.Destroy()
}

func (l *LinearHeap) resourceName() string {
	if l.heap.desc.ShaderVisible {
		return fmt.Sprintf("%s shader visible linear heap", l.heap.desc.Type)
	}
	return fmt.Sprintf("%s linear heap", l.heap.desc.Type)
}
