package descriptors

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/internal/utils"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
	"golang.org/x/exp/slog"
)

// DefaultCPUHeapCapacity is the number of slots in each heap of a CPUPool unless overridden
const DefaultCPUHeapCapacity = metadata.MaxBitsetSlots

// CPUPoolOptions configures a CPUPool
type CPUPoolOptions struct {
	Flags PoolCreateFlags
	// HeapCapacity is the number of slots in each native heap. It must be between 1 and 64, and
	// defaults to 64.
	HeapCapacity int
	// MaxHeaps caps the number of native heaps the pool will create. Zero means no limit.
	MaxHeaps int
}

type cpuHeap struct {
	*heap
	slots *metadata.BitsetAllocator
}

// CPUPool hands out single, non shader visible descriptor slots. It owns a growable list of small
// native heaps, each tracked by a bitset, plus the set of heaps that still have free slots. When
// every heap is full a new one is created.
type CPUPool struct {
	logger       *slog.Logger
	device       driver.HeapDevice
	heapType     driver.HeapType
	heapCapacity int
	maxHeaps     int

	mutex     utils.OptionalMutex
	heaps     []*cpuHeap
	available *swiss.Map[int, struct{}]
	destroyed bool
}

// NewCPUPool creates an empty pool. No native heap is created until the first allocation.
func NewCPUPool(logger *slog.Logger, device driver.HeapDevice, heapType driver.HeapType, options CPUPoolOptions) (*CPUPool, error) {
	if logger == nil {
		return nil, errors.New("attempted to create a descriptor pool with a nil logger")
	}
	if device == nil {
		return nil, errors.New("attempted to create a descriptor pool with a nil device")
	}

	heapCapacity := options.HeapCapacity
	if heapCapacity == 0 {
		heapCapacity = DefaultCPUHeapCapacity
	}
	err := memutils.CheckCapacity(heapCapacity, metadata.MaxBitsetSlots, "CPUPoolOptions.HeapCapacity")
	if err != nil {
		return nil, err
	}
	if options.MaxHeaps < 0 {
		return nil, errors.Newf("CPUPoolOptions.MaxHeaps is %d, but must not be negative", options.MaxHeaps)
	}

	return &CPUPool{
		logger:       logger,
		device:       device,
		heapType:     heapType,
		heapCapacity: heapCapacity,
		maxHeaps:     options.MaxHeaps,
		mutex: utils.OptionalMutex{
			UseMutex: options.Flags&PoolCreateExternallySynchronized == 0,
		},
		available: swiss.NewMap[int, struct{}](8),
	}, nil
}

func (p *CPUPool) HeapType() driver.HeapType { return p.heapType }
func (p *CPUPool) HeapCapacity() int         { return p.heapCapacity }

// HeapCount returns the number of native heaps the pool has created
func (p *CPUPool) HeapCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return len(p.heaps)
}

func (p *CPUPool) createHeap() (int, error) {
	if p.maxHeaps > 0 && len(p.heaps) >= p.maxHeaps {
		return -1, memutils.NewOutOfCapacityError(fmt.Sprintf("%s cpu descriptor pool", p.heapType), 1, 0)
	}

	index := len(p.heaps)
	h, err := createHeap(p.logger, p.device, driver.HeapDesc{
		Type:     p.heapType,
		Capacity: p.heapCapacity,
	}, index)
	if err != nil {
		return -1, err
	}

	p.heaps = append(p.heaps, &cpuHeap{
		heap:  h,
		slots: metadata.NewBitsetAllocator(p.heapCapacity),
	})
	p.available.Put(index, struct{}{})

	p.logger.Debug("grew cpu descriptor pool",
		slog.String("Type", p.heapType.String()),
		slog.Int("HeapCount", len(p.heaps)),
	)

	return index, nil
}

// AllocHandle reserves a single descriptor slot. If every heap is full a new native heap is
// created; failure to create it is returned and nothing is retried.
func (p *CPUPool) AllocHandle() (Handle, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.destroyed {
		panic("attempted to allocate from a destroyed descriptor pool")
	}

	heapIndex := -1
	p.available.Iter(func(index int, _ struct{}) bool {
		heapIndex = index
		return true
	})

	if heapIndex < 0 {
		var err error
		heapIndex, err = p.createHeap()
		if err != nil {
			return Handle{}, err
		}
	}

	h := p.heaps[heapIndex]
	slot := h.slots.Alloc()
	if h.slots.IsFull() {
		p.available.Delete(heapIndex)
	}

	return Handle{
		DualHandle: h.At(uint64(slot)),
		heap:       heapIndex,
		slot:       slot,
	}, nil
}

// Free returns a slot to its heap. A heap that was full becomes available again. Freeing a handle
// that was not allocated from this pool, or freeing it twice, panics.
func (p *CPUPool) Free(handle Handle) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if handle.heap < 0 || handle.heap >= len(p.heaps) {
		panic(fmt.Sprintf("attempted to free a descriptor handle from heap %d, but the pool only has %d heaps", handle.heap, len(p.heaps)))
	}

	h := p.heaps[handle.heap]
	if h.At(uint64(handle.slot)) != handle.DualHandle {
		panic(fmt.Sprintf("attempted to free descriptor handle %s, which does not belong to this pool", handle.DualHandle))
	}

	wasFull := h.slots.IsFull()
	h.slots.Free(handle.slot)
	memutils.DebugValidate(h.slots)
	if wasFull {
		p.available.Put(handle.heap, struct{}{})
	}
}

// Validate performs internal consistency checks on the pool and every heap in it
func (p *CPUPool) Validate() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for index, h := range p.heaps {
		err := h.slots.Validate()
		if err != nil {
			return errors.Wrapf(err, "heap %d", index)
		}

		if h.slots.IsFull() == p.available.Has(index) {
			return errors.Newf("heap %d has %d free slots, but its availability is %t", index, h.slots.FreeSlotCount(), p.available.Has(index))
		}
	}

	if p.available.Count() > len(p.heaps) {
		return errors.Newf("the pool lists %d available heaps, but only has %d heaps", p.available.Count(), len(p.heaps))
	}

	return nil
}

// AddStatistics sums the usage of every heap in the pool into stats
func (p *CPUPool) AddStatistics(stats *memutils.Statistics) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	for _, h := range p.heaps {
		h.slots.AddStatistics(stats)
	}
}

// PrintDetailedMap writes a JSON object describing each heap in the pool
func (p *CPUPool) PrintDetailedMap(writer *jwriter.Writer) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	objState := writer.Object()
	defer objState.End()

	for _, h := range p.heaps {
		heapObj := objState.Name(strconv.Itoa(h.id)).Object()
		heapObj.Name("CPUStart").Int(int(h.base.CPU))
		h.slots.BlockJsonData(&heapObj)
		heapObj.End()
	}
}

// Destroy releases every native heap. Slots still allocated are logged as leaks.
func (p *CPUPool) Destroy() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.destroyed {
		panic("attempted to destroy a descriptor pool twice")
	}

	for _, h := range p.heaps {
		if !h.slots.IsEmpty() {
			for slot := 0; slot < h.slots.Capacity(); slot++ {
				if h.slots.IsAllocated(slot) {
					p.logger.LogAttrs(context.Background(), slog.LevelError,
						"[UNRELEASED DESCRIPTOR] a descriptor slot was not freed before its pool was destroyed",
						slog.String("Type", p.heapType.String()),
						slog.Int("Heap", h.id),
						slog.Int("Slot", slot),
					)
				}
			}
		}

		h.Destroy()
	}

	p.heaps = nil
	p.available.Clear()
	p.destroyed = true
}
