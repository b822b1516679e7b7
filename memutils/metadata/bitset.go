package metadata

import (
	"fmt"
	"math/bits"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/arsenal/hal/memutils"
)

// MaxBitsetSlots is the largest number of slots a BitsetAllocator can manage
const MaxBitsetSlots int = 64

// BitsetAllocator is a SlotAllocator over at most 64 slots, tracked in a single word. Bit i is set
// when slot i is free. Allocation always returns the lowest free slot.
//
// It is intended for small, heavily churned heaps such as CPU-only descriptor heaps. BitsetAllocator
// is not synchronized.
type BitsetAllocator struct {
	availability uint64
	capacity     int
}

var _ SlotAllocator = &BitsetAllocator{}

// NewBitsetAllocator creates a BitsetAllocator with every slot free. capacity must be between 1 and
// MaxBitsetSlots.
func NewBitsetAllocator(capacity int) *BitsetAllocator {
	if capacity < 1 || capacity > MaxBitsetSlots {
		panic(fmt.Sprintf("bitset allocator capacity %d must be between 1 and %d", capacity, MaxBitsetSlots))
	}

	allocator := &BitsetAllocator{capacity: capacity}
	allocator.Clear()
	return allocator
}

func (b *BitsetAllocator) mask() uint64 {
	if b.capacity == MaxBitsetSlots {
		return ^uint64(0)
	}
	return (uint64(1) << b.capacity) - 1
}

// Capacity returns the number of slots the allocator manages
func (b *BitsetAllocator) Capacity() int { return b.capacity }

// IsFull returns true if no slot is free
func (b *BitsetAllocator) IsFull() bool { return b.availability == 0 }

// IsEmpty returns true if every slot is free
func (b *BitsetAllocator) IsEmpty() bool { return b.availability == b.mask() }

// FreeSlotCount returns the number of free slots
func (b *BitsetAllocator) FreeSlotCount() int { return bits.OnesCount64(b.availability) }

// IsAllocated returns true if the provided slot is currently in use
func (b *BitsetAllocator) IsAllocated(slot int) bool {
	return slot >= 0 && slot < b.capacity && b.availability&(uint64(1)<<slot) == 0
}

// Alloc reserves the lowest free slot. It panics if the allocator is full: callers are expected
// to check IsFull first.
func (b *BitsetAllocator) Alloc() int {
	if b.availability == 0 {
		panic("attempted to allocate a slot from a full bitset allocator")
	}

	slot := bits.TrailingZeros64(b.availability)
	b.availability &^= uint64(1) << slot
	return slot
}

// Free returns a slot to the allocator. Freeing a slot that is out of range or already free panics.
func (b *BitsetAllocator) Free(slot int) {
	if slot < 0 || slot >= b.capacity {
		panic(fmt.Sprintf("attempted to free slot %d from a bitset allocator with %d slots", slot, b.capacity))
	}

	bit := uint64(1) << slot
	if b.availability&bit != 0 {
		panic(fmt.Sprintf("attempted to free slot %d, which is already free", slot))
	}

	b.availability |= bit
}

// Clear frees every slot
func (b *BitsetAllocator) Clear() {
	b.availability = b.mask()
}

// Validate performs internal consistency checks on the allocator
func (b *BitsetAllocator) Validate() error {
	if b.capacity < 1 || b.capacity > MaxBitsetSlots {
		return errors.Errorf("bitset allocator has invalid capacity %d", b.capacity)
	}

	if b.availability&^b.mask() != 0 {
		return errors.Errorf("bitset allocator with %d slots has availability bits set beyond its capacity: %064b", b.capacity, b.availability)
	}

	return nil
}

// AddStatistics sums this allocator's usage into stats
func (b *BitsetAllocator) AddStatistics(stats *memutils.Statistics) {
	used := b.capacity - b.FreeSlotCount()

	stats.HeapCount++
	stats.HeapSlots += b.capacity
	stats.AllocationCount += used
	stats.AllocationSlots += used
}

// BlockJsonData populates a json object with information about this allocator
func (b *BitsetAllocator) BlockJsonData(json *jwriter.ObjectState) {
	free := b.FreeSlotCount()
	blockJsonData(json, b.capacity, free, b.capacity-free, bits.OnesCount64(b.availability&^(b.availability<<1)))
	json.Name("Availability").String(fmt.Sprintf("%016x", b.availability))
}
