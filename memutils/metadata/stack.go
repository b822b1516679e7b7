package metadata

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/arsenal/hal/memutils"
)

// LinearAllocator is a SlotAllocator that hands out slots from a monotonically increasing cursor.
// Individual slots are never freed: Clear releases everything at once.
//
// This suits per-frame transient descriptors. The consumer must guarantee that no GPU work still
// reads slots from the previous frame before calling Clear.
type LinearAllocator struct {
	cursor   int
	capacity int
}

var _ SlotAllocator = &LinearAllocator{}

// NewLinearAllocator creates an empty LinearAllocator over capacity slots
func NewLinearAllocator(capacity int) *LinearAllocator {
	if capacity < 1 {
		panic(fmt.Sprintf("linear allocator capacity %d must be positive", capacity))
	}

	return &LinearAllocator{capacity: capacity}
}

// Capacity returns the number of slots the allocator manages
func (l *LinearAllocator) Capacity() int { return l.capacity }

// Used returns the number of slots allocated since the last Clear
func (l *LinearAllocator) Used() int { return l.cursor }

// IsFull returns true once the cursor has reached the end
func (l *LinearAllocator) IsFull() bool { return l.cursor >= l.capacity }

// FreeSlotCount returns the number of slots remaining before the allocator is full
func (l *LinearAllocator) FreeSlotCount() int { return l.capacity - l.cursor }

// Alloc reserves the next slot. It panics if the allocator is full: callers are expected to
// check IsFull first.
func (l *LinearAllocator) Alloc() int {
	if l.IsFull() {
		panic(fmt.Sprintf("attempted to allocate from a full linear allocator with %d slots", l.capacity))
	}

	slot := l.cursor
	l.cursor++
	return slot
}

// AllocRange reserves count contiguous slots, returning false if fewer than count remain. A count
// of 0 always succeeds with an empty range.
func (l *LinearAllocator) AllocRange(count int) (Range, bool) {
	if count < 0 {
		panic(fmt.Sprintf("attempted to allocate a negative number of slots: %d", count))
	}
	if count == 0 {
		return Range{}, true
	}
	if count > l.FreeSlotCount() {
		return Range{}, false
	}

	allocated := Range{Start: uint64(l.cursor), End: uint64(l.cursor + count)}
	l.cursor += count
	return allocated, true
}

// Clear resets the cursor, releasing every slot
func (l *LinearAllocator) Clear() {
	l.cursor = 0
}

// Validate performs internal consistency checks on the allocator
func (l *LinearAllocator) Validate() error {
	if l.cursor < 0 || l.cursor > l.capacity {
		return errors.Errorf("linear allocator cursor %d lies outside of its capacity %d", l.cursor, l.capacity)
	}

	return nil
}

// AddStatistics sums this allocator's usage into stats
func (l *LinearAllocator) AddStatistics(stats *memutils.Statistics) {
	stats.HeapCount++
	stats.HeapSlots += l.capacity
	stats.AllocationCount += l.cursor
	stats.AllocationSlots += l.cursor
}

// BlockJsonData populates a json object with information about this allocator
func (l *LinearAllocator) BlockJsonData(json *jwriter.ObjectState) {
	unusedRanges := 0
	if !l.IsFull() {
		unusedRanges = 1
	}
	blockJsonData(json, l.capacity, l.FreeSlotCount(), l.cursor, unusedRanges)
}
