package metadata

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/hal/memutils"
)

// Range is a half-open interval [Start, End) over a descriptor heap's slot space. A Range
// with Start == End is a valid empty allocation and is distinct from allocation failure, which
// is always reported through a separate boolean.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of slots covered by the range
func (r Range) Len() uint64 { return r.End - r.Start }

// IsEmpty returns true if the range covers no slots
func (r Range) IsEmpty() bool { return r.Start == r.End }

// Contains returns true if other lies entirely within r
func (r Range) Contains(other Range) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Overlaps returns true if the two ranges share at least one slot
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// SlotAllocator is implemented by the single-slot allocators that back fixed-capacity descriptor
// heaps. Alloc must only be called when IsFull returns false: implementations panic otherwise,
// since a pool dispatching to a full heap is a programming error rather than a capacity failure.
type SlotAllocator interface {
	// Capacity returns the number of slots the allocator manages
	Capacity() int
	// Alloc reserves a single slot and returns its index
	Alloc() int
	// IsFull returns true if no slot can currently be allocated
	IsFull() bool
	// FreeSlotCount returns the number of slots that can still be allocated
	FreeSlotCount() int
	// Clear releases every slot at once
	Clear()

	// Validate performs internal consistency checks on the allocator
	Validate() error
	// AddStatistics sums this allocator's usage into stats
	AddStatistics(stats *memutils.Statistics)
	// BlockJsonData populates a json object with information about this allocator
	BlockJsonData(json *jwriter.ObjectState)
}

func blockJsonData(json *jwriter.ObjectState, totalSlots, unusedSlots, allocationCount, unusedRangeCount int) {
	json.Name("TotalSlots").Int(totalSlots)
	json.Name("UnusedSlots").Int(unusedSlots)
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)
}
