package metadata

import (
	"cmp"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"golang.org/x/exp/slices"
)

// RangeAllocator is a first-fit free-list allocator over a fixed interval of slots. It hands out
// contiguous ranges of arbitrary length and coalesces neighbouring ranges as they are freed.
//
// The free list is kept sorted by Start and never contains overlapping or adjacent ranges. Allocation
// scans it in ascending order and takes the first range that is long enough, leaving the remainder in
// place.
//
// RangeAllocator is not synchronized. Consumers that share it between goroutines must lock around it.
type RangeAllocator struct {
	initialRange    Range
	freeRanges      []Range
	allocationCount int
	// allocationSizes counts live allocations by length
	allocationSizes map[uint64]int
}

// NewRangeAllocator creates a RangeAllocator managing the provided interval. The whole interval
// starts out free.
func NewRangeAllocator(initialRange Range) *RangeAllocator {
	if initialRange.Start > initialRange.End {
		panic(fmt.Sprintf("attempted to create a range allocator with an inverted range %s", initialRange))
	}

	allocator := &RangeAllocator{
		initialRange:    initialRange,
		allocationSizes: make(map[uint64]int),
	}
	allocator.Reset()
	return allocator
}

// InitialRange returns the interval this allocator was created with
func (a *RangeAllocator) InitialRange() Range { return a.initialRange }

// AllocationCount returns the number of non-empty ranges that are currently allocated
func (a *RangeAllocator) AllocationCount() int { return a.allocationCount }

// FreeRangesCount returns the number of distinct free ranges
func (a *RangeAllocator) FreeRangesCount() int { return len(a.freeRanges) }

// FreeRanges returns a copy of the free list, ordered by Start
func (a *RangeAllocator) FreeRanges() []Range {
	return slices.Clone(a.freeRanges)
}

// IsEmpty returns true if nothing is allocated
func (a *RangeAllocator) IsEmpty() bool {
	return a.SumFreeSize() == a.initialRange.Len()
}

// SumFreeSize returns the total number of unallocated slots
func (a *RangeAllocator) SumFreeSize() uint64 {
	var sum uint64
	for _, free := range a.freeRanges {
		sum += free.Len()
	}
	return sum
}

// LargestFreeRange returns the length of the largest allocation that could currently succeed
func (a *RangeAllocator) LargestFreeRange() uint64 {
	var largest uint64
	for _, free := range a.freeRanges {
		if free.Len() > largest {
			largest = free.Len()
		}
	}
	return largest
}

// Allocate reserves size contiguous slots. It returns false if no free range is long enough; the
// caller decides whether to grow its backing heap or fail upward. Allocate(0) always succeeds with
// an empty range at offset 0 and consumes nothing.
func (a *RangeAllocator) Allocate(size uint64) (Range, bool) {
	if size == 0 {
		return Range{}, true
	}

	for index := 0; index < len(a.freeRanges); index++ {
		free := a.freeRanges[index]
		if free.Len() < size {
			continue
		}

		allocated := Range{Start: free.Start, End: free.Start + size}
		if free.Len() == size {
			a.freeRanges = slices.Delete(a.freeRanges, index, index+1)
		} else {
			a.freeRanges[index].Start += size
		}

		a.allocationCount++
		a.allocationSizes[size]++
		return allocated, true
	}

	return Range{}, false
}

// Free returns a range returned by Allocate to the free list, merging it with its neighbours.
// Freeing an empty range does nothing. Freeing a range that lies outside the allocator or overlaps
// space that is already free is a double free and panics.
func (a *RangeAllocator) Free(r Range) {
	if r.Start > r.End {
		panic(fmt.Sprintf("attempted to free inverted range %s", r))
	}
	if r.IsEmpty() {
		return
	}
	if !a.initialRange.Contains(r) {
		panic(fmt.Sprintf("attempted to free range %s, which lies outside of the allocator's range %s", r, a.initialRange))
	}

	index, _ := slices.BinarySearchFunc(a.freeRanges, r.Start, func(free Range, start uint64) int {
		return cmp.Compare(free.Start, start)
	})

	if index > 0 && a.freeRanges[index-1].End > r.Start {
		panic(fmt.Sprintf("attempted to free range %s, but it overlaps free range %s", r, a.freeRanges[index-1]))
	}
	if index < len(a.freeRanges) && a.freeRanges[index].Start < r.End {
		panic(fmt.Sprintf("attempted to free range %s, but it overlaps free range %s", r, a.freeRanges[index]))
	}

	mergeLeft := index > 0 && a.freeRanges[index-1].End == r.Start
	mergeRight := index < len(a.freeRanges) && a.freeRanges[index].Start == r.End

	switch {
	case mergeLeft && mergeRight:
		a.freeRanges[index-1].End = a.freeRanges[index].End
		a.freeRanges = slices.Delete(a.freeRanges, index, index+1)
	case mergeLeft:
		a.freeRanges[index-1].End = r.End
	case mergeRight:
		a.freeRanges[index].Start = r.Start
	default:
		a.freeRanges = slices.Insert(a.freeRanges, index, r)
	}

	if a.allocationCount > 0 {
		a.allocationCount--
	}
	if count := a.allocationSizes[r.Len()]; count > 1 {
		a.allocationSizes[r.Len()] = count - 1
	} else {
		delete(a.allocationSizes, r.Len())
	}
	memutils.DebugValidate(a)
}

// Reset frees every allocation at once
func (a *RangeAllocator) Reset() {
	a.freeRanges = a.freeRanges[:0]
	if !a.initialRange.IsEmpty() {
		a.freeRanges = append(a.freeRanges, a.initialRange)
	}
	a.allocationCount = 0
	clear(a.allocationSizes)
}

// Validate performs internal consistency checks on the free list
func (a *RangeAllocator) Validate() error {
	var sumFree uint64

	for index, free := range a.freeRanges {
		if free.IsEmpty() || free.Start > free.End {
			return errors.Errorf("free range at index %d is %s, but empty and inverted ranges should never be stored", index, free)
		}

		if !a.initialRange.Contains(free) {
			return errors.Errorf("free range at index %d is %s, which lies outside of the allocator's range %s", index, free, a.initialRange)
		}

		if index > 0 {
			prev := a.freeRanges[index-1]
			if prev.End > free.Start {
				return errors.Errorf("free range at index %d is %s, which overlaps or precedes the previous range %s", index, free, prev)
			}
			if prev.End == free.Start {
				return errors.Errorf("free range at index %d is %s, which is adjacent to the previous range %s and should have been merged", index, free, prev)
			}
		}

		sumFree += free.Len()
	}

	if sumFree > a.initialRange.Len() {
		return errors.Errorf("the free list contains %d slots, but the allocator only manages %d", sumFree, a.initialRange.Len())
	}

	if sumFree == a.initialRange.Len() && a.allocationCount != 0 {
		return errors.Errorf("the allocator is completely free, but reports %d live allocations", a.allocationCount)
	}

	return nil
}

// AddStatistics sums this allocator's usage into stats
func (a *RangeAllocator) AddStatistics(stats *memutils.Statistics) {
	total := int(a.initialRange.Len())

	stats.HeapCount++
	stats.HeapSlots += total
	stats.AllocationCount += a.allocationCount
	stats.AllocationSlots += total - int(a.SumFreeSize())
}

// AddDetailedStatistics sums this allocator's usage, including each free range, into stats
func (a *RangeAllocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.HeapCount++
	stats.HeapSlots += int(a.initialRange.Len())

	for size, count := range a.allocationSizes {
		for i := 0; i < count; i++ {
			stats.AddAllocation(int(size))
		}
	}

	for _, free := range a.freeRanges {
		stats.AddUnusedRange(int(free.Len()))
	}
}

// BlockJsonData populates a json object with information about this allocator
func (a *RangeAllocator) BlockJsonData(json *jwriter.ObjectState) {
	blockJsonData(json, int(a.initialRange.Len()), int(a.SumFreeSize()), a.allocationCount, len(a.freeRanges))

	freeArray := json.Name("FreeRanges").Array()
	defer freeArray.End()

	for _, free := range a.freeRanges {
		obj := freeArray.Object()
		obj.Name("Offset").Int(int(free.Start))
		obj.Name("Size").Int(int(free.Len()))
		obj.End()
	}
}
