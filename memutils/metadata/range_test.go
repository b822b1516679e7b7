package metadata_test

import (
	"math/rand"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
)

func allocate(t *testing.T, allocator *metadata.RangeAllocator, size uint64) metadata.Range {
	r, ok := allocator.Allocate(size)
	require.True(t, ok)
	return r
}

func TestRangeBasicAllocation(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 10})

	r := allocate(t, allocator, 4)
	require.Equal(t, metadata.Range{Start: 0, End: 4}, r)
	require.Equal(t, 1, allocator.AllocationCount())

	allocator.Free(r)
	require.Equal(t, []metadata.Range{{Start: 0, End: 10}}, allocator.FreeRanges())
	require.True(t, allocator.IsEmpty())
	require.NoError(t, allocator.Validate())
}

func TestRangeOutOfSpace(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 10})

	r := allocate(t, allocator, 10)
	require.Equal(t, metadata.Range{Start: 0, End: 10}, r)

	_, ok := allocator.Allocate(4)
	require.False(t, ok)
	require.Empty(t, allocator.FreeRanges())
	require.Equal(t, uint64(0), allocator.LargestFreeRange())

	allocator.Free(r)
	require.NoError(t, allocator.Validate())
}

func TestRangeZeroSizeAllocation(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 10})
	allocate(t, allocator, 3)
	before := allocator.FreeRanges()

	r, ok := allocator.Allocate(0)
	require.True(t, ok)
	require.Equal(t, metadata.Range{}, r)
	require.True(t, r.IsEmpty())
	require.Equal(t, before, allocator.FreeRanges())
	require.Equal(t, 1, allocator.AllocationCount())

	// Freeing the empty sentinel is a no-op
	allocator.Free(r)
	require.Equal(t, before, allocator.FreeRanges())
}

func TestRangeZeroSizeOnFullAllocator(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 4})
	allocate(t, allocator, 4)

	r, ok := allocator.Allocate(0)
	require.True(t, ok)
	require.Equal(t, metadata.Range{}, r)
}

func TestRangeFirstFit(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 25})
	a := allocate(t, allocator, 10)
	b := allocate(t, allocator, 10)
	allocate(t, allocator, 5)
	allocator.Free(b)
	allocator.Free(a)
	require.Equal(t, []metadata.Range{{Start: 0, End: 20}}, allocator.FreeRanges())

	allocator = metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 25})
	a = allocate(t, allocator, 10)
	allocate(t, allocator, 10)
	c := allocate(t, allocator, 5)
	allocator.Free(a)
	allocator.Free(c)
	require.Equal(t, []metadata.Range{{Start: 0, End: 10}, {Start: 20, End: 25}}, allocator.FreeRanges())

	// The first range is taken even though the second fits more tightly
	r := allocate(t, allocator, 3)
	require.Equal(t, metadata.Range{Start: 0, End: 3}, r)
	require.Equal(t, []metadata.Range{{Start: 3, End: 10}, {Start: 20, End: 25}}, allocator.FreeRanges())
}

func TestRangeDontUseBlockThatIsTooSmall(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 10})
	require.Equal(t, metadata.Range{Start: 0, End: 3}, allocate(t, allocator, 3))
	require.Equal(t, metadata.Range{Start: 3, End: 6}, allocate(t, allocator, 3))
	require.Equal(t, metadata.Range{Start: 6, End: 9}, allocate(t, allocator, 3))

	allocator.Free(metadata.Range{Start: 3, End: 6})
	require.Equal(t, []metadata.Range{{Start: 3, End: 6}, {Start: 9, End: 10}}, allocator.FreeRanges())

	require.Equal(t, metadata.Range{Start: 3, End: 6}, allocate(t, allocator, 3))
	require.Equal(t, []metadata.Range{{Start: 9, End: 10}}, allocator.FreeRanges())
}

func TestRangeFreeBlocksInMiddle(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 100})
	for i := uint64(0); i < 10; i++ {
		require.Equal(t, metadata.Range{Start: i * 10, End: i*10 + 10}, allocate(t, allocator, 10))
	}
	require.Empty(t, allocator.FreeRanges())

	for i := uint64(1); i < 10; i += 2 {
		allocator.Free(metadata.Range{Start: i * 10, End: i*10 + 10})
	}
	require.Equal(t, []metadata.Range{
		{Start: 10, End: 20},
		{Start: 30, End: 40},
		{Start: 50, End: 60},
		{Start: 70, End: 80},
		{Start: 90, End: 100},
	}, allocator.FreeRanges())

	for i := uint64(1); i < 10; i += 2 {
		require.Equal(t, metadata.Range{Start: i * 10, End: i*10 + 6}, allocate(t, allocator, 6))
	}
	require.Equal(t, []metadata.Range{
		{Start: 16, End: 20},
		{Start: 36, End: 40},
		{Start: 56, End: 60},
		{Start: 76, End: 80},
		{Start: 96, End: 100},
	}, allocator.FreeRanges())

	for i := uint64(1); i < 10; i += 2 {
		require.Equal(t, metadata.Range{Start: i*10 + 6, End: i*10 + 10}, allocate(t, allocator, 4))
	}
	require.Empty(t, allocator.FreeRanges())
	require.NoError(t, allocator.Validate())
}

func TestRangeMergeNeighbors(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 9})
	a := allocate(t, allocator, 3)
	b := allocate(t, allocator, 3)
	c := allocate(t, allocator, 3)

	allocator.Free(a)
	allocator.Free(c)
	require.Equal(t, []metadata.Range{{Start: 0, End: 3}, {Start: 6, End: 9}}, allocator.FreeRanges())

	allocator.Free(b)
	require.Equal(t, []metadata.Range{{Start: 0, End: 9}}, allocator.FreeRanges())
	require.Equal(t, 0, allocator.AllocationCount())
	require.NoError(t, allocator.Validate())
}

func TestRangeMergeFragmented(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 8})
	front := allocate(t, allocator, 4)
	middle := allocate(t, allocator, 2)
	back := allocate(t, allocator, 2)

	allocator.Free(front)
	allocator.Free(back)

	// Six slots are free, but not contiguously
	_, ok := allocator.Allocate(5)
	require.False(t, ok)
	require.Equal(t, uint64(4), allocator.LargestFreeRange())

	allocator.Free(middle)
	require.Equal(t, metadata.Range{Start: 0, End: 5}, allocate(t, allocator, 5))
}

func TestRangeEndToEnd(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 100})

	first := allocate(t, allocator, 10)
	middle := allocate(t, allocator, 20)
	last := allocate(t, allocator, 5)
	require.Equal(t, metadata.Range{Start: 0, End: 10}, first)
	require.Equal(t, metadata.Range{Start: 10, End: 30}, middle)
	require.Equal(t, metadata.Range{Start: 30, End: 35}, last)

	allocator.Free(middle)
	require.Equal(t, []metadata.Range{{Start: 10, End: 30}, {Start: 35, End: 100}}, allocator.FreeRanges())

	// {10,30} only holds 20 slots, so the scan moves on to the tail
	require.Equal(t, metadata.Range{Start: 35, End: 60}, allocate(t, allocator, 25))
	require.Equal(t, []metadata.Range{{Start: 10, End: 30}, {Start: 60, End: 100}}, allocator.FreeRanges())
	require.NoError(t, allocator.Validate())
}

func TestRangeNonZeroStart(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 100, End: 110})
	require.Equal(t, metadata.Range{Start: 100, End: 104}, allocate(t, allocator, 4))

	require.Panics(t, func() {
		allocator.Free(metadata.Range{Start: 95, End: 100})
	})
	require.Panics(t, func() {
		allocator.Free(metadata.Range{Start: 108, End: 112})
	})
}

func TestRangeDoubleFreePanics(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 10})
	a := allocate(t, allocator, 4)
	allocate(t, allocator, 4)
	allocator.Free(a)

	require.Panics(t, func() {
		allocator.Free(a)
	})
	require.Panics(t, func() {
		// Overlaps the free tail [8, 10)
		allocator.Free(metadata.Range{Start: 6, End: 9})
	})
	require.NoError(t, allocator.Validate())
}

func TestRangeReset(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 10})
	allocate(t, allocator, 3)
	allocate(t, allocator, 3)

	allocator.Reset()
	require.Equal(t, []metadata.Range{{Start: 0, End: 10}}, allocator.FreeRanges())
	require.Equal(t, 0, allocator.AllocationCount())
}

func TestRangeEmptyAllocator(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 5, End: 5})
	require.Empty(t, allocator.FreeRanges())

	_, ok := allocator.Allocate(1)
	require.False(t, ok)

	r, ok := allocator.Allocate(0)
	require.True(t, ok)
	require.True(t, r.IsEmpty())
	require.NoError(t, allocator.Validate())
}

func TestRangeSumInvariant(t *testing.T) {
	const total = 1000
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: total})
	rng := rand.New(rand.NewSource(7))

	var outstanding []metadata.Range
	for iteration := 0; iteration < 5000; iteration++ {
		if len(outstanding) > 0 && rng.Intn(3) == 0 {
			index := rng.Intn(len(outstanding))
			allocator.Free(outstanding[index])
			outstanding = append(outstanding[:index], outstanding[index+1:]...)
		} else {
			r, ok := allocator.Allocate(uint64(rng.Intn(40)))
			if ok && !r.IsEmpty() {
				outstanding = append(outstanding, r)
			}
		}

		var allocated uint64
		for _, r := range outstanding {
			allocated += r.Len()
		}
		require.Equal(t, uint64(total), allocated+allocator.SumFreeSize())

		free := allocator.FreeRanges()
		for i := 1; i < len(free); i++ {
			require.Less(t, free[i-1].End, free[i].Start)
		}
		for _, r := range outstanding {
			for _, f := range free {
				require.False(t, r.Overlaps(f), "allocation %s overlaps free range %s", r, f)
			}
		}
		require.NoError(t, allocator.Validate())
	}

	for _, r := range outstanding {
		allocator.Free(r)
	}
	require.Equal(t, []metadata.Range{{Start: 0, End: total}}, allocator.FreeRanges())
}

func TestRangeStatistics(t *testing.T) {
	allocator := metadata.NewRangeAllocator(metadata.Range{Start: 0, End: 100})
	allocate(t, allocator, 10)
	b := allocate(t, allocator, 20)
	allocate(t, allocator, 5)
	allocator.Free(b)

	var stats memutils.DetailedStatistics
	stats.Clear()
	allocator.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			HeapCount:       1,
			HeapSlots:       100,
			AllocationCount: 2,
			AllocationSlots: 15,
		},
		UnusedRangeCount:   2,
		AllocationSizeMin:  5,
		AllocationSizeMax:  10,
		UnusedRangeSizeMin: 20,
		UnusedRangeSizeMax: 65,
	}, stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()
	allocator.BlockJsonData(&obj)
	obj.End()
	require.NoError(t, writer.Error())
	require.JSONEq(t, `{
		"TotalSlots": 100,
		"UnusedSlots": 85,
		"Allocations": 2,
		"UnusedRanges": 2,
		"FreeRanges": [
			{"Offset": 10, "Size": 20},
			{"Offset": 35, "Size": 65}
		]
	}`, string(writer.Bytes()))
}
