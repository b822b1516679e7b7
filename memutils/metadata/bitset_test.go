package metadata_test

import (
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
)

func TestBitsetFillAndDrain(t *testing.T) {
	allocator := metadata.NewBitsetAllocator(metadata.MaxBitsetSlots)
	require.True(t, allocator.IsEmpty())

	for i := 0; i < metadata.MaxBitsetSlots; i++ {
		require.False(t, allocator.IsFull())
		require.Equal(t, i, allocator.Alloc())
	}
	require.True(t, allocator.IsFull())
	require.Equal(t, 0, allocator.FreeSlotCount())
	require.Panics(t, func() {
		allocator.Alloc()
	})

	for i := 0; i < metadata.MaxBitsetSlots; i++ {
		allocator.Free(i)
	}
	require.True(t, allocator.IsEmpty())
	require.Equal(t, metadata.MaxBitsetSlots, allocator.FreeSlotCount())
	require.NoError(t, allocator.Validate())
}

func TestBitsetLowestSlotFirst(t *testing.T) {
	allocator := metadata.NewBitsetAllocator(8)
	for i := 0; i < 6; i++ {
		allocator.Alloc()
	}

	allocator.Free(4)
	allocator.Free(1)
	require.False(t, allocator.IsAllocated(1))
	require.True(t, allocator.IsAllocated(2))

	require.Equal(t, 1, allocator.Alloc())
	require.Equal(t, 4, allocator.Alloc())
	require.Equal(t, 6, allocator.Alloc())
}

func TestBitsetSmallCapacity(t *testing.T) {
	allocator := metadata.NewBitsetAllocator(3)
	require.Equal(t, 3, allocator.FreeSlotCount())

	allocator.Alloc()
	allocator.Alloc()
	allocator.Alloc()
	require.True(t, allocator.IsFull())
	require.NoError(t, allocator.Validate())

	allocator.Clear()
	require.True(t, allocator.IsEmpty())
	require.Equal(t, 3, allocator.FreeSlotCount())
}

func TestBitsetInvalidUse(t *testing.T) {
	require.Panics(t, func() {
		metadata.NewBitsetAllocator(0)
	})
	require.Panics(t, func() {
		metadata.NewBitsetAllocator(metadata.MaxBitsetSlots + 1)
	})

	allocator := metadata.NewBitsetAllocator(4)
	slot := allocator.Alloc()
	allocator.Free(slot)

	require.Panics(t, func() {
		allocator.Free(slot)
	})
	require.Panics(t, func() {
		allocator.Free(4)
	})
	require.Panics(t, func() {
		allocator.Free(-1)
	})
}

func TestBitsetStatistics(t *testing.T) {
	allocator := metadata.NewBitsetAllocator(8)
	for i := 0; i < 5; i++ {
		allocator.Alloc()
	}
	allocator.Free(1)

	var stats memutils.Statistics
	allocator.AddStatistics(&stats)
	require.Equal(t, memutils.Statistics{
		HeapCount:       1,
		AllocationCount: 4,
		HeapSlots:       8,
		AllocationSlots: 4,
	}, stats)
	require.Equal(t, 4, stats.FreeSlots())

	writer := jwriter.NewWriter()
	obj := writer.Object()
	allocator.BlockJsonData(&obj)
	obj.End()
	require.NoError(t, writer.Error())
	require.JSONEq(t, `{
		"TotalSlots": 8,
		"UnusedSlots": 4,
		"Allocations": 4,
		"UnusedRanges": 2,
		"Availability": "00000000000000e2"
	}`, string(writer.Bytes()))
}
