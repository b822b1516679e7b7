package hal_test

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/hal"
	"github.com/vkngwrapper/arsenal/hal/command"
	"github.com/vkngwrapper/arsenal/hal/descriptors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/driver/mocks"
	"github.com/vkngwrapper/arsenal/hal/driver/soft"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

var smallHeaps = map[driver.HeapType]descriptors.ManagedHeapOptions{
	driver.HeapTypeCbvSrvUav: {StagingCapacity: 64, GPUHeapCapacity: 16, MaxGPUHeaps: 1},
	driver.HeapTypeSampler:   {StagingCapacity: 64, GPUHeapCapacity: 16, MaxGPUHeaps: 1},
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newAllocator(t *testing.T, flags hal.CreateFlags) (*hal.Allocator, *soft.Device) {
	device := soft.New(discardLogger(), soft.Options{})
	allocator, err := hal.New(discardLogger(), device, hal.CreateOptions{
		Flags:        flags,
		ManagedHeaps: smallHeaps,
	})
	require.NoError(t, err)

	return allocator, device
}

func TestAllocatorCreatesStagingHeaps(t *testing.T) {
	allocator, device := newAllocator(t, 0)

	require.Equal(t, 2, device.HeapsCreated())
	require.NotNil(t, allocator.ManagedHeap(driver.HeapTypeCbvSrvUav))
	require.NotNil(t, allocator.ManagedHeap(driver.HeapTypeSampler))
	require.Nil(t, allocator.ManagedHeap(driver.HeapTypeRtv))
	for _, heapType := range driver.HeapTypes {
		require.Equal(t, heapType, allocator.CPUPool(heapType).HeapType())
		require.Equal(t, 0, allocator.CPUPool(heapType).HeapCount())
	}

	allocator.Destroy()
	require.Equal(t, 0, device.LiveHeaps())
	require.Panics(t, func() {
		allocator.Destroy()
	})
}

func TestAllocatorCPUHandles(t *testing.T) {
	for _, flags := range []hal.CreateFlags{0, hal.AllocatorCreateExternallySynchronized} {
		t.Run(flags.String(), func(t *testing.T) {
			allocator, device := newAllocator(t, flags)
			defer allocator.Destroy()

			rtv, err := allocator.AllocHandle(driver.HeapTypeRtv)
			require.NoError(t, err)
			dsv, err := allocator.AllocHandle(driver.HeapTypeDsv)
			require.NoError(t, err)
			require.NotEqual(t, rtv.CPU, dsv.CPU)
			require.Zero(t, rtv.GPU)
			require.Equal(t, 4, device.HeapsCreated())

			allocator.FreeHandle(driver.HeapTypeRtv, rtv)
			allocator.FreeHandle(driver.HeapTypeDsv, dsv)
			require.NoError(t, allocator.Validate())

			_, err = allocator.AllocHandle(driver.HeapType(9))
			require.Error(t, err)
			require.Panics(t, func() {
				allocator.FreeHandle(driver.HeapType(9), rtv)
			})
		})
	}
}

func TestAllocatorDescriptorRanges(t *testing.T) {
	allocator, device := newAllocator(t, 0)
	defer allocator.Destroy()

	r, err := allocator.AllocateDescriptors(driver.HeapTypeSampler, 60)
	require.NoError(t, err)
	require.Equal(t, uint64(60), r.End-r.Start)

	_, err = allocator.AllocateDescriptors(driver.HeapTypeSampler, 8)
	var capacityErr *memutils.OutOfCapacityError
	require.ErrorAs(t, err, &capacityErr)
	require.ErrorIs(t, err, memutils.ErrOutOfCapacity)
	require.Equal(t, 8, capacityErr.Requested)
	require.Equal(t, 4, capacityErr.Available)

	_, err = allocator.AllocateDescriptors(driver.HeapTypeRtv, 1)
	require.Error(t, err)

	allocator.FreeDescriptors(driver.HeapTypeSampler, r)

	table, err := allocator.AllocateDescriptors(driver.HeapTypeCbvSrvUav, 4)
	require.NoError(t, err)

	handle, err := allocator.BindDescriptors(driver.HeapTypeCbvSrvUav, table, 1)
	require.NoError(t, err)
	require.True(t, handle.IsShaderVisible())
	require.Equal(t, 4, device.CopiedDescriptors())
	require.True(t, allocator.ManagedHeap(driver.HeapTypeCbvSrvUav).IsResident(table))

	// a range larger than a shader visible heap can never be bound
	big, err := allocator.AllocateDescriptors(driver.HeapTypeCbvSrvUav, 17)
	require.NoError(t, err)
	_, err = allocator.BindDescriptors(driver.HeapTypeCbvSrvUav, big, 1)
	require.ErrorIs(t, err, memutils.ErrOutOfCapacity)

	allocator.Retire(1)
	allocator.FreeDescriptors(driver.HeapTypeCbvSrvUav, big)
	allocator.FreeDescriptors(driver.HeapTypeCbvSrvUav, table)
	allocator.Retire(1)
	require.Equal(t, 0, allocator.ManagedHeap(driver.HeapTypeCbvSrvUav).ResidentCount())
	require.NoError(t, allocator.Validate())
}

func TestAllocatorLinearHeaps(t *testing.T) {
	allocator, device := newAllocator(t, 0)
	defer allocator.Destroy()

	heap, err := allocator.CreateLinearHeap(driver.HeapDesc{Type: driver.HeapTypeCbvSrvUav, ShaderVisible: true, Capacity: 8})
	require.NoError(t, err)
	_, err = heap.AllocHandle()
	require.NoError(t, err)

	var stats hal.TotalStatistics
	allocator.CalculateStatistics(&stats)
	require.Equal(t, 1, stats.LinearHeaps.HeapCount)
	require.Equal(t, 1, stats.LinearHeaps.AllocationSlots)

	allocator.DestroyLinearHeap(heap)
	require.Equal(t, 2, device.LiveHeaps())
	require.Panics(t, func() {
		allocator.DestroyLinearHeap(heap)
	})

	_, err = allocator.CreateLinearHeap(driver.HeapDesc{Type: driver.HeapTypeRtv, ShaderVisible: true, Capacity: 8})
	require.Error(t, err)
}

func TestAllocatorCommandPools(t *testing.T) {
	allocator, device := newAllocator(t, 0)
	defer allocator.Destroy()

	pool, err := allocator.CreateCommandPool(queue.KindGraphics, command.PoolOptions{})
	require.NoError(t, err)
	require.IsType(t, &command.NativePool{}, pool)
	require.Equal(t, 1, device.CommandAllocatorsCreated())

	buffers, err := pool.Allocate(1, command.LevelPrimary)
	require.NoError(t, err)

	table, err := allocator.AllocateDescriptors(driver.HeapTypeCbvSrvUav, 2)
	require.NoError(t, err)
	handle, err := allocator.BindDescriptors(driver.HeapTypeCbvSrvUav, table, 1)
	require.NoError(t, err)

	buffer := buffers[0]
	require.NoError(t, buffer.Begin())
	require.NoError(t, buffer.BindDescriptorHeaps(handle.GPU, 0))
	require.NoError(t, buffer.Draw(3, 1, 0, 0))
	require.NoError(t, buffer.End())

	q, err := allocator.CreateQueue(queue.KindGeneral, device)
	require.NoError(t, err)
	require.NoError(t, command.Submit(q, buffer))
	require.Len(t, device.Batches(), 1)
	require.Equal(t, queue.KindGraphics, device.Batches()[0].Kind)

	_, err = allocator.CreateQueue(queue.Kind(7), device)
	require.Error(t, err)

	pool.Free(buffers)
	allocator.FreeDescriptors(driver.HeapTypeCbvSrvUav, table)
	allocator.DestroyCommandPool(pool)
	require.Panics(t, func() {
		allocator.DestroyCommandPool(pool)
	})
}

func TestAllocatorSoftwareCommandPools(t *testing.T) {
	allocator, device := newAllocator(t, hal.AllocatorCreateSoftwareCommandPools)

	pool, err := allocator.CreateCommandPool(queue.KindCompute, command.PoolOptions{Flags: command.PoolCreateResetIndividual})
	require.NoError(t, err)
	require.IsType(t, &command.SoftPool{}, pool)
	require.Equal(t, 0, device.CommandAllocatorsCreated())

	_, err = allocator.CreateCommandPool(queue.Kind(7), command.PoolOptions{})
	require.Error(t, err)

	var stats hal.TotalStatistics
	allocator.CalculateStatistics(&stats)
	require.Equal(t, 1, stats.CommandPools)

	// pools still owned by the allocator are destroyed with it
	allocator.Destroy()
	require.Panics(t, func() {
		pool.Destroy()
	})
}

func TestAllocatorStatistics(t *testing.T) {
	allocator, _ := newAllocator(t, 0)
	defer allocator.Destroy()

	handle, err := allocator.AllocHandle(driver.HeapTypeRtv)
	require.NoError(t, err)
	defer allocator.FreeHandle(driver.HeapTypeRtv, handle)

	table, err := allocator.AllocateDescriptors(driver.HeapTypeSampler, 10)
	require.NoError(t, err)
	defer allocator.FreeDescriptors(driver.HeapTypeSampler, table)

	_, err = allocator.BindDescriptors(driver.HeapTypeSampler, table, 1)
	require.NoError(t, err)

	var stats hal.TotalStatistics
	allocator.CalculateStatistics(&stats)

	require.Equal(t, memutils.Statistics{HeapCount: 1, AllocationCount: 1, HeapSlots: 64, AllocationSlots: 1}, stats.CPUPools[driver.HeapTypeRtv])
	require.Equal(t, 10, stats.Staging[driver.HeapTypeSampler].AllocationSlots)
	require.Equal(t, 10, stats.Staging[driver.HeapTypeSampler].AllocationSizeMin)
	require.Equal(t, 10, stats.Staging[driver.HeapTypeSampler].AllocationSizeMax)
	require.Equal(t, 64, stats.Staging[driver.HeapTypeSampler].HeapSlots)
	require.Equal(t, memutils.Statistics{HeapCount: 1, AllocationCount: 1, HeapSlots: 16, AllocationSlots: 10}, stats.GPUHeaps[driver.HeapTypeSampler])
	require.Equal(t, 0, stats.GPUHeaps[driver.HeapTypeCbvSrvUav].HeapCount)

	// one rtv heap, two staging heaps and one shader visible sampler heap
	require.Equal(t, 4, stats.Total.HeapCount)
	require.Equal(t, 64+64+64+16, stats.Total.HeapSlots)
	require.Equal(t, 1+10+10, stats.Total.AllocationSlots)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(allocator.BuildStatsString(false)), &summary))
	require.Equal(t, float64(4), summary["Total"].(map[string]any)["HeapCount"])
	require.Equal(t, float64(0), summary["CommandPools"])
	require.NotContains(t, summary["ManagedHeaps"].(map[string]any), "HeapTypeRtv")

	var detailed map[string]any
	require.NoError(t, json.Unmarshal([]byte(allocator.BuildStatsString(true)), &detailed))
	rtv := detailed["CPUPools"].(map[string]any)["HeapTypeRtv"].(map[string]any)
	require.Contains(t, rtv, "Heaps")
	sampler := detailed["ManagedHeaps"].(map[string]any)["HeapTypeSampler"].(map[string]any)
	require.Equal(t, float64(1), sampler["Map"].(map[string]any)["ResidentRanges"])
	require.Equal(t, float64(54), sampler["Staging"].(map[string]any)["UnusedRangeSizeMax"])
	require.Equal(t, float64(10), sampler["Staging"].(map[string]any)["AllocationSizeMin"])
	require.Equal(t, float64(10), sampler["Staging"].(map[string]any)["AllocationSizeMax"])
	stagingMap := sampler["Map"].(map[string]any)["Staging"].(map[string]any)
	require.Equal(t, []any{map[string]any{"Offset": float64(10), "Size": float64(54)}}, stagingMap["FreeRanges"])
}

func TestAllocatorLogsLeaks(t *testing.T) {
	var logs bytes.Buffer
	device := soft.New(discardLogger(), soft.Options{})
	allocator, err := hal.New(slog.New(slog.NewJSONHandler(&logs, nil)), device, hal.CreateOptions{
		ManagedHeaps: smallHeaps,
	})
	require.NoError(t, err)

	_, err = allocator.AllocHandle(driver.HeapTypeDsv)
	require.NoError(t, err)
	_, err = allocator.CreateLinearHeap(driver.HeapDesc{Type: driver.HeapTypeSampler, Capacity: 4})
	require.NoError(t, err)

	allocator.Destroy()
	require.Contains(t, logs.String(), "[UNRELEASED DESCRIPTOR]")
	require.Contains(t, logs.String(), "[UNRELEASED LINEAR HEAP]")
	require.Equal(t, 0, device.LiveHeaps())
}

func TestAllocatorInvalidOptions(t *testing.T) {
	device := soft.New(discardLogger(), soft.Options{})

	_, err := hal.New(nil, device, hal.CreateOptions{})
	require.Error(t, err)

	_, err = hal.New(discardLogger(), nil, hal.CreateOptions{})
	require.Error(t, err)

	_, err = hal.New(discardLogger(), device, hal.CreateOptions{
		ManagedHeaps: map[driver.HeapType]descriptors.ManagedHeapOptions{
			driver.HeapTypeDsv: {},
		},
	})
	require.Error(t, err)

	_, err = hal.New(discardLogger(), device, hal.CreateOptions{
		CPUPools: map[driver.HeapType]descriptors.CPUPoolOptions{
			driver.HeapTypeRtv: {HeapCapacity: 65},
		},
	})
	require.Error(t, err)
	require.Equal(t, 0, device.HeapsCreated())
}

func TestAllocatorDriverFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)

	staging := mocks.NewMockDescriptorHeap(ctrl)
	stagingDesc := driver.HeapDesc{Type: driver.HeapTypeCbvSrvUav, Capacity: 64}
	staging.EXPECT().Desc().Return(stagingDesc).AnyTimes()
	staging.EXPECT().CPUStart().Return(driver.CPUHandle(0x1000)).AnyTimes()
	staging.EXPECT().GPUStart().Return(driver.GPUHandle(0)).AnyTimes()
	staging.EXPECT().Stride().Return(uint64(32)).AnyTimes()

	gomock.InOrder(
		device.EXPECT().CreateDescriptorHeap(stagingDesc).Return(staging, nil),
		device.EXPECT().CreateDescriptorHeap(driver.HeapDesc{Type: driver.HeapTypeSampler, Capacity: 64}).
			Return(nil, errors.New("out of device memory")),
		staging.EXPECT().Destroy(),
	)

	_, err := hal.New(discardLogger(), device, hal.CreateOptions{ManagedHeaps: smallHeaps})
	require.ErrorContains(t, err, "out of device memory")
}

func TestCreateFlagStrings(t *testing.T) {
	require.Equal(t, "AllocatorCreateExternallySynchronized|AllocatorCreateSoftwareCommandPools",
		(hal.AllocatorCreateExternallySynchronized | hal.AllocatorCreateSoftwareCommandPools).String())
}
