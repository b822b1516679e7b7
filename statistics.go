package hal

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/hal/descriptors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/memutils"
)

// TotalStatistics summarizes every descriptor resource owned by an Allocator. Sizes are measured
// in descriptor slots.
type TotalStatistics struct {
	// CPUPools holds the usage of the CPU descriptor pool of each heap type
	CPUPools map[driver.HeapType]memutils.Statistics
	// Staging holds the usage of the staging heap of each managed heap
	Staging map[driver.HeapType]memutils.DetailedStatistics
	// GPUHeaps holds the usage of the shader visible heaps of each managed heap
	GPUHeaps    map[driver.HeapType]memutils.Statistics
	LinearHeaps memutils.Statistics
	// Total sums every other field
	Total        memutils.Statistics
	CommandPools int
}

// CalculateStatistics fills stats with the current usage of the allocator. It reads the GPU tier
// of the managed heaps, so it must not run concurrently with Bind or Retire.
func (a *Allocator) CalculateStatistics(stats *TotalStatistics) {
	stats.CPUPools = make(map[driver.HeapType]memutils.Statistics, len(a.cpuPools))
	stats.Staging = make(map[driver.HeapType]memutils.DetailedStatistics, len(a.managedHeaps))
	stats.GPUHeaps = make(map[driver.HeapType]memutils.Statistics, len(a.managedHeaps))
	stats.LinearHeaps.Clear()
	stats.Total.Clear()

	for _, heapType := range driver.HeapTypes {
		var poolStats memutils.Statistics
		a.cpuPools[heapType].AddStatistics(&poolStats)
		stats.CPUPools[heapType] = poolStats
		stats.Total.AddStatistics(&poolStats)

		heap, ok := a.managedHeaps[heapType]
		if !ok {
			continue
		}

		var stagingStats memutils.DetailedStatistics
		stagingStats.Clear()
		heap.AddDetailedStatistics(&stagingStats)
		stats.Staging[heapType] = stagingStats
		stats.Total.AddStatistics(&stagingStats.Statistics)

		var gpuStats memutils.Statistics
		heap.AddGPUStatistics(&gpuStats)
		stats.GPUHeaps[heapType] = gpuStats
		stats.Total.AddStatistics(&gpuStats)
	}

	a.mutex.RLock()
	defer a.mutex.RUnlock()

	if a.linearHeaps != nil {
		a.linearHeaps.Iter(func(heap *descriptors.LinearHeap, _ struct{}) bool {
			heap.AddStatistics(&stats.LinearHeaps)
			return false
		})
	}
	stats.Total.AddStatistics(&stats.LinearHeaps)
	stats.CommandPools = len(a.commandPools)
}

func printStatistics(writer *jwriter.Writer, stats *memutils.Statistics) {
	objState := writer.Object()
	defer objState.End()

	objState.Name("HeapCount").Int(stats.HeapCount)
	objState.Name("AllocationCount").Int(stats.AllocationCount)
	objState.Name("HeapSlots").Int(stats.HeapSlots)
	objState.Name("AllocationSlots").Int(stats.AllocationSlots)
	objState.Name("FreeSlots").Int(stats.FreeSlots())
}

func printDetailedStatistics(writer *jwriter.Writer, stats *memutils.DetailedStatistics) {
	objState := writer.Object()
	defer objState.End()

	objState.Name("HeapCount").Int(stats.HeapCount)
	objState.Name("AllocationCount").Int(stats.AllocationCount)
	objState.Name("HeapSlots").Int(stats.HeapSlots)
	objState.Name("AllocationSlots").Int(stats.AllocationSlots)
	objState.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)

	if stats.AllocationCount > 0 {
		objState.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		objState.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}
	if stats.UnusedRangeCount > 0 {
		objState.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		objState.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
}

// BuildStatsString returns a JSON document describing the allocator's usage. If detailed is true,
// it also describes every native heap and its free ranges. Like CalculateStatistics, it must not
// run concurrently with Bind or Retire.
func (a *Allocator) BuildStatsString(detailed bool) string {
	var stats TotalStatistics
	a.CalculateStatistics(&stats)

	writer := jwriter.NewWriter()
	objState := writer.Object()

	printStatistics(objState.Name("Total"), &stats.Total)

	poolsObj := objState.Name("CPUPools").Object()
	for _, heapType := range driver.HeapTypes {
		poolObj := poolsObj.Name(heapType.String()).Object()

		poolStats := stats.CPUPools[heapType]
		printStatistics(poolObj.Name("Stats"), &poolStats)
		if detailed {
			a.cpuPools[heapType].PrintDetailedMap(poolObj.Name("Heaps"))
		}

		poolObj.End()
	}
	poolsObj.End()

	managedObj := objState.Name("ManagedHeaps").Object()
	for _, heapType := range driver.HeapTypes {
		heap, ok := a.managedHeaps[heapType]
		if !ok {
			continue
		}

		heapObj := managedObj.Name(heapType.String()).Object()

		stagingStats := stats.Staging[heapType]
		printDetailedStatistics(heapObj.Name("Staging"), &stagingStats)
		gpuStats := stats.GPUHeaps[heapType]
		printStatistics(heapObj.Name("GPU"), &gpuStats)
		if detailed {
			heap.PrintDetailedMap(heapObj.Name("Map"))
		}

		heapObj.End()
	}
	managedObj.End()

	printStatistics(objState.Name("LinearHeaps"), &stats.LinearHeaps)
	objState.Name("CommandPools").Int(stats.CommandPools)
	objState.End()

	return string(writer.Bytes())
}
