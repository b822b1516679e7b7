package descriptors

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
	"golang.org/x/exp/slog"
)

// DefaultGPUHeapCapacity is the number of slots in each shader visible heap of a ManagedHeap
// unless overridden. Sampler heaps are limited to 2048 slots by hardware.
var DefaultGPUHeapCapacity = map[driver.HeapType]int{
	driver.HeapTypeCbvSrvUav: 1_000_000,
	driver.HeapTypeSampler:   2048,
}

// DefaultStagingCapacity is the number of slots in a ManagedHeap's staging heap unless overridden
var DefaultStagingCapacity = map[driver.HeapType]int{
	driver.HeapTypeCbvSrvUav: 1_000_000,
	driver.HeapTypeSampler:   1 << 16,
}

// DefaultMaxGPUHeaps is the number of shader visible heaps a ManagedHeap creates before it starts
// evicting unless overridden
const DefaultMaxGPUHeaps = 4

// ManagedHeapOptions configures a ManagedHeap
type ManagedHeapOptions struct {
	Flags PoolCreateFlags
	// StagingCapacity is the number of slots in the staging heap. It defaults to DefaultStagingCapacity.
	StagingCapacity int
	// GPUHeapCapacity is the number of slots in each shader visible heap. It defaults to
	// DefaultGPUHeapCapacity.
	GPUHeapCapacity int
	// MaxGPUHeaps is the number of shader visible heaps that may exist at once. It defaults to
	// DefaultMaxGPUHeaps.
	MaxGPUHeaps int
}

type gpuHeap struct {
	*heap
	ranges *metadata.RangeAllocator
}

// retiredRange is a shader visible range that a frame may still read after its entry moved or
// was dropped
type retiredRange struct {
	heap  int
	gpu   metadata.Range
	frame uint64
}

type pendingChange struct {
	staging metadata.Range
	drop    bool
}

// ManagedHeap is a two tier descriptor heap. Descriptors are written into a large staging heap
// that is never bound, and copied into small shader visible heaps when they are bound.
//
// The staging tier (Allocate, Free, Invalidate, At) is safe for concurrent use. The GPU tier (Bind,
// Retire and the GPU statistics) must be driven from a single goroutine, typically during the
// bind phase of a frame. Frees and invalidations made by writers are applied to the GPU tier the
// next time Bind or Retire runs.
//
// Each bound staging range has a residency entry in an LRU list. Binding a resident range moves it
// to the back of the list without copying. A range that is not resident is placed first fit in the
// existing shader visible heaps, then in a new heap, and finally by evicting the least recently used
// entries whose last use has been retired.
//
// Shader visible slots are never rewritten while a frame that used them is in flight. Rebinding an
// invalidated range that is still in flight copies it to a new range, and the slots of a freed
// range are only reused once its last frame has been retired.
type ManagedHeap struct {
	logger   *slog.Logger
	device   driver.HeapDevice
	heapType driver.HeapType

	staging       *heap
	stagingMutex  sync.Mutex
	stagingRanges *metadata.RangeAllocator
	pending       []pendingChange

	gpuCapacity  int
	maxGPUHeaps  int
	gpuHeaps     []*gpuHeap
	residency    residencyList
	resident     *swiss.Map[metadata.Range, *residencyEntry]
	retiring     []retiredRange
	latestFrame  uint64
	completed    uint64
	anyCompleted bool
	destroyed    bool
}

// NewManagedHeap creates a ManagedHeap and its staging heap. Shader visible heaps are created
// lazily by Bind.
func NewManagedHeap(logger *slog.Logger, device driver.HeapDevice, heapType driver.HeapType, options ManagedHeapOptions) (*ManagedHeap, error) {
	if logger == nil {
		return nil, errors.New("attempted to create a managed descriptor heap with a nil logger")
	}
	if device == nil {
		return nil, errors.New("attempted to create a managed descriptor heap with a nil device")
	}
	if !heapType.CanBeShaderVisible() {
		return nil, errors.Newf("managed descriptor heaps require a shader visible heap type, but %s cannot be shader visible", heapType)
	}

	stagingCapacity := options.StagingCapacity
	if stagingCapacity == 0 {
		stagingCapacity = DefaultStagingCapacity[heapType]
	}
	gpuCapacity := options.GPUHeapCapacity
	if gpuCapacity == 0 {
		gpuCapacity = DefaultGPUHeapCapacity[heapType]
	}
	maxGPUHeaps := options.MaxGPUHeaps
	if maxGPUHeaps == 0 {
		maxGPUHeaps = DefaultMaxGPUHeaps
	}

	if stagingCapacity < 0 {
		return nil, errors.Newf("ManagedHeapOptions.StagingCapacity is %d, but must not be negative", stagingCapacity)
	}
	err := memutils.CheckCapacity(gpuCapacity, DefaultGPUHeapCapacity[heapType], "ManagedHeapOptions.GPUHeapCapacity")
	if err != nil {
		return nil, err
	}
	if maxGPUHeaps < 0 {
		return nil, errors.Newf("ManagedHeapOptions.MaxGPUHeaps is %d, but must not be negative", maxGPUHeaps)
	}

	staging, err := createHeap(logger, device, driver.HeapDesc{
		Type:     heapType,
		Capacity: stagingCapacity,
	}, 0)
	if err != nil {
		return nil, err
	}

	return &ManagedHeap{
		logger:        logger,
		device:        device,
		heapType:      heapType,
		staging:       staging,
		stagingRanges: metadata.NewRangeAllocator(metadata.Range{Start: 0, End: uint64(stagingCapacity)}),
		gpuCapacity:   gpuCapacity,
		maxGPUHeaps:   maxGPUHeaps,
		resident:      swiss.NewMap[metadata.Range, *residencyEntry](64),
	}, nil
}

func (m *ManagedHeap) HeapType() driver.HeapType { return m.heapType }
func (m *ManagedHeap) HandleSize() uint64        { return m.staging.stride }
func (m *ManagedHeap) StagingCapacity() int      { return m.staging.Capacity() }
func (m *ManagedHeap) GPUHeapCapacity() int      { return m.gpuCapacity }

// Allocate reserves num contiguous staging slots. It returns false if the staging heap has no
// free range that large.
func (m *ManagedHeap) Allocate(num uint64) (metadata.Range, bool) {
	m.stagingMutex.Lock()
	defer m.stagingMutex.Unlock()

	return m.stagingRanges.Allocate(num)
}

// Free returns a staging range. Its GPU copy, if any, is dropped the next time Bind or Retire runs,
// and its shader visible slots are reused once the last frame that bound it has been retired.
func (m *ManagedHeap) Free(r metadata.Range) {
	m.stagingMutex.Lock()
	defer m.stagingMutex.Unlock()

	m.stagingRanges.Free(r)
	if !r.IsEmpty() {
		m.pending = append(m.pending, pendingChange{staging: r, drop: true})
	}
}

// Invalidate marks the GPU copy of a staging range as out of date after its descriptors have been
// rewritten. The next Bind of the range copies it again.
func (m *ManagedHeap) Invalidate(r metadata.Range) {
	if r.IsEmpty() {
		return
	}

	m.stagingMutex.Lock()
	defer m.stagingMutex.Unlock()

	m.pending = append(m.pending, pendingChange{staging: r})
}

// At returns the staging handle of slot index, for writing descriptors
func (m *ManagedHeap) At(index uint64) DualHandle {
	return m.staging.At(index)
}

func (m *ManagedHeap) applyPending() {
	m.stagingMutex.Lock()
	pending := m.pending
	m.pending = nil
	m.stagingMutex.Unlock()

	for _, change := range pending {
		entry, ok := m.resident.Get(change.staging)
		if !ok {
			continue
		}

		if change.drop {
			m.evict(entry)
		} else {
			entry.stale = true
		}
	}
}

func (m *ManagedHeap) evictable(entry *residencyEntry) bool {
	return m.anyCompleted && entry.lastUsed <= m.completed
}

func (m *ManagedHeap) evict(entry *residencyEntry) {
	m.releaseGPURange(entry.heap, entry.gpu, entry.lastUsed)
	m.resident.Delete(entry.staging)
	m.residency.remove(entry)
}

func (m *ManagedHeap) releaseGPURange(heap int, gpu metadata.Range, lastUsed uint64) {
	if m.anyCompleted && lastUsed <= m.completed {
		m.gpuHeaps[heap].ranges.Free(gpu)
		return
	}

	m.retiring = append(m.retiring, retiredRange{heap: heap, gpu: gpu, frame: lastUsed})
}

func (m *ManagedHeap) releaseRetired() {
	kept := m.retiring[:0]
	for _, retired := range m.retiring {
		if m.anyCompleted && retired.frame <= m.completed {
			m.gpuHeaps[retired.heap].ranges.Free(retired.gpu)
		} else {
			kept = append(kept, retired)
		}
	}
	m.retiring = kept
}

func (m *ManagedHeap) createGPUHeap() (int, error) {
	index := len(m.gpuHeaps)
	h, err := createHeap(m.logger, m.device, driver.HeapDesc{
		Type:          m.heapType,
		ShaderVisible: true,
		Capacity:      m.gpuCapacity,
	}, index)
	if err != nil {
		return -1, err
	}

	m.gpuHeaps = append(m.gpuHeaps, &gpuHeap{
		heap:   h,
		ranges: metadata.NewRangeAllocator(metadata.Range{Start: 0, End: uint64(m.gpuCapacity)}),
	})
	return index, nil
}

func (m *ManagedHeap) largestGPUFreeRange() int {
	var largest uint64
	for _, h := range m.gpuHeaps {
		if free := h.ranges.LargestFreeRange(); free > largest {
			largest = free
		}
	}
	if len(m.gpuHeaps) < m.maxGPUHeaps {
		largest = uint64(m.gpuCapacity)
	}
	return int(largest)
}

func (m *ManagedHeap) place(size uint64) (int, metadata.Range, error) {
	if size > uint64(m.gpuCapacity) {
		return -1, metadata.Range{}, memutils.NewOutOfCapacityError(m.gpuResourceName(), int(size), m.gpuCapacity)
	}

	for index, h := range m.gpuHeaps {
		gpuRange, ok := h.ranges.Allocate(size)
		if ok {
			return index, gpuRange, nil
		}
	}

	if len(m.gpuHeaps) < m.maxGPUHeaps {
		index, err := m.createGPUHeap()
		if err != nil {
			return -1, metadata.Range{}, err
		}

		gpuRange, ok := m.gpuHeaps[index].ranges.Allocate(size)
		if !ok {
			panic(fmt.Sprintf("a new %s could not hold %d slots", m.gpuResourceName(), size))
		}
		return index, gpuRange, nil
	}

	// Entries are ordered by last use, so once one is still in flight, every later one is too
	evicted := 0
	for entry := m.residency.head; entry != nil && m.evictable(entry); {
		next := entry.next
		m.evict(entry)
		evicted++

		gpuRange, ok := m.gpuHeaps[entry.heap].ranges.Allocate(size)
		if ok {
			m.logger.Debug("evicted descriptor ranges from shader visible heap",
				slog.String("Type", m.heapType.String()),
				slog.Int("Evicted", evicted),
				slog.Int("Heap", entry.heap),
			)
			return entry.heap, gpuRange, nil
		}

		entry = next
	}

	return -1, metadata.Range{}, memutils.NewOutOfCapacityError(m.gpuResourceName(), int(size), m.largestGPUFreeRange())
}

func (m *ManagedHeap) copyToGPU(entry *residencyEntry) {
	m.device.CopyDescriptors(
		m.heapType,
		m.gpuHeaps[entry.heap].At(entry.gpu.Start).CPU,
		m.staging.At(entry.staging.Start).CPU,
		int(entry.staging.Len()),
	)
}

// Bind makes a staging range available to shaders for frame and returns the shader visible handle
// of its first slot. Frames must not decrease between calls. Binding an empty range returns the
// zero handle.
//
// If the range cannot be placed without evicting entries that are still in flight, an
// OutOfCapacityError is returned.
func (m *ManagedHeap) Bind(r metadata.Range, frame uint64) (DualHandle, error) {
	if m.destroyed {
		panic("attempted to bind descriptors from a destroyed managed heap")
	}
	if frame < m.latestFrame {
		panic(fmt.Sprintf("attempted to bind descriptors for frame %d after frame %d", frame, m.latestFrame))
	}
	m.latestFrame = frame

	m.applyPending()

	if r.IsEmpty() {
		return DualHandle{}, nil
	}
	if !m.stagingRanges.InitialRange().Contains(r) {
		panic(fmt.Sprintf("attempted to bind staging range %s, which lies outside of the staging heap", r))
	}

	entry, ok := m.resident.Get(r)
	if ok {
		if entry.stale {
			err := m.refresh(entry)
			if err != nil {
				return DualHandle{}, err
			}
		}

		entry.lastUsed = frame
		m.residency.moveToBack(entry)

		memutils.DebugValidate(m)
		return m.gpuHeaps[entry.heap].At(entry.gpu.Start), nil
	}

	heapIndex, gpuRange, err := m.place(r.Len())
	if err != nil {
		return DualHandle{}, err
	}

	entry = &residencyEntry{
		staging:  r,
		heap:     heapIndex,
		gpu:      gpuRange,
		lastUsed: frame,
	}
	m.resident.Put(r, entry)
	m.residency.pushBack(entry)
	m.copyToGPU(entry)

	memutils.DebugValidate(m)
	return m.gpuHeaps[heapIndex].At(gpuRange.Start), nil
}

// refresh copies the rewritten staging descriptors of entry to the GPU. If a frame that has not
// been retired used the entry, its slots are left alone and the entry moves to a new range.
func (m *ManagedHeap) refresh(entry *residencyEntry) error {
	if !m.evictable(entry) {
		heapIndex, gpuRange, err := m.place(entry.staging.Len())
		if err != nil {
			return err
		}

		m.retiring = append(m.retiring, retiredRange{heap: entry.heap, gpu: entry.gpu, frame: entry.lastUsed})
		entry.heap = heapIndex
		entry.gpu = gpuRange
	}

	m.copyToGPU(entry)
	entry.stale = false
	return nil
}

// Retire records that the GPU has finished every frame up to and including completedFrame, so
// entries last used in those frames may be evicted
func (m *ManagedHeap) Retire(completedFrame uint64) {
	if !m.anyCompleted || completedFrame > m.completed {
		m.completed = completedFrame
		m.anyCompleted = true
	}

	m.applyPending()
	m.releaseRetired()
}

// IsResident returns true if the staging range has an up to date copy in a shader visible heap
func (m *ManagedHeap) IsResident(r metadata.Range) bool {
	entry, ok := m.resident.Get(r)
	return ok && !entry.stale
}

// GPUHeapCount returns the number of shader visible heaps that have been created
func (m *ManagedHeap) GPUHeapCount() int { return len(m.gpuHeaps) }

// ResidentCount returns the number of staging ranges with a copy in a shader visible heap
func (m *ManagedHeap) ResidentCount() int { return m.residency.Len() }

func (m *ManagedHeap) Validate() error {
	m.stagingMutex.Lock()
	err := m.stagingRanges.Validate()
	m.stagingMutex.Unlock()
	if err != nil {
		return errors.Wrap(err, "staging heap")
	}

	for index, h := range m.gpuHeaps {
		err = h.ranges.Validate()
		if err != nil {
			return errors.Wrapf(err, "shader visible heap %d", index)
		}
	}

	err = m.residency.Validate()
	if err != nil {
		return err
	}

	if m.resident.Count() != m.residency.Len() {
		return errors.Newf("the residency index holds %d entries, but the residency list holds %d", m.resident.Count(), m.residency.Len())
	}

	residentSlots := make([]uint64, len(m.gpuHeaps))
	for entry := m.residency.head; entry != nil; entry = entry.next {
		if entry.staging.Len() != entry.gpu.Len() {
			return errors.Newf("staging range %s is resident in shader visible range %s of a different length", entry.staging, entry.gpu)
		}
		residentSlots[entry.heap] += entry.gpu.Len()
	}
	for _, retired := range m.retiring {
		residentSlots[retired.heap] += retired.gpu.Len()
	}

	for index, h := range m.gpuHeaps {
		used := uint64(m.gpuCapacity) - h.ranges.SumFreeSize()
		if used != residentSlots[index] {
			return errors.Newf("shader visible heap %d has %d slots in use, but its resident and retiring entries cover %d", index, used, residentSlots[index])
		}
	}

	return nil
}

// AddStatistics sums the staging heap's usage into stats
func (m *ManagedHeap) AddStatistics(stats *memutils.Statistics) {
	m.stagingMutex.Lock()
	defer m.stagingMutex.Unlock()

	m.stagingRanges.AddStatistics(stats)
}

// AddDetailedStatistics sums the staging heap's usage, including each free range, into stats
func (m *ManagedHeap) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	m.stagingMutex.Lock()
	defer m.stagingMutex.Unlock()

	m.stagingRanges.AddDetailedStatistics(stats)
}

// AddGPUStatistics sums the usage of every shader visible heap into stats
func (m *ManagedHeap) AddGPUStatistics(stats *memutils.Statistics) {
	for _, h := range m.gpuHeaps {
		h.ranges.AddStatistics(stats)
	}
}

// PrintDetailedMap writes a JSON object describing the staging heap and each shader visible heap
func (m *ManagedHeap) PrintDetailedMap(writer *jwriter.Writer) {
	objState := writer.Object()
	defer objState.End()

	stagingObj := objState.Name("Staging").Object()
	m.stagingMutex.Lock()
	m.stagingRanges.BlockJsonData(&stagingObj)
	m.stagingMutex.Unlock()
	stagingObj.End()

	objState.Name("ResidentRanges").Int(m.residency.Len())

	gpuObj := objState.Name("GPUHeaps").Object()
	for _, h := range m.gpuHeaps {
		heapObj := gpuObj.Name(strconv.Itoa(h.id)).Object()
		h.ranges.BlockJsonData(&heapObj)
		heapObj.End()
	}
	gpuObj.End()
}

func (m *ManagedHeap) gpuResourceName() string {
	return fmt.Sprintf("%s shader visible heap", m.heapType)
}

// Destroy releases the staging heap and every shader visible heap. Staging ranges still allocated
// are logged as leaks.
func (m *ManagedHeap) Destroy() {
	if m.destroyed {
		panic("attempted to destroy a managed descriptor heap twice")
	}

	m.stagingMutex.Lock()
	defer m.stagingMutex.Unlock()

	if !m.stagingRanges.IsEmpty() {
		m.logger.LogAttrs(context.Background(), slog.LevelError,
			"[UNRELEASED DESCRIPTOR] staging ranges were not freed before their managed heap was destroyed",
			slog.String("Type", m.heapType.String()),
			slog.Int("Allocations", m.stagingRanges.AllocationCount()),
			slog.Uint64("Slots", m.stagingRanges.InitialRange().Len()-m.stagingRanges.SumFreeSize()),
		)
	}

	for _, h := range m.gpuHeaps {
		h.Destroy()
	}
	m.gpuHeaps = nil
	m.resident.Clear()
	m.residency = residencyList{}
	m.retiring = nil
	m.pending = nil

	m.staging.Destroy()
	m.destroyed = true
}
