// Package soft implements the driver boundary in host memory. Heaps are byte slices at synthetic
// addresses and command lists record their commands for later inspection. It backs pool-less
// backends and end-to-end tests.
package soft

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// ErrHeapLimitExceeded is returned by CreateDescriptorHeap once the device's heap limit is reached
var ErrHeapLimitExceeded = errors.New("descriptor heap limit exceeded")

const (
	cpuAddressBase uint64 = 0x1000_0000
	gpuAddressBase uint64 = 0x8000_0000_0000
	addressAlign   uint64 = 0x1000
)

// DefaultStrides is the size in bytes of one descriptor of each heap type
var DefaultStrides = map[driver.HeapType]uint64{
	driver.HeapTypeCbvSrvUav: 32,
	driver.HeapTypeSampler:   16,
	driver.HeapTypeRtv:       8,
	driver.HeapTypeDsv:       8,
}

// Options configures a software Device
type Options struct {
	// Strides overrides DefaultStrides for some or all heap types
	Strides map[driver.HeapType]uint64
	// HeapLimit is the number of live heaps after which CreateDescriptorHeap fails. Zero means unlimited.
	HeapLimit int
}

// Batch is one set of command buffers handed to Execute
type Batch struct {
	Kind    queue.Kind
	Buffers []queue.Submittable
}

// Device is an in-memory driver.Device. It is safe for concurrent use.
type Device struct {
	logger  *slog.Logger
	strides map[driver.HeapType]uint64
	limit   int

	mutex       sync.Mutex
	nextCPU     uint64
	nextGPU     uint64
	heaps       []*Heap
	heapCount   int
	allocators  int
	lists       int
	batches     []Batch
	copiedSlots int
}

var _ driver.Device = &Device{}
var _ queue.Executor = &Device{}

// New creates a software device
func New(logger *slog.Logger, options Options) *Device {
	strides := make(map[driver.HeapType]uint64, len(DefaultStrides))
	for heapType, stride := range DefaultStrides {
		strides[heapType] = stride
	}
	for heapType, stride := range options.Strides {
		strides[heapType] = stride
	}

	return &Device{
		logger:  logger,
		strides: strides,
		limit:   options.HeapLimit,
		nextCPU: cpuAddressBase,
		nextGPU: gpuAddressBase,
	}
}

func alignUp(value, align uint64) uint64 {
	return (value + align - 1) &^ (align - 1)
}

// CreateDescriptorHeap creates a zeroed heap at the next free synthetic address
func (d *Device) CreateDescriptorHeap(desc driver.HeapDesc) (driver.DescriptorHeap, error) {
	if desc.Capacity <= 0 {
		return nil, errors.Newf("descriptor heap capacity must be positive, but was %d", desc.Capacity)
	}
	if desc.ShaderVisible && !desc.Type.CanBeShaderVisible() {
		return nil, errors.Newf("heaps of type %s cannot be shader visible", desc.Type)
	}

	stride, ok := d.strides[desc.Type]
	if !ok {
		return nil, errors.Newf("unknown heap type %s", desc.Type)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.limit > 0 && len(d.heaps) >= d.limit {
		return nil, errors.Wrapf(ErrHeapLimitExceeded, "device already has %d live heaps", len(d.heaps))
	}

	size := uint64(desc.Capacity) * stride
	heap := &Heap{
		device:   d,
		desc:     desc,
		cpuStart: driver.CPUHandle(d.nextCPU),
		stride:   stride,
		data:     make([]byte, size),
	}
	d.nextCPU = alignUp(d.nextCPU+size, addressAlign)

	if desc.ShaderVisible {
		heap.gpuStart = driver.GPUHandle(d.nextGPU)
		d.nextGPU = alignUp(d.nextGPU+size, addressAlign)
	}

	// Addresses only increase, so appending keeps the list sorted by cpuStart
	d.heaps = append(d.heaps, heap)
	d.heapCount++

	d.logger.Debug("created software descriptor heap",
		slog.String("Type", desc.Type.String()),
		slog.Bool("ShaderVisible", desc.ShaderVisible),
		slog.Int("Capacity", desc.Capacity),
		slog.Uint64("CPUStart", uint64(heap.cpuStart)),
	)

	return heap, nil
}

func (d *Device) releaseHeap(heap *Heap) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	index := slices.Index(d.heaps, heap)
	if index < 0 {
		panic(fmt.Sprintf("attempted to destroy descriptor heap at %#x, which is not live", uint64(heap.cpuStart)))
	}
	d.heaps = slices.Delete(d.heaps, index, index+1)
}

// locate returns the live heap containing handle. The device mutex must be held.
func (d *Device) locate(handle driver.CPUHandle) (*Heap, uint64) {
	index, found := slices.BinarySearchFunc(d.heaps, handle, func(heap *Heap, target driver.CPUHandle) int {
		switch {
		case heap.cpuStart > target:
			return 1
		case heap.end() <= target:
			return -1
		}
		return 0
	})
	if !found {
		panic(fmt.Sprintf("descriptor handle %#x does not lie in any live heap", uint64(handle)))
	}

	heap := d.heaps[index]
	offset := uint64(handle - heap.cpuStart)
	if offset%heap.stride != 0 {
		panic(fmt.Sprintf("descriptor handle %#x is not aligned to its heap's stride %d", uint64(handle), heap.stride))
	}
	return heap, offset
}

// CopyDescriptors copies count descriptors between two live heaps of the same type
func (d *Device) CopyDescriptors(heapType driver.HeapType, dst, src driver.CPUHandle, count int) {
	if count == 0 {
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	dstHeap, dstOffset := d.locate(dst)
	srcHeap, srcOffset := d.locate(src)
	if dstHeap.desc.Type != heapType || srcHeap.desc.Type != heapType {
		panic(fmt.Sprintf("attempted to copy %s descriptors from a %s heap to a %s heap", heapType, srcHeap.desc.Type, dstHeap.desc.Type))
	}

	size := uint64(count) * dstHeap.stride
	if dstOffset+size > uint64(len(dstHeap.data)) || srcOffset+size > uint64(len(srcHeap.data)) {
		panic(fmt.Sprintf("attempted to copy %d descriptors past the end of a heap", count))
	}

	copy(dstHeap.data[dstOffset:dstOffset+size], srcHeap.data[srcOffset:srcOffset+size])
	d.copiedSlots += count
}

// WriteDescriptor stores data in the slot at handle. Data longer than the heap's stride panics.
func (d *Device) WriteDescriptor(handle driver.CPUHandle, data []byte) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	heap, offset := d.locate(handle)
	if uint64(len(data)) > heap.stride {
		panic(fmt.Sprintf("descriptor data is %d bytes, but the heap's stride is %d", len(data), heap.stride))
	}

	slot := heap.data[offset : offset+heap.stride]
	clear(slot)
	copy(slot, data)
}

// ReadDescriptor returns a copy of the slot at handle
func (d *Device) ReadDescriptor(handle driver.CPUHandle) []byte {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	heap, offset := d.locate(handle)
	return slices.Clone(heap.data[offset : offset+heap.stride])
}

// HeapsCreated returns the number of descriptor heaps created over the device's lifetime
func (d *Device) HeapsCreated() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.heapCount
}

// LiveHeaps returns the number of descriptor heaps that have not been destroyed
func (d *Device) LiveHeaps() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return len(d.heaps)
}

// CopiedDescriptors returns the number of descriptors copied by CopyDescriptors
func (d *Device) CopiedDescriptors() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.copiedSlots
}

// Execute records a batch of command buffers
func (d *Device) Execute(kind queue.Kind, buffers []queue.Submittable) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.batches = append(d.batches, Batch{
		Kind:    kind,
		Buffers: slices.Clone(buffers),
	})
	return nil
}

// Batches returns every batch passed to Execute, in order
func (d *Device) Batches() []Batch {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return slices.Clone(d.batches)
}
