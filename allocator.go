package hal

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/hal/command"
	"github.com/vkngwrapper/arsenal/hal/descriptors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/internal/utils"
	"github.com/vkngwrapper/arsenal/hal/memutils"
	"github.com/vkngwrapper/arsenal/hal/memutils/metadata"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// Allocator owns the descriptor and command resources of one device: a CPU descriptor pool for
// every heap type, a managed heap for every shader visible heap type, plus the linear heaps and
// command pools created through it.
type Allocator struct {
	logger      *slog.Logger
	device      driver.Device
	createFlags CreateFlags

	cpuPools     map[driver.HeapType]*descriptors.CPUPool
	managedHeaps map[driver.HeapType]*descriptors.ManagedHeap

	mutex        utils.OptionalRWMutex
	linearHeaps  *swiss.Map[*descriptors.LinearHeap, struct{}]
	commandPools []command.Pool
	destroyed    bool
}

func (a *Allocator) Device() driver.Device { return a.device }

// CPUPool returns the pool that hands out single non shader visible descriptors of heapType
func (a *Allocator) CPUPool(heapType driver.HeapType) *descriptors.CPUPool {
	return a.cpuPools[heapType]
}

// ManagedHeap returns the managed heap for heapType, or nil if heapType cannot be shader visible
func (a *Allocator) ManagedHeap(heapType driver.HeapType) *descriptors.ManagedHeap {
	return a.managedHeaps[heapType]
}

func (a *Allocator) managedHeap(heapType driver.HeapType) (*descriptors.ManagedHeap, error) {
	heap, ok := a.managedHeaps[heapType]
	if !ok {
		return nil, errors.Newf("%s does not have a managed heap", heapType)
	}
	return heap, nil
}

// AllocHandle allocates a single CPU descriptor of heapType
func (a *Allocator) AllocHandle(heapType driver.HeapType) (descriptors.Handle, error) {
	pool, ok := a.cpuPools[heapType]
	if !ok {
		return descriptors.Handle{}, errors.Newf("unknown heap type %s", heapType)
	}

	return pool.AllocHandle()
}

// FreeHandle returns a descriptor allocated by AllocHandle
func (a *Allocator) FreeHandle(heapType driver.HeapType, handle descriptors.Handle) {
	pool, ok := a.cpuPools[heapType]
	if !ok {
		panic(errors.Newf("attempted to free a descriptor of unknown heap type %s", heapType))
	}

	pool.Free(handle)
}

// AllocateDescriptors allocates num contiguous staging descriptors from the managed heap of
// heapType. If no free range is large enough, an *memutils.OutOfCapacityError is returned.
func (a *Allocator) AllocateDescriptors(heapType driver.HeapType, num uint64) (metadata.Range, error) {
	heap, err := a.managedHeap(heapType)
	if err != nil {
		return metadata.Range{}, err
	}

	r, ok := heap.Allocate(num)
	if !ok {
		var stats memutils.DetailedStatistics
		stats.Clear()
		heap.AddDetailedStatistics(&stats)

		return metadata.Range{}, memutils.NewOutOfCapacityError(heapType.String()+" staging heap", int(num), stats.UnusedRangeSizeMax)
	}

	return r, nil
}

// FreeDescriptors returns a range allocated by AllocateDescriptors
func (a *Allocator) FreeDescriptors(heapType driver.HeapType, r metadata.Range) {
	heap, err := a.managedHeap(heapType)
	if err != nil {
		panic(err)
	}

	heap.Free(r)
}

// BindDescriptors makes a staging range of heapType resident in a shader visible heap for frame and
// returns the GPU address of its first descriptor
func (a *Allocator) BindDescriptors(heapType driver.HeapType, r metadata.Range, frame uint64) (descriptors.DualHandle, error) {
	heap, err := a.managedHeap(heapType)
	if err != nil {
		return descriptors.DualHandle{}, err
	}

	return heap.Bind(r, frame)
}

// Retire informs every managed heap that the GPU has finished with completedFrame and all frames
// before it
func (a *Allocator) Retire(completedFrame uint64) {
	for _, heapType := range driver.HeapTypes {
		heap, ok := a.managedHeaps[heapType]
		if ok {
			heap.Retire(completedFrame)
		}
	}
}

// CreateLinearHeap creates a linear heap owned by the allocator. It is destroyed by
// DestroyLinearHeap or when the allocator is destroyed.
func (a *Allocator) CreateLinearHeap(desc driver.HeapDesc) (*descriptors.LinearHeap, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.checkDestroyed()

	heap, err := descriptors.NewLinearHeap(a.logger, a.device, desc)
	if err != nil {
		return nil, err
	}

	if a.linearHeaps == nil {
		a.linearHeaps = swiss.NewMap[*descriptors.LinearHeap, struct{}](4)
	}
	a.linearHeaps.Put(heap, struct{}{})
	return heap, nil
}

func (a *Allocator) DestroyLinearHeap(heap *descriptors.LinearHeap) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.linearHeaps == nil || !a.linearHeaps.Has(heap) {
		panic("attempted to destroy a linear heap that is not owned by this allocator")
	}

	a.linearHeaps.Delete(heap)
	heap.Destroy()
}

// CreateCommandPool creates a command pool for buffers of kind. Pools are native unless the
// allocator was created with AllocatorCreateSoftwareCommandPools.
func (a *Allocator) CreateCommandPool(kind queue.Kind, options command.PoolOptions) (command.Pool, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.checkDestroyed()

	var pool command.Pool
	var err error
	if a.createFlags&AllocatorCreateSoftwareCommandPools != 0 {
		pool, err = command.NewSoftPool(a.logger, kind, options)
	} else {
		pool, err = command.NewNativePool(a.logger, a.device, kind, options)
	}
	if err != nil {
		return nil, err
	}

	a.commandPools = append(a.commandPools, pool)
	return pool, nil
}

func (a *Allocator) DestroyCommandPool(pool command.Pool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	index := slices.Index(a.commandPools, pool)
	if index < 0 {
		panic("attempted to destroy a command pool that is not owned by this allocator")
	}

	a.commandPools = slices.Delete(a.commandPools, index, index+1)
	pool.Destroy()
}

func (a *Allocator) checkDestroyed() {
	if a.destroyed {
		panic("attempted to use a destroyed allocator")
	}
}

// Validate checks the consistency of every descriptor pool and managed heap. It must not be called
// while the GPU tier of a managed heap is in use.
func (a *Allocator) Validate() error {
	for _, heapType := range driver.HeapTypes {
		err := a.cpuPools[heapType].Validate()
		if err != nil {
			return errors.Wrapf(err, "%s descriptor pool is invalid", heapType)
		}

		heap, ok := a.managedHeaps[heapType]
		if !ok {
			continue
		}

		err = heap.Validate()
		if err != nil {
			return errors.Wrapf(err, "%s managed heap is invalid", heapType)
		}
	}

	return nil
}

func (a *Allocator) destroyDescriptors() {
	for heapType, pool := range a.cpuPools {
		pool.Destroy()
		delete(a.cpuPools, heapType)
	}

	for heapType, heap := range a.managedHeaps {
		heap.Destroy()
		delete(a.managedHeaps, heapType)
	}
}

// Destroy destroys every command pool, linear heap, managed heap and descriptor pool owned by the
// allocator. Resources that were never freed are logged.
func (a *Allocator) Destroy() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.checkDestroyed()

	for _, pool := range a.commandPools {
		pool.Destroy()
	}
	a.commandPools = nil

	if a.linearHeaps != nil {
		a.linearHeaps.Iter(func(heap *descriptors.LinearHeap, _ struct{}) bool {
			a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED LINEAR HEAP]",
				slog.String("Type", heap.Desc().Type.String()),
				slog.Int("Used", heap.Used()),
			)
			heap.Destroy()
			return false
		})
		a.linearHeaps.Clear()
	}

	a.destroyDescriptors()
	a.destroyed = true
}
