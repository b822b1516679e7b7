package hal

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/descriptors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"github.com/vkngwrapper/core/v2/common"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

var allocatorCreateFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	allocatorCreateFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return allocatorCreateFlagsMapping.FlagsToString(f)
}

const (
	// AllocatorCreateExternallySynchronized ensures that this allocator and the descriptor pools it
	// owns will not be synchronized internally. The consumer must guarantee they are used from only
	// one goroutine at a time. Managed heaps still lock their staging tier.
	AllocatorCreateExternallySynchronized CreateFlags = 1 << iota
	// AllocatorCreateSoftwareCommandPools makes CreateCommandPool return software pools that record
	// into memory instead of native pools backed by the device's command allocators
	AllocatorCreateSoftwareCommandPools
)

func init() {
	AllocatorCreateExternallySynchronized.Register("AllocatorCreateExternallySynchronized")
	AllocatorCreateSoftwareCommandPools.Register("AllocatorCreateSoftwareCommandPools")
}

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags

	// CPUPools overrides the options of the CPU descriptor pool for a heap type. Heap types that are
	// not present use default options. The PoolCreateExternallySynchronized flag is added
	// automatically when the allocator is externally synchronized.
	CPUPools map[driver.HeapType]descriptors.CPUPoolOptions

	// ManagedHeaps overrides the options of the managed heap for a shader visible heap type
	ManagedHeaps map[driver.HeapType]descriptors.ManagedHeapOptions
}

// New creates a new Allocator
//
// device - The device that descriptor heaps, command allocators and command lists are created from
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, device driver.Device, options CreateOptions) (*Allocator, error) {
	if logger == nil {
		return nil, errors.New("attempted to create an allocator with a nil logger")
	}
	if device == nil {
		return nil, errors.New("attempted to create an allocator with a nil device")
	}

	for heapType := range options.ManagedHeaps {
		if !heapType.CanBeShaderVisible() {
			return nil, errors.Newf("CreateOptions.ManagedHeaps contains %s, which cannot be shader visible", heapType)
		}
	}

	useMutex := options.Flags&AllocatorCreateExternallySynchronized == 0

	allocator := &Allocator{
		logger:       logger,
		device:       device,
		createFlags:  options.Flags,
		cpuPools:     make(map[driver.HeapType]*descriptors.CPUPool),
		managedHeaps: make(map[driver.HeapType]*descriptors.ManagedHeap),
	}
	allocator.mutex.UseMutex = useMutex

	for _, heapType := range driver.HeapTypes {
		poolOptions := options.CPUPools[heapType]
		if !useMutex {
			poolOptions.Flags |= descriptors.PoolCreateExternallySynchronized
		}

		pool, err := descriptors.NewCPUPool(logger, device, heapType, poolOptions)
		if err != nil {
			allocator.destroyDescriptors()
			return nil, errors.Wrapf(err, "failed to create %s descriptor pool", heapType)
		}
		allocator.cpuPools[heapType] = pool
	}

	for _, heapType := range driver.HeapTypes {
		if !heapType.CanBeShaderVisible() {
			continue
		}

		heap, err := descriptors.NewManagedHeap(logger, device, heapType, options.ManagedHeaps[heapType])
		if err != nil {
			allocator.destroyDescriptors()
			return nil, errors.Wrapf(err, "failed to create %s managed heap", heapType)
		}
		allocator.managedHeaps[heapType] = heap
	}

	logger.Debug("created allocator", slog.String("Flags", options.Flags.String()))

	return allocator, nil
}

// CreateQueue creates a queue of kind whose submissions are executed by executor
func (a *Allocator) CreateQueue(kind queue.Kind, executor queue.Executor) (*queue.Queue, error) {
	if kind > queue.KindGeneral {
		return nil, errors.Newf("unknown queue kind %s", kind)
	}
	if executor == nil {
		return nil, errors.New("attempted to create a queue with a nil executor")
	}

	return queue.NewQueue(a.logger, kind, executor), nil
}
