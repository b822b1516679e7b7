// Package vulkan adapts vkngwrapper command pools and command buffers to the driver boundary.
// Each driver.CommandAllocator is a Vulkan command pool on the queue family matching its list
// type, and each driver.CommandList is a primary command buffer allocated from it.
package vulkan

import (
	"github.com/cockroachdb/errors"
	haldriver "github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"golang.org/x/exp/slog"
)

// ErrUnsupportedOpcode is returned by Encode for commands this adapter cannot translate
var ErrUnsupportedOpcode = errors.New("opcode is not supported by the vulkan command adapter")

// Device is the subset of core1_0.Device used to manage command pools
type Device interface {
	CreateCommandPool(allocationCallbacks *driver.AllocationCallbacks, o core1_0.CommandPoolCreateInfo) (core1_0.CommandPool, common.VkResult, error)
	AllocateCommandBuffers(o core1_0.CommandBufferAllocateInfo) ([]core1_0.CommandBuffer, common.VkResult, error)
	FreeCommandBuffers(buffers []core1_0.CommandBuffer)
}

// QueueFamilies maps each list type to the queue family its command pools are created on.
// Families that don't exist on the device should be -1.
type QueueFamilies struct {
	Direct  int
	Compute int
	Copy    int
}

func (f QueueFamilies) family(listType haldriver.ListType) int {
	switch listType {
	case haldriver.ListTypeDirect:
		return f.Direct
	case haldriver.ListTypeCompute:
		return f.Compute
	case haldriver.ListTypeCopy:
		return f.Copy
	}
	return -1
}

// CommandDevice creates Vulkan command pools and primary command buffers
type CommandDevice struct {
	logger              *slog.Logger
	device              Device
	families            QueueFamilies
	allocationCallbacks *driver.AllocationCallbacks
}

var _ haldriver.CommandDevice = &CommandDevice{}

// NewCommandDevice creates a CommandDevice. allocationCallbacks may be nil.
func NewCommandDevice(logger *slog.Logger, device Device, families QueueFamilies, allocationCallbacks *driver.AllocationCallbacks) *CommandDevice {
	return &CommandDevice{
		logger:              logger,
		device:              device,
		families:            families,
		allocationCallbacks: allocationCallbacks,
	}
}

func (d *CommandDevice) CreateCommandAllocator(listType haldriver.ListType) (haldriver.CommandAllocator, error) {
	family := d.families.family(listType)
	if family < 0 {
		return nil, errors.Newf("the device has no queue family for %s", listType)
	}

	pool, _, err := d.device.CreateCommandPool(d.allocationCallbacks, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: family,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create command pool for %s on queue family %d", listType, family)
	}

	d.logger.Debug("created command pool",
		slog.String("ListType", listType.String()),
		slog.Int("QueueFamily", family),
	)

	return &CommandAllocator{
		device:   d,
		pool:     pool,
		listType: listType,
	}, nil
}

func (d *CommandDevice) CreateCommandList(allocator haldriver.CommandAllocator) (haldriver.CommandList, error) {
	vkAllocator, ok := allocator.(*CommandAllocator)
	if !ok {
		return nil, errors.Newf("vulkan command lists can only be created for vulkan allocators, not %T", allocator)
	}

	buffers, _, err := d.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        vkAllocator.pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to allocate command buffer for %s", vkAllocator.listType)
	}
	if len(buffers) != 1 {
		return nil, errors.Newf("expected 1 command buffer to be allocated, but received %d", len(buffers))
	}

	return &CommandList{
		device:    d,
		allocator: vkAllocator,
		buffer:    buffers[0],
	}, nil
}

// CommandAllocator wraps a Vulkan command pool
type CommandAllocator struct {
	device   *CommandDevice
	pool     core1_0.CommandPool
	listType haldriver.ListType
}

var _ haldriver.CommandAllocator = &CommandAllocator{}

func (a *CommandAllocator) ListType() haldriver.ListType { return a.listType }

// Pool returns the underlying command pool
func (a *CommandAllocator) Pool() core1_0.CommandPool { return a.pool }

func (a *CommandAllocator) Reset() error {
	_, err := a.pool.Reset(0)
	if err != nil {
		return errors.Wrapf(err, "failed to reset command pool for %s", a.listType)
	}
	return nil
}

func (a *CommandAllocator) Destroy() {
	a.pool.Destroy(a.device.allocationCallbacks)
}

// CommandList wraps a primary Vulkan command buffer
type CommandList struct {
	device    *CommandDevice
	allocator *CommandAllocator
	buffer    core1_0.CommandBuffer
}

var _ haldriver.CommandList = &CommandList{}

// Buffer returns the underlying command buffer
func (l *CommandList) Buffer() core1_0.CommandBuffer { return l.buffer }

func (l *CommandList) Reset(allocator haldriver.CommandAllocator) error {
	if allocator != haldriver.CommandAllocator(l.allocator) {
		return errors.New("vulkan command buffers can only be recorded against the pool they were allocated from")
	}

	_, err := l.buffer.Reset(0)
	if err != nil {
		return errors.Wrap(err, "failed to reset command buffer")
	}

	_, err = l.buffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "failed to begin command buffer")
	}

	return nil
}

func (l *CommandList) Close() error {
	_, err := l.buffer.End()
	if err != nil {
		return errors.Wrap(err, "failed to end command buffer")
	}
	return nil
}

func (l *CommandList) Encode(op haldriver.Opcode, args ...uint64) error {
	switch op {
	case haldriver.OpDraw:
		if len(args) != 4 {
			return errors.Newf("Draw takes 4 arguments, but received %d", len(args))
		}
		l.buffer.CmdDraw(int(args[0]), int(args[1]), uint32(args[2]), uint32(args[3]))
	case haldriver.OpDrawIndexed:
		if len(args) != 5 {
			return errors.Newf("DrawIndexed takes 5 arguments, but received %d", len(args))
		}
		l.buffer.CmdDrawIndexed(int(args[0]), int(args[1]), uint32(args[2]), int(int32(args[3])), uint32(args[4]))
	case haldriver.OpDispatch:
		if len(args) != 3 {
			return errors.Newf("Dispatch takes 3 arguments, but received %d", len(args))
		}
		l.buffer.CmdDispatch(int(args[0]), int(args[1]), int(args[2]))
	default:
		// Buffer and barrier commands need resource handles the driver boundary does not carry
		return errors.Wrapf(ErrUnsupportedOpcode, "failed to encode %s", op)
	}

	return nil
}

func (l *CommandList) Destroy() {
	l.device.device.FreeCommandBuffers([]core1_0.CommandBuffer{l.buffer})
}
