package command

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/internal/utils"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"golang.org/x/exp/slog"
)

// Pool allocates command buffers for a single queue capability
type Pool interface {
	Capability() queue.Kind
	Flags() PoolCreateFlags
	// Reset returns every buffer allocated from the pool to the initial state. Buffers that were
	// executable before the reset must be recorded again before they can be submitted.
	Reset() error
	Allocate(num int, level Level) ([]*CommandBuffer, error)
	Free(buffers []*CommandBuffer)
	Destroy()
}

// ListTypeFor returns the native command list type used to record buffers of kind
func ListTypeFor(kind queue.Kind) driver.ListType {
	switch kind {
	case queue.KindCompute:
		return driver.ListTypeCompute
	case queue.KindTransfer:
		return driver.ListTypeCopy
	default:
		return driver.ListTypeDirect
	}
}

// NativePool is a Pool backed by one driver command allocator. Each buffer wraps one command list,
// and lists of freed buffers are kept and handed out again by later calls to Allocate.
//
// A NativePool must only be used from one goroutine at a time. This includes recording into its
// buffers, since they share the allocator's storage. Overlapping calls panic.
type NativePool struct {
	logger    *slog.Logger
	device    driver.CommandDevice
	kind      queue.Kind
	flags     PoolCreateFlags
	guard     utils.ExclusiveGuard
	allocator driver.CommandAllocator

	freeLists []driver.CommandList
	live      *swiss.Map[uint64, *CommandBuffer]
	nextID    uint64
	recording int

	generation atomic.Uint64
	destroyed  bool
}

var _ Pool = &NativePool{}

// NewNativePool creates a pool that records buffers of kind through device
func NewNativePool(logger *slog.Logger, device driver.CommandDevice, kind queue.Kind, options PoolOptions) (*NativePool, error) {
	if logger == nil {
		return nil, errors.New("attempted to create a command pool without a logger")
	}
	if device == nil {
		return nil, errors.New("attempted to create a command pool without a device")
	}
	if kind > queue.KindGeneral {
		return nil, errors.Newf("unknown queue kind %s", kind)
	}

	listType := ListTypeFor(kind)
	allocator, err := device.CreateCommandAllocator(listType)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s command allocator", listType)
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, "created native command pool",
		slog.String("Capability", kind.String()),
		slog.String("ListType", listType.String()),
		slog.String("Flags", options.Flags.String()),
	)

	return &NativePool{
		logger:    logger,
		device:    device,
		kind:      kind,
		flags:     options.Flags,
		guard:     utils.ExclusiveGuard{Name: "native command pool"},
		allocator: allocator,
		live:      swiss.NewMap[uint64, *CommandBuffer](8),
	}, nil
}

func (p *NativePool) Capability() queue.Kind { return p.kind }
func (p *NativePool) Flags() PoolCreateFlags { return p.flags }

// AllocatedBuffers returns the number of buffers allocated and not yet freed
func (p *NativePool) AllocatedBuffers() int {
	p.guard.Enter("AllocatedBuffers")
	defer p.guard.Exit()

	return p.live.Count()
}

// CachedLists returns the number of command lists waiting to be reused
func (p *NativePool) CachedLists() int {
	p.guard.Enter("CachedLists")
	defer p.guard.Exit()

	return len(p.freeLists)
}

func (p *NativePool) checkDestroyed(operation string) {
	if p.destroyed {
		panic(fmt.Sprintf("attempted to call %s on a destroyed command pool", operation))
	}
}

func (p *NativePool) checkOwned(buffer *CommandBuffer, operation string) {
	if buffer.pool != p {
		panic(fmt.Sprintf("attempted to call %s with a command buffer from a different pool", operation))
	}
}

// Allocate allocates num primary buffers. Secondary buffers are not supported.
func (p *NativePool) Allocate(num int, level Level) ([]*CommandBuffer, error) {
	p.guard.Enter("Allocate")
	defer p.guard.Exit()
	p.checkDestroyed("Allocate")

	if level != LevelPrimary {
		return nil, errors.Wrapf(ErrUnsupportedLevel, "native command pools cannot allocate %s buffers", level)
	}
	if num < 0 {
		return nil, errors.Newf("attempted to allocate a negative number of command buffers: %d", num)
	}

	buffers := make([]*CommandBuffer, 0, num)
	for i := 0; i < num; i++ {
		list, err := p.takeList()
		if err != nil {
			for _, buffer := range buffers {
				p.live.Delete(buffer.id)
				p.freeLists = append(p.freeLists, buffer.list)
			}
			return nil, err
		}

		buffer := &CommandBuffer{
			pool:       p,
			kind:       p.kind,
			level:      level,
			id:         p.nextID,
			generation: p.generation.Load(),
			list:       list,
		}
		p.nextID++
		p.live.Put(buffer.id, buffer)
		buffers = append(buffers, buffer)
	}

	return buffers, nil
}

func (p *NativePool) takeList() (driver.CommandList, error) {
	if len(p.freeLists) > 0 {
		last := len(p.freeLists) - 1
		list := p.freeLists[last]
		p.freeLists[last] = nil
		p.freeLists = p.freeLists[:last]
		return list, nil
	}

	list, err := p.device.CreateCommandList(p.allocator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create command list")
	}
	return list, nil
}

// Free returns buffers to the pool. Freeing a buffer that is recording panics.
func (p *NativePool) Free(buffers []*CommandBuffer) {
	p.guard.Enter("Free")
	defer p.guard.Exit()
	p.checkDestroyed("Free")

	for _, buffer := range buffers {
		p.checkOwned(buffer, "Free")
		buffer.checkLive("Free")
		if buffer.state == bufferStateRecording {
			panic("attempted to free a command buffer that is still recording")
		}

		p.live.Delete(buffer.id)
		if p.flags&PoolCreateTransient != 0 {
			buffer.list.Destroy()
		} else {
			p.freeLists = append(p.freeLists, buffer.list)
		}

		buffer.list = nil
		buffer.state = bufferStateFreed
	}
}

// Reset resets the pool's command allocator. No buffer may be recording.
func (p *NativePool) Reset() error {
	p.guard.Enter("Reset")
	defer p.guard.Exit()
	p.checkDestroyed("Reset")

	if p.recording > 0 {
		panic(fmt.Sprintf("attempted to reset a command pool while %d buffers are recording", p.recording))
	}

	err := p.allocator.Reset()
	if err != nil {
		return errors.Wrap(err, "failed to reset command allocator")
	}

	p.generation.Add(1)
	return nil
}

// Destroy destroys every command list and the command allocator. Buffers that have not been freed
// are logged and destroyed along with the pool.
func (p *NativePool) Destroy() {
	p.guard.Enter("Destroy")
	defer p.guard.Exit()
	p.checkDestroyed("Destroy")

	if p.recording > 0 {
		panic(fmt.Sprintf("attempted to destroy a command pool while %d buffers are recording", p.recording))
	}

	p.live.Iter(func(id uint64, buffer *CommandBuffer) bool {
		p.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED COMMAND BUFFER]",
			slog.Uint64("ID", id),
			slog.String("Capability", p.kind.String()),
			slog.String("State", buffer.state.String()),
		)
		buffer.list.Destroy()
		buffer.list = nil
		buffer.state = bufferStateFreed
		return false
	})
	p.live.Clear()

	for _, list := range p.freeLists {
		list.Destroy()
	}
	p.freeLists = nil

	p.allocator.Destroy()
	p.destroyed = true
}

func (p *NativePool) currentGeneration() uint64 {
	return p.generation.Load()
}

func (p *NativePool) begin(buffer *CommandBuffer) error {
	p.guard.Enter("CommandBuffer.Begin")
	defer p.guard.Exit()
	p.checkDestroyed("CommandBuffer.Begin")

	if p.recording > 0 {
		panic("attempted to begin a command buffer while another buffer from the same command allocator is recording")
	}

	err := buffer.list.Reset(p.allocator)
	if err != nil {
		return errors.Wrap(err, "failed to reset command list")
	}

	p.recording++
	buffer.generation = p.generation.Load()
	return nil
}

func (p *NativePool) encode(buffer *CommandBuffer, op driver.Opcode, args []uint64) error {
	p.guard.Enter("CommandBuffer." + op.String())
	defer p.guard.Exit()

	err := buffer.list.Encode(op, args...)
	if err != nil {
		return errors.Wrapf(err, "failed to record %s", op)
	}
	return nil
}

func (p *NativePool) end(buffer *CommandBuffer) error {
	p.guard.Enter("CommandBuffer.End")
	defer p.guard.Exit()

	err := buffer.list.Close()
	if err != nil {
		return errors.Wrap(err, "failed to close command list")
	}

	p.recording--
	return nil
}

func (p *NativePool) reset(buffer *CommandBuffer) error {
	if p.flags&PoolCreateResetIndividual == 0 {
		return ErrIndividualResetUnsupported
	}

	p.guard.Enter("CommandBuffer.Reset")
	defer p.guard.Exit()

	if buffer.state != bufferStateRecording {
		return nil
	}

	err := buffer.list.Close()
	if err != nil {
		return errors.Wrap(err, "failed to close command list")
	}

	p.recording--
	return nil
}
