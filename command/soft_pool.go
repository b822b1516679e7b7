package command

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/driver/soft"
	"github.com/vkngwrapper/arsenal/hal/internal/utils"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

type softCommand struct {
	op     driver.Opcode
	offset int
	count  int
}

// softMemory holds recorded commands. Command arguments are appended to one shared data slice.
type softMemory struct {
	commands []softCommand
	data     []uint64
}

func (m *softMemory) append(op driver.Opcode, args []uint64) {
	m.commands = append(m.commands, softCommand{op: op, offset: len(m.data), count: len(args)})
	m.data = append(m.data, args...)
}

func (m *softMemory) truncate() {
	m.commands = m.commands[:0]
	m.data = m.data[:0]
}

func (m *softMemory) decode(start, end int) []soft.Command {
	commands := make([]soft.Command, 0, end-start)
	for _, command := range m.commands[start:end] {
		commands = append(commands, soft.Command{
			Op:   command.op,
			Args: slices.Clone(m.data[command.offset : command.offset+command.count]),
		})
	}
	return commands
}

// SoftPool is a Pool that records commands into memory for devices with no native command
// allocator. The software driver replays them.
//
// By default a SoftPool is linear: every buffer appends to one shared command stream, only one
// buffer can record at a time, and memory is only reclaimed by Reset. Pools created with
// PoolCreateResetIndividual give each buffer its own storage, which Free and CommandBuffer.Reset
// release.
//
// Every access to a pool's memory, including recording, goes through a guard that panics instead
// of waiting when another goroutine holds it.
type SoftPool struct {
	logger *slog.Logger
	kind   queue.Kind
	flags  PoolCreateFlags
	guard  utils.ExclusiveGuard

	linear     softMemory
	individual *swiss.Map[uint64, *softMemory]

	nextID    uint64
	live      int
	recording int

	generation atomic.Uint64
	destroyed  bool
}

var _ Pool = &SoftPool{}

// NewSoftPool creates a software pool for buffers of kind
func NewSoftPool(logger *slog.Logger, kind queue.Kind, options PoolOptions) (*SoftPool, error) {
	if logger == nil {
		return nil, errors.New("attempted to create a command pool without a logger")
	}
	if kind > queue.KindGeneral {
		return nil, errors.Newf("unknown queue kind %s", kind)
	}

	pool := &SoftPool{
		logger: logger,
		kind:   kind,
		flags:  options.Flags,
		guard:  utils.ExclusiveGuard{Name: "software command pool"},
	}
	if pool.isIndividual() {
		pool.individual = swiss.NewMap[uint64, *softMemory](8)
	}

	logger.LogAttrs(context.Background(), slog.LevelDebug, "created software command pool",
		slog.String("Capability", kind.String()),
		slog.String("Flags", options.Flags.String()),
	)

	return pool, nil
}

func (p *SoftPool) Capability() queue.Kind { return p.kind }
func (p *SoftPool) Flags() PoolCreateFlags { return p.flags }

func (p *SoftPool) isIndividual() bool {
	return p.flags&PoolCreateResetIndividual != 0
}

func (p *SoftPool) checkDestroyed(operation string) {
	if p.destroyed {
		panic(fmt.Sprintf("attempted to call %s on a destroyed command pool", operation))
	}
}

func (p *SoftPool) checkOwned(buffer *CommandBuffer, operation string) {
	if buffer.pool != p {
		panic(fmt.Sprintf("attempted to call %s with a command buffer from a different pool", operation))
	}
}

// AllocatedBuffers returns the number of buffers allocated and not yet freed
func (p *SoftPool) AllocatedBuffers() int {
	p.guard.Enter("AllocatedBuffers")
	defer p.guard.Exit()

	return p.live
}

// Allocate allocates num buffers of either level
func (p *SoftPool) Allocate(num int, level Level) ([]*CommandBuffer, error) {
	p.guard.Enter("Allocate")
	defer p.guard.Exit()
	p.checkDestroyed("Allocate")

	if _, ok := levelMapping[level]; !ok {
		return nil, errors.Wrapf(ErrUnsupportedLevel, "unknown level %d", level)
	}
	if num < 0 {
		return nil, errors.Newf("attempted to allocate a negative number of command buffers: %d", num)
	}

	buffers := make([]*CommandBuffer, 0, num)
	for i := 0; i < num; i++ {
		buffer := &CommandBuffer{
			pool:       p,
			kind:       p.kind,
			level:      level,
			id:         p.nextID,
			generation: p.generation.Load(),
		}
		p.nextID++

		if p.individual != nil {
			p.individual.Put(buffer.id, &softMemory{})
		}
		buffers = append(buffers, buffer)
	}
	p.live += num

	return buffers, nil
}

// Free releases buffers. In a linear pool their commands stay in the shared stream until Reset.
// Freeing a buffer that is recording panics.
func (p *SoftPool) Free(buffers []*CommandBuffer) {
	p.guard.Enter("Free")
	defer p.guard.Exit()
	p.checkDestroyed("Free")

	for _, buffer := range buffers {
		p.checkOwned(buffer, "Free")
		buffer.checkLive("Free")
		if buffer.state == bufferStateRecording {
			panic("attempted to free a command buffer that is still recording")
		}

		if p.individual != nil {
			p.individual.Delete(buffer.id)
		}
		buffer.state = bufferStateFreed
		p.live--
	}
}

// Reset discards every recorded command. No buffer may be recording.
func (p *SoftPool) Reset() error {
	p.guard.Enter("Reset")
	defer p.guard.Exit()
	p.checkDestroyed("Reset")

	if p.recording > 0 {
		panic(fmt.Sprintf("attempted to reset a command pool while %d buffers are recording", p.recording))
	}

	transient := p.flags&PoolCreateTransient != 0
	if p.individual != nil {
		p.individual.Iter(func(_ uint64, memory *softMemory) bool {
			if transient {
				*memory = softMemory{}
			} else {
				memory.truncate()
			}
			return false
		})
	} else if transient {
		p.linear = softMemory{}
	} else {
		p.linear.truncate()
	}

	p.generation.Add(1)
	return nil
}

// Destroy releases all memory. Buffers that have not been freed are logged.
func (p *SoftPool) Destroy() {
	p.guard.Enter("Destroy")
	defer p.guard.Exit()
	p.checkDestroyed("Destroy")

	if p.recording > 0 {
		panic(fmt.Sprintf("attempted to destroy a command pool while %d buffers are recording", p.recording))
	}

	if p.live > 0 {
		p.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED COMMAND BUFFERS]",
			slog.Int("Count", p.live),
			slog.String("Capability", p.kind.String()),
		)
	}

	p.linear = softMemory{}
	if p.individual != nil {
		p.individual.Clear()
	}
	p.destroyed = true
}

// Commands returns the commands buffer recorded. It returns nil if buffer is not executable.
func (p *SoftPool) Commands(buffer *CommandBuffer) []soft.Command {
	p.guard.Enter("Commands")
	defer p.guard.Exit()
	p.checkOwned(buffer, "Commands")
	buffer.checkLive("Commands")

	if buffer.state != bufferStateExecutable || buffer.generation != p.generation.Load() {
		return nil
	}

	memory := p.memory(buffer)
	if p.individual != nil {
		return memory.decode(0, len(memory.commands))
	}
	return memory.decode(buffer.start, buffer.end)
}

func (p *SoftPool) memory(buffer *CommandBuffer) *softMemory {
	if p.individual == nil {
		return &p.linear
	}

	memory, ok := p.individual.Get(buffer.id)
	if !ok {
		panic(fmt.Sprintf("command buffer %d has no storage in its pool", buffer.id))
	}
	return memory
}

func (p *SoftPool) currentGeneration() uint64 {
	return p.generation.Load()
}

func (p *SoftPool) begin(buffer *CommandBuffer) error {
	p.guard.Enter("CommandBuffer.Begin")
	defer p.guard.Exit()
	p.checkDestroyed("CommandBuffer.Begin")

	memory := p.memory(buffer)
	if p.individual != nil {
		memory.truncate()
	} else if p.recording > 0 {
		panic("attempted to begin a command buffer while another buffer from the same linear pool is recording")
	}

	buffer.start = len(memory.commands)
	buffer.end = buffer.start
	buffer.generation = p.generation.Load()
	p.recording++
	return nil
}

func (p *SoftPool) encode(buffer *CommandBuffer, op driver.Opcode, args []uint64) error {
	p.guard.Enter("CommandBuffer." + op.String())
	defer p.guard.Exit()

	p.memory(buffer).append(op, args)
	return nil
}

func (p *SoftPool) end(buffer *CommandBuffer) error {
	p.guard.Enter("CommandBuffer.End")
	defer p.guard.Exit()

	buffer.end = len(p.memory(buffer).commands)
	p.recording--
	return nil
}

func (p *SoftPool) reset(buffer *CommandBuffer) error {
	if p.individual == nil {
		return ErrIndividualResetUnsupported
	}

	p.guard.Enter("CommandBuffer.Reset")
	defer p.guard.Exit()

	p.memory(buffer).truncate()
	if buffer.state == bufferStateRecording {
		p.recording--
	}
	return nil
}
