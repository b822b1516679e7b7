package command

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/queue"
)

type bufferState uint8

const (
	bufferStateInitial bufferState = iota
	bufferStateRecording
	bufferStateExecutable
	bufferStateFreed
)

var bufferStateMapping = map[bufferState]string{
	bufferStateInitial:    "initial",
	bufferStateRecording:  "recording",
	bufferStateExecutable: "executable",
	bufferStateFreed:      "freed",
}

func (s bufferState) String() string {
	str, ok := bufferStateMapping[s]
	if !ok {
		return "unknown"
	}
	return str
}

// recorder is the pool-side storage behind a CommandBuffer
type recorder interface {
	begin(buffer *CommandBuffer) error
	encode(buffer *CommandBuffer, op driver.Opcode, args []uint64) error
	end(buffer *CommandBuffer) error
	reset(buffer *CommandBuffer) error
	currentGeneration() uint64
}

// CommandBuffer is a command buffer allocated from a Pool. Every recording method checks the
// buffer's capability before anything is recorded, and returns a *queue.CapabilityError if the
// command is not legal for it.
//
// A CommandBuffer must only be used by one goroutine at a time, and pools created by this package
// panic if they detect otherwise.
type CommandBuffer struct {
	pool  recorder
	kind  queue.Kind
	level Level
	id    uint64

	state      bufferState
	generation uint64

	// NativePool
	list driver.CommandList

	// SoftPool linear storage
	start, end int
}

var _ queue.Submittable = &CommandBuffer{}

// Capability returns the queue kind this buffer records for
func (b *CommandBuffer) Capability() queue.Kind { return b.kind }
func (b *CommandBuffer) Level() Level           { return b.level }

// ID returns an identifier for the buffer that is unique within its pool
func (b *CommandBuffer) ID() uint64 { return b.id }

// IsRecording returns true between Begin and End
func (b *CommandBuffer) IsRecording() bool {
	return b.state == bufferStateRecording
}

// IsExecutable returns true if the buffer has finished recording and its pool has not been reset
// since it began
func (b *CommandBuffer) IsExecutable() bool {
	return b.state == bufferStateExecutable && b.generation == b.pool.currentGeneration()
}

func (b *CommandBuffer) checkLive(operation string) {
	if b.state == bufferStateFreed {
		panic(fmt.Sprintf("attempted to call %s on a freed command buffer", operation))
	}
}

// Begin starts recording. Any commands recorded previously are discarded.
func (b *CommandBuffer) Begin() error {
	b.checkLive("Begin")
	if b.state == bufferStateRecording {
		return ErrAlreadyRecording
	}

	err := b.pool.begin(b)
	if err != nil {
		return err
	}

	b.state = bufferStateRecording
	return nil
}

// End finishes recording. The buffer can be submitted until it is begun again or its pool is reset.
func (b *CommandBuffer) End() error {
	b.checkLive("End")
	if b.state != bufferStateRecording {
		return errors.Wrapf(ErrNotRecording, "buffer is %s", b.state)
	}

	err := b.pool.end(b)
	if err != nil {
		return err
	}

	b.state = bufferStateExecutable
	return nil
}

// Reset discards the buffer's commands and returns it to the initial state. It is only allowed for
// buffers allocated from pools created with PoolCreateResetIndividual.
func (b *CommandBuffer) Reset() error {
	b.checkLive("Reset")

	err := b.pool.reset(b)
	if err != nil {
		return err
	}

	b.state = bufferStateInitial
	return nil
}

func (b *CommandBuffer) record(op driver.Opcode, need queue.Kind, args ...uint64) error {
	err := queue.Check(op.String(), b.kind, need)
	if err != nil {
		return err
	}

	return b.encode(op, args)
}

func (b *CommandBuffer) encode(op driver.Opcode, args []uint64) error {
	b.checkLive(op.String())
	if b.state != bufferStateRecording {
		return errors.Wrapf(ErrNotRecording, "cannot record %s", op)
	}

	return b.pool.encode(b, op, args)
}

// Draw records a non-indexed draw. Requires graphics capability.
func (b *CommandBuffer) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	return b.record(driver.OpDraw, queue.KindGraphics,
		uint64(vertexCount), uint64(instanceCount), uint64(firstVertex), uint64(firstInstance))
}

// DrawIndexed records an indexed draw. Requires graphics capability.
func (b *CommandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) error {
	return b.record(driver.OpDrawIndexed, queue.KindGraphics,
		uint64(indexCount), uint64(instanceCount), uint64(firstIndex), uint64(uint32(vertexOffset)), uint64(firstInstance))
}

// Dispatch records a compute dispatch. Requires compute capability.
func (b *CommandBuffer) Dispatch(groupCountX, groupCountY, groupCountZ uint32) error {
	return b.record(driver.OpDispatch, queue.KindCompute,
		uint64(groupCountX), uint64(groupCountY), uint64(groupCountZ))
}

// CopyBuffer records a copy of size bytes between two buffers. Legal on every buffer.
func (b *CommandBuffer) CopyBuffer(src, dst BufferHandle, srcOffset, dstOffset, size uint64) error {
	return b.record(driver.OpCopyBuffer, queue.KindTransfer,
		uint64(src), uint64(dst), srcOffset, dstOffset, size)
}

// FillBuffer records a fill of size bytes of dst with data. Legal on every buffer.
func (b *CommandBuffer) FillBuffer(dst BufferHandle, offset, size uint64, data uint32) error {
	return b.record(driver.OpFillBuffer, queue.KindTransfer,
		uint64(dst), offset, size, uint64(data))
}

// PipelineBarrier records an execution barrier between two sets of stages. Legal on every buffer.
func (b *CommandBuffer) PipelineBarrier(src, dst PipelineStage) error {
	return b.record(driver.OpPipelineBarrier, queue.KindTransfer, uint64(src), uint64(dst))
}

// BindDescriptorHeaps binds the shader-visible CBV/SRV/UAV and sampler heaps for subsequent draws
// and dispatches. Requires graphics or compute capability.
func (b *CommandBuffer) BindDescriptorHeaps(cbvSrvUav, sampler driver.GPUHandle) error {
	if !b.kind.SupportsShaderBinding() {
		return &queue.CapabilityError{
			Operation: driver.OpBindDescriptorHeaps.String(),
			Have:      b.kind,
			Need:      queue.KindCompute,
		}
	}

	return b.encode(driver.OpBindDescriptorHeaps, []uint64{uint64(cbvSrvUav), uint64(sampler)})
}
