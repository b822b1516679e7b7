package command

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/queue"
)

// Buffer is a CommandBuffer whose capability is known at compile time. Recording helpers such as
// Draw and Dispatch only accept buffers whose marker supports the command.
type Buffer[C queue.Capability] struct {
	*CommandBuffer
}

// Wrap returns buffer as a Buffer[C]. It fails if buffer's capability does not support C.
func Wrap[C queue.Capability](buffer *CommandBuffer) (Buffer[C], error) {
	err := queue.Check("command.Wrap", buffer.Capability(), queue.KindOf[C]())
	if err != nil {
		return Buffer[C]{}, err
	}

	return Buffer[C]{CommandBuffer: buffer}, nil
}

// TypedPool allocates Buffer[C] values from a Pool whose capability supports C
type TypedPool[C queue.Capability] struct {
	Pool
}

// NewTypedPool wraps pool. It fails if pool's capability does not support C.
func NewTypedPool[C queue.Capability](pool Pool) (*TypedPool[C], error) {
	err := queue.Check("command.NewTypedPool", pool.Capability(), queue.KindOf[C]())
	if err != nil {
		return nil, err
	}

	return &TypedPool[C]{Pool: pool}, nil
}

func (p *TypedPool[C]) Allocate(num int, level Level) ([]Buffer[C], error) {
	buffers, err := p.Pool.Allocate(num, level)
	if err != nil {
		return nil, err
	}

	typed := make([]Buffer[C], 0, len(buffers))
	for _, buffer := range buffers {
		typed = append(typed, Buffer[C]{CommandBuffer: buffer})
	}
	return typed, nil
}

func (p *TypedPool[C]) Free(buffers []Buffer[C]) {
	untyped := make([]*CommandBuffer, 0, len(buffers))
	for _, buffer := range buffers {
		untyped = append(untyped, buffer.CommandBuffer)
	}
	p.Pool.Free(untyped)
}

func Draw[C queue.SupportsGraphics](buffer Buffer[C], vertexCount, instanceCount, firstVertex, firstInstance uint32) error {
	return buffer.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func DrawIndexed[C queue.SupportsGraphics](buffer Buffer[C], indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) error {
	return buffer.DrawIndexed(indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func Dispatch[C queue.SupportsCompute](buffer Buffer[C], groupCountX, groupCountY, groupCountZ uint32) error {
	return buffer.Dispatch(groupCountX, groupCountY, groupCountZ)
}

func BindDescriptorHeaps[C queue.SupportsShaderBinding](buffer Buffer[C], cbvSrvUav, sampler driver.GPUHandle) error {
	return buffer.BindDescriptorHeaps(cbvSrvUav, sampler)
}

func CopyBuffer[C queue.SupportsTransfer](buffer Buffer[C], src, dst BufferHandle, srcOffset, dstOffset, size uint64) error {
	return buffer.CopyBuffer(src, dst, srcOffset, dstOffset, size)
}

func FillBuffer[C queue.SupportsTransfer](buffer Buffer[C], dst BufferHandle, offset, size uint64, data uint32) error {
	return buffer.FillBuffer(dst, offset, size, data)
}

func PipelineBarrier[C queue.SupportsTransfer](buffer Buffer[C], src, dst PipelineStage) error {
	return buffer.PipelineBarrier(src, dst)
}

// Submit submits buffers to q as one submission. Every buffer must be executable.
func Submit(q *queue.Queue, buffers ...*CommandBuffer) error {
	submission := queue.NewSubmission()
	for index, buffer := range buffers {
		if !buffer.IsExecutable() {
			return errors.Wrapf(ErrNotExecutable, "buffer %d of submission is %s", index, buffer.state)
		}
		submission.Append(buffer)
	}

	return q.Submit(submission)
}
