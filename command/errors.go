package command

import "github.com/cockroachdb/errors"

var (
	// ErrUnsupportedLevel is returned when a pool cannot allocate buffers of the requested level
	ErrUnsupportedLevel = errors.New("unsupported command buffer level")
	// ErrIndividualResetUnsupported is returned by CommandBuffer.Reset for buffers whose pool was
	// not created with PoolCreateResetIndividual
	ErrIndividualResetUnsupported = errors.New("command pool does not allow individual buffer resets")
	// ErrNotRecording is returned when a command is recorded or End is called outside Begin/End
	ErrNotRecording = errors.New("command buffer is not recording")
	// ErrAlreadyRecording is returned when Begin is called on a buffer that is recording
	ErrAlreadyRecording = errors.New("command buffer is already recording")
	// ErrNotExecutable is returned when a buffer that has not finished recording since the last
	// pool reset is submitted
	ErrNotExecutable = errors.New("command buffer is not executable")
)
