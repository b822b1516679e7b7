package command

import "github.com/vkngwrapper/core/v2/common"

// PoolCreateFlags configures NativePool and SoftPool behavior
type PoolCreateFlags int32

var poolCreateFlagsMapping = common.NewFlagStringMapping[PoolCreateFlags]()

func (f PoolCreateFlags) Register(str string) {
	poolCreateFlagsMapping.Register(f, str)
}
func (f PoolCreateFlags) String() string {
	return poolCreateFlagsMapping.FlagsToString(f)
}

const (
	// PoolCreateTransient indicates that buffers allocated from the pool are short-lived. Pools
	// created with this flag release storage instead of caching it: NativePool destroys the
	// command lists of freed buffers, and SoftPool drops its recorded memory on Reset.
	PoolCreateTransient PoolCreateFlags = 1 << iota
	// PoolCreateResetIndividual allows CommandBuffer.Reset to be called on buffers allocated from
	// the pool. SoftPool switches from one shared linear buffer to per-buffer storage.
	PoolCreateResetIndividual
)

func init() {
	PoolCreateTransient.Register("PoolCreateTransient")
	PoolCreateResetIndividual.Register("PoolCreateResetIndividual")
}

// PoolOptions configures a command pool
type PoolOptions struct {
	Flags PoolCreateFlags
}

// Level is the level of a command buffer
type Level uint8

const (
	// LevelPrimary buffers can be submitted to queues directly
	LevelPrimary Level = iota
	// LevelSecondary buffers can only be executed from primary buffers
	LevelSecondary
)

var levelMapping = map[Level]string{
	LevelPrimary:   "LevelPrimary",
	LevelSecondary: "LevelSecondary",
}

func (l Level) String() string {
	str, ok := levelMapping[l]
	if !ok {
		return "unknown"
	}
	return str
}

// PipelineStage is a set of pipeline stages used to scope a barrier
type PipelineStage uint32

var pipelineStageMapping = common.NewFlagStringMapping[PipelineStage]()

func (s PipelineStage) Register(str string) {
	pipelineStageMapping.Register(s, str)
}
func (s PipelineStage) String() string {
	return pipelineStageMapping.FlagsToString(s)
}

const (
	StageTopOfPipe PipelineStage = 1 << iota
	StageTransfer
	StageComputeShader
	StageVertexShader
	StageFragmentShader
	StageBottomOfPipe
)

func init() {
	StageTopOfPipe.Register("StageTopOfPipe")
	StageTransfer.Register("StageTransfer")
	StageComputeShader.Register("StageComputeShader")
	StageVertexShader.Register("StageVertexShader")
	StageFragmentShader.Register("StageFragmentShader")
	StageBottomOfPipe.Register("StageBottomOfPipe")
}

// BufferHandle identifies a GPU buffer resource in transfer commands
type BufferHandle uint64
