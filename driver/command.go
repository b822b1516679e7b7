package driver

// ListType identifies the queue class a command allocator and its lists record for
type ListType uint8

const (
	// ListTypeDirect lists can record every command
	ListTypeDirect ListType = iota
	// ListTypeCompute lists can record dispatches and transfers
	ListTypeCompute
	// ListTypeCopy lists can only record transfers
	ListTypeCopy
)

var listTypeMapping = map[ListType]string{
	ListTypeDirect:  "ListTypeDirect",
	ListTypeCompute: "ListTypeCompute",
	ListTypeCopy:    "ListTypeCopy",
}

func (t ListType) String() string {
	str, ok := listTypeMapping[t]
	if !ok {
		return "unknown"
	}
	return str
}

// Opcode identifies a recorded command
type Opcode uint16

const (
	OpDraw Opcode = iota + 1
	OpDrawIndexed
	OpDispatch
	OpCopyBuffer
	OpFillBuffer
	OpBindDescriptorHeaps
	OpPipelineBarrier
)

var opcodeMapping = map[Opcode]string{
	OpDraw:                "Draw",
	OpDrawIndexed:         "DrawIndexed",
	OpDispatch:            "Dispatch",
	OpCopyBuffer:          "CopyBuffer",
	OpFillBuffer:          "FillBuffer",
	OpBindDescriptorHeaps: "BindDescriptorHeaps",
	OpPipelineBarrier:     "PipelineBarrier",
}

func (o Opcode) String() string {
	str, ok := opcodeMapping[o]
	if !ok {
		return "unknown"
	}
	return str
}

// CommandAllocator is the native backing storage for recorded command lists
type CommandAllocator interface {
	ListType() ListType
	// Reset reclaims the storage of every list recorded against this allocator. No list recorded
	// against it may be pending execution.
	Reset() error
	Destroy()
}

// CommandList is a native command list. It is recording after Reset and closed after Close.
type CommandList interface {
	// Reset opens the list for recording against allocator
	Reset(allocator CommandAllocator) error
	// Close finishes recording
	Close() error
	// Encode records one command
	Encode(op Opcode, args ...uint64) error
	Destroy()
}

// CommandDevice creates command allocators and command lists
type CommandDevice interface {
	CreateCommandAllocator(listType ListType) (CommandAllocator, error)
	// CreateCommandList creates a closed command list associated with allocator
	CreateCommandList(allocator CommandAllocator) (CommandList, error)
}

// Device is the complete driver boundary
type Device interface {
	HeapDevice
	CommandDevice
}

// Composite joins a HeapDevice and a CommandDevice from different backends into one Device
type Composite struct {
	HeapDevice
	CommandDevice
}
