package driver

// HeapType identifies the class of descriptors a descriptor heap holds
type HeapType uint8

const (
	// HeapTypeCbvSrvUav holds constant buffer, shader resource and unordered access views
	HeapTypeCbvSrvUav HeapType = iota
	// HeapTypeSampler holds samplers
	HeapTypeSampler
	// HeapTypeRtv holds render target views. Heaps of this type are never shader visible.
	HeapTypeRtv
	// HeapTypeDsv holds depth stencil views. Heaps of this type are never shader visible.
	HeapTypeDsv
)

var heapTypeMapping = map[HeapType]string{
	HeapTypeCbvSrvUav: "HeapTypeCbvSrvUav",
	HeapTypeSampler:   "HeapTypeSampler",
	HeapTypeRtv:       "HeapTypeRtv",
	HeapTypeDsv:       "HeapTypeDsv",
}

func (t HeapType) String() string {
	str, ok := heapTypeMapping[t]
	if !ok {
		return "unknown"
	}
	return str
}

// HeapTypes lists every heap type
var HeapTypes = []HeapType{HeapTypeCbvSrvUav, HeapTypeSampler, HeapTypeRtv, HeapTypeDsv}

// CanBeShaderVisible returns true if heaps of this type can be bound for GPU reads
func (t HeapType) CanBeShaderVisible() bool {
	return t == HeapTypeCbvSrvUav || t == HeapTypeSampler
}

// CPUHandle is the host address of a descriptor slot
type CPUHandle uint64

// Offset returns the address of the slot index slots past h
func (h CPUHandle) Offset(index, stride uint64) CPUHandle {
	return h + CPUHandle(index*stride)
}

// GPUHandle is the device address of a descriptor slot in a shader visible heap. It is zero for
// heaps that are not shader visible.
type GPUHandle uint64

// Offset returns the address of the slot index slots past h. The zero handle is preserved.
func (h GPUHandle) Offset(index, stride uint64) GPUHandle {
	if h == 0 {
		return 0
	}
	return h + GPUHandle(index*stride)
}

// HeapDesc describes a descriptor heap to be created
type HeapDesc struct {
	Type          HeapType
	ShaderVisible bool
	Capacity      int
}

// DescriptorHeap is a native, fixed capacity, contiguous array of descriptor slots
type DescriptorHeap interface {
	// Desc returns the description the heap was created with
	Desc() HeapDesc
	// CPUStart returns the host address of the first slot
	CPUStart() CPUHandle
	// GPUStart returns the device address of the first slot, or zero if the heap is not shader visible
	GPUStart() GPUHandle
	// Stride returns the distance in bytes between consecutive slots
	Stride() uint64
	// Destroy releases the native heap. It must be called exactly once.
	Destroy()
}

// HeapDevice creates descriptor heaps and copies descriptors between them
type HeapDevice interface {
	CreateDescriptorHeap(desc HeapDesc) (DescriptorHeap, error)
	// CopyDescriptors copies count consecutive descriptors of heapType from src to dst
	CopyDescriptors(heapType HeapType, dst, src CPUHandle, count int)
}
