package queue

import "github.com/vkngwrapper/core/v2/core1_0"

// Kind is the runtime representation of a queue or command buffer capability. The four kinds form
// a lattice: KindGeneral supports everything, KindGraphics and KindCompute each support
// KindTransfer, and KindTransfer supports only itself.
type Kind uint8

const (
	// KindTransfer can only record copy and fill commands
	KindTransfer Kind = iota
	// KindCompute can record dispatches and anything KindTransfer can
	KindCompute
	// KindGraphics can record draws and anything KindTransfer can
	KindGraphics
	// KindGeneral can record everything
	KindGeneral
)

var kindMapping = map[Kind]string{
	KindTransfer: "Transfer",
	KindCompute:  "Compute",
	KindGraphics: "Graphics",
	KindGeneral:  "General",
}

func (k Kind) String() string {
	str, ok := kindMapping[k]
	if !ok {
		return "unknown"
	}
	return str
}

// Kinds lists every capability kind, weakest first
var Kinds = []Kind{KindTransfer, KindCompute, KindGraphics, KindGeneral}

var supportsTable = [4][4]bool{
	//             Transfer Compute Graphics General
	KindTransfer: {true, false, false, false},
	KindCompute:  {true, true, false, false},
	KindGraphics: {true, false, true, false},
	KindGeneral:  {true, true, true, true},
}

var upperTable = [4][4]Kind{
	KindTransfer: {KindTransfer, KindCompute, KindGraphics, KindGeneral},
	KindCompute:  {KindCompute, KindCompute, KindGeneral, KindGeneral},
	KindGraphics: {KindGraphics, KindGeneral, KindGraphics, KindGeneral},
	KindGeneral:  {KindGeneral, KindGeneral, KindGeneral, KindGeneral},
}

func (k Kind) valid() bool {
	return k <= KindGeneral
}

// Supports returns true if every operation that requires other can be recorded on k
func (k Kind) Supports(other Kind) bool {
	if !k.valid() || !other.valid() {
		return false
	}
	return supportsTable[k][other]
}

// SupportsShaderBinding returns true if descriptor heaps can be bound on k
func (k Kind) SupportsShaderBinding() bool {
	return k.Supports(KindGraphics) || k.Supports(KindCompute)
}

// Upper returns the smallest kind that supports both a and b
func Upper(a, b Kind) Kind {
	if !a.valid() || !b.valid() {
		panic("attempted to join an unknown capability kind")
	}
	return upperTable[a][b]
}

// SupportedBy returns true if a queue family advertising the provided flags can execute work of
// kind k. Vulkan queue families that support graphics or compute implicitly support transfer.
func (k Kind) SupportedBy(flags core1_0.QueueFlags) bool {
	graphics := flags&core1_0.QueueGraphics != 0
	compute := flags&core1_0.QueueCompute != 0

	switch k {
	case KindGeneral:
		return graphics && compute
	case KindGraphics:
		return graphics
	case KindCompute:
		return compute
	case KindTransfer:
		return graphics || compute || flags&core1_0.QueueTransfer != 0
	}

	return false
}

// KindForQueueFlags returns the strongest kind a queue family advertising the provided flags can
// execute, or false if the family can't execute any of them
func KindForQueueFlags(flags core1_0.QueueFlags) (Kind, bool) {
	switch {
	case KindGeneral.SupportedBy(flags):
		return KindGeneral, true
	case KindGraphics.SupportedBy(flags):
		return KindGraphics, true
	case KindCompute.SupportedBy(flags):
		return KindCompute, true
	case KindTransfer.SupportedBy(flags):
		return KindTransfer, true
	}

	return KindTransfer, false
}

// Capability is implemented by the marker types General, Graphics, Compute and Transfer. It is used
// as a type parameter so that illegal commands are rejected by the compiler.
type Capability interface {
	Kind() Kind
}

// SupportsTransfer is satisfied by every capability marker
type SupportsTransfer interface {
	Capability
	supportsTransfer()
}

// SupportsGraphics is satisfied by General and Graphics
type SupportsGraphics interface {
	SupportsTransfer
	supportsGraphics()
}

// SupportsCompute is satisfied by General and Compute
type SupportsCompute interface {
	SupportsTransfer
	supportsCompute()
}

// SupportsShaderBinding is satisfied by every marker that can bind descriptor heaps for shaders:
// General, Graphics and Compute
type SupportsShaderBinding interface {
	SupportsTransfer
	supportsShaderBinding()
}

// General is the capability marker for queues and command buffers that support everything
type General struct{}

// Graphics is the capability marker for queues and command buffers that support draws and transfers
type Graphics struct{}

// Compute is the capability marker for queues and command buffers that support dispatches and transfers
type Compute struct{}

// Transfer is the capability marker for queues and command buffers that only support transfers
type Transfer struct{}

func (General) Kind() Kind  { return KindGeneral }
func (Graphics) Kind() Kind { return KindGraphics }
func (Compute) Kind() Kind  { return KindCompute }
func (Transfer) Kind() Kind { return KindTransfer }

func (General) supportsTransfer()  {}
func (Graphics) supportsTransfer() {}
func (Compute) supportsTransfer()  {}
func (Transfer) supportsTransfer() {}

func (General) supportsGraphics()  {}
func (Graphics) supportsGraphics() {}

func (General) supportsCompute() {}
func (Compute) supportsCompute() {}

func (General) supportsShaderBinding()  {}
func (Graphics) supportsShaderBinding() {}
func (Compute) supportsShaderBinding()  {}

// KindOf returns the runtime kind of the capability marker C
func KindOf[C Capability]() Kind {
	var marker C
	return marker.Kind()
}
