package descriptors

import "github.com/vkngwrapper/core/v2/common"

// PoolCreateFlags configures CPUPool and ManagedHeap behavior
type PoolCreateFlags int32

var poolCreateFlagsMapping = common.NewFlagStringMapping[PoolCreateFlags]()

func (f PoolCreateFlags) Register(str string) {
	poolCreateFlagsMapping.Register(f, str)
}
func (f PoolCreateFlags) String() string {
	return poolCreateFlagsMapping.FlagsToString(f)
}

const (
	// PoolCreateExternallySynchronized indicates that the caller will never touch the pool from
	// more than one goroutine at a time, so the pool's internal mutex can be skipped.
	//
	// ManagedHeap always locks its staging free list, since it exists to serve concurrent
	// descriptor writers. This flag is ignored there.
	PoolCreateExternallySynchronized PoolCreateFlags = 1 << iota
)

func init() {
	PoolCreateExternallySynchronized.Register("PoolCreateExternallySynchronized")
}
