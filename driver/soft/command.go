package soft

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/arsenal/hal/driver"
	"golang.org/x/exp/slices"
)

// Command is one recorded command
type Command struct {
	Op   driver.Opcode
	Args []uint64
}

// CommandAllocator counts resets so tests can observe pool behavior
type CommandAllocator struct {
	listType  driver.ListType
	resets    int
	destroyed bool
}

var _ driver.CommandAllocator = &CommandAllocator{}

func (a *CommandAllocator) ListType() driver.ListType { return a.listType }

// Resets returns the number of times Reset has been called
func (a *CommandAllocator) Resets() int { return a.resets }

func (a *CommandAllocator) Destroyed() bool { return a.destroyed }

func (a *CommandAllocator) Reset() error {
	if a.destroyed {
		return errors.New("attempted to reset a destroyed command allocator")
	}
	a.resets++
	return nil
}

func (a *CommandAllocator) Destroy() {
	if a.destroyed {
		panic("attempted to destroy a command allocator twice")
	}
	a.destroyed = true
}

// CommandList records commands into a slice
type CommandList struct {
	allocator *CommandAllocator
	recording bool
	destroyed bool
	commands  []Command
}

var _ driver.CommandList = &CommandList{}

// Recording returns true between Reset and Close
func (l *CommandList) Recording() bool { return l.recording }

func (l *CommandList) Destroyed() bool { return l.destroyed }

// Commands returns the commands recorded since the last Reset
func (l *CommandList) Commands() []Command {
	return slices.Clone(l.commands)
}

func (l *CommandList) Reset(allocator driver.CommandAllocator) error {
	softAllocator, ok := allocator.(*CommandAllocator)
	if !ok {
		return errors.Newf("software command lists can only be recorded against software allocators, not %T", allocator)
	}
	if l.recording {
		return errors.New("attempted to reset a command list that is still recording")
	}
	if softAllocator.destroyed {
		return errors.New("attempted to reset a command list against a destroyed allocator")
	}

	l.allocator = softAllocator
	l.commands = l.commands[:0]
	l.recording = true
	return nil
}

func (l *CommandList) Close() error {
	if !l.recording {
		return errors.New("attempted to close a command list that is not recording")
	}
	l.recording = false
	return nil
}

func (l *CommandList) Encode(op driver.Opcode, args ...uint64) error {
	if !l.recording {
		return errors.Newf("attempted to record %s into a command list that is not recording", op)
	}
	l.commands = append(l.commands, Command{Op: op, Args: slices.Clone(args)})
	return nil
}

func (l *CommandList) Destroy() {
	if l.destroyed {
		panic("attempted to destroy a command list twice")
	}
	l.destroyed = true
	l.commands = nil
}

// CreateCommandAllocator creates an allocator for lists of listType
func (d *Device) CreateCommandAllocator(listType driver.ListType) (driver.CommandAllocator, error) {
	if _, ok := listTypeMapping[listType]; !ok {
		return nil, errors.Newf("unknown command list type %s", listType)
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.allocators++

	return &CommandAllocator{listType: listType}, nil
}

var listTypeMapping = map[driver.ListType]struct{}{
	driver.ListTypeDirect:  {},
	driver.ListTypeCompute: {},
	driver.ListTypeCopy:    {},
}

// CreateCommandList creates a closed list associated with allocator
func (d *Device) CreateCommandList(allocator driver.CommandAllocator) (driver.CommandList, error) {
	softAllocator, ok := allocator.(*CommandAllocator)
	if !ok {
		return nil, errors.Newf("software devices can only create command lists for software allocators, not %T", allocator)
	}
	if softAllocator.destroyed {
		return nil, errors.New("attempted to create a command list for a destroyed allocator")
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.lists++

	return &CommandList{allocator: softAllocator}, nil
}

// CommandListsCreated returns the number of command lists created over the device's lifetime
func (d *Device) CommandListsCreated() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.lists
}

// CommandAllocatorsCreated returns the number of command allocators created over the device's lifetime
func (d *Device) CommandAllocatorsCreated() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.allocators
}
