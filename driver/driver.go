// Package driver is the boundary between the descriptor and command allocators and a native
// graphics API. Allocators only ever create heaps, allocators and lists through these interfaces.
package driver

//go:generate mockgen -destination=mocks/mocks.go -package=mocks github.com/vkngwrapper/arsenal/hal/driver CommandAllocator,CommandDevice,CommandList,DescriptorHeap,Device,HeapDevice
