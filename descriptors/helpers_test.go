package descriptors_test

import (
	"bytes"
	"io"

	"github.com/vkngwrapper/arsenal/hal/driver"
	"github.com/vkngwrapper/arsenal/hal/driver/mocks"
	"github.com/vkngwrapper/arsenal/hal/driver/soft"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buffer bytes.Buffer
	return slog.New(slog.NewJSONHandler(&buffer, nil)), &buffer
}

func softDevice() *soft.Device {
	return soft.New(discardLogger(), soft.Options{
		Strides: map[driver.HeapType]uint64{
			driver.HeapTypeSampler: 4,
			driver.HeapTypeRtv:     8,
		},
	})
}

// expectHeap sets up device to create one mock heap for desc at base
func expectHeap(ctrl *gomock.Controller, device *mocks.MockHeapDevice, desc driver.HeapDesc, base driver.CPUHandle, stride uint64) *gomock.Call {
	heap := mocks.NewMockDescriptorHeap(ctrl)
	heap.EXPECT().Desc().Return(desc).AnyTimes()
	heap.EXPECT().CPUStart().Return(base).AnyTimes()
	heap.EXPECT().GPUStart().Return(driver.GPUHandle(0)).AnyTimes()
	heap.EXPECT().Stride().Return(stride).AnyTimes()
	heap.EXPECT().Destroy().Times(1)

	return device.EXPECT().CreateDescriptorHeap(desc).Return(heap, nil)
}
