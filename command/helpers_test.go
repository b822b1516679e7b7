package command_test

import (
	"io"

	"github.com/vkngwrapper/arsenal/hal/driver/soft"
	"golang.org/x/exp/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func softDevice() *soft.Device {
	return soft.New(discardLogger(), soft.Options{})
}
