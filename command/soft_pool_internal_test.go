package command

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/arsenal/hal/queue"
	"golang.org/x/exp/slog"
)

func TestSoftPoolPanicsOnContention(t *testing.T) {
	pool, err := NewSoftPool(slog.New(slog.NewJSONHandler(io.Discard, nil)), queue.KindGraphics, PoolOptions{})
	require.NoError(t, err)

	buffers, err := pool.Allocate(1, LevelPrimary)
	require.NoError(t, err)
	require.NoError(t, buffers[0].Begin())

	// another goroutine is inside the pool
	pool.guard.Enter("Allocate")

	require.PanicsWithValue(t, "software command pool: CommandBuffer.Draw was called while software command pool was already in use by another caller", func() {
		_ = buffers[0].Draw(3, 1, 0, 0)
	})
	require.Panics(t, func() {
		_, _ = pool.Allocate(1, LevelPrimary)
	})

	pool.guard.Exit()

	require.NoError(t, buffers[0].Draw(3, 1, 0, 0))
	require.NoError(t, buffers[0].End())
	require.Len(t, pool.Commands(buffers[0]), 1)
}
