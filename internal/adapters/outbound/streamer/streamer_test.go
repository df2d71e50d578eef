package streamer_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/outbound/streamer"
)

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	s := streamer.New(slog.Default(), []string{"sleep", "30"})
	require.Equal(t, "video-streamer", s.Name())
	require.False(t, s.PingerCritical())
	require.ErrorIs(t, s.Ping(t.Context()), streamer.ErrExited)

	require.NoError(t, s.Start(t.Context()))
	require.NoError(t, s.Ping(t.Context()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Shutdown(ctx))
	require.NoError(t, s.Shutdown(ctx), "second shutdown is a no-op")
}

func TestService_FailingCommand(t *testing.T) {
	t.Parallel()

	s := streamer.New(slog.Default(), []string{"sh", "-c", "echo camera missing >&2; exit 3"})
	require.NoError(t, s.Start(t.Context()))

	require.Eventually(t, func() bool {
		return s.Ping(t.Context()) != nil
	}, 5*time.Second, 10*time.Millisecond)

	require.ErrorIs(t, s.Ping(t.Context()), streamer.ErrExited)
}

func TestService_DaemonizingCommand(t *testing.T) {
	t.Parallel()

	s := streamer.New(slog.Default(), []string{"true"})
	require.NoError(t, s.Start(t.Context()))

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, s.Ping(t.Context()))
	require.NoError(t, s.Shutdown(t.Context()))
}

func TestService_StartErrors(t *testing.T) {
	t.Parallel()

	require.Error(t, streamer.New(slog.Default(), nil).Start(t.Context()))
	require.Error(t, streamer.New(slog.Default(), []string{"/nonexistent/motion"}).Start(t.Context()))
}
