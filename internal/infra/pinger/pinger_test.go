package pinger_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/pinger"
)

type mockPinger struct {
	name     string
	mu       sync.Mutex
	err      error
	calls    atomic.Int32
	critical *bool
	timeout  time.Duration
	delay    time.Duration
}

func (m *mockPinger) Name() string {
	return m.name
}

func (m *mockPinger) Ping(ctx context.Context) error {
	m.calls.Add(1)

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.err
}

func (m *mockPinger) setErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.err = err
}

type optionalPinger struct {
	*mockPinger
}

func (o optionalPinger) PingerCritical() bool {
	return *o.critical
}

func (o optionalPinger) PingerTimeout() time.Duration {
	return o.timeout
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	tests := []struct {
		name    string
		give    []pinger.Pinger
		wantErr error
	}{
		{
			name: "single pinger",
			give: []pinger.Pinger{&mockPinger{name: "a"}},
		},
		{
			name: "distinct names",
			give: []pinger.Pinger{&mockPinger{name: "a"}, &mockPinger{name: "b"}},
		},
		{
			name:    "duplicate name",
			give:    []pinger.Pinger{&mockPinger{name: "a"}, &mockPinger{name: "a"}},
			wantErr: pinger.ErrPingerAlreadyRegistered,
		},
		{
			name:    "nil pinger",
			give:    []pinger.Pinger{nil},
			wantErr: pinger.ErrNilPinger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := pinger.New(logger, time.Second)

			var err error
			for _, p := range tt.give {
				if err = svc.Register(p); err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			require.Len(t, svc.AllStatsQuery(), len(tt.give))
		})
	}
}

func TestService_PingAllCommand(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	t.Run("unpinged component is unhealthy", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, time.Second)
		require.NoError(t, svc.Register(&mockPinger{name: "sink"}))

		require.False(t, svc.HealthyQuery())
	})

	t.Run("success and failure are recorded", func(t *testing.T) {
		t.Parallel()

		ok := &mockPinger{name: "ok"}
		bad := &mockPinger{name: "bad"}
		bad.setErr(errors.New("serial port closed"))

		svc := pinger.New(logger, time.Second)
		require.NoError(t, svc.Register(ok))
		require.NoError(t, svc.Register(bad))

		svc.PingAllCommand(t.Context())
		svc.PingAllCommand(t.Context())

		okStats, err := svc.StatsQuery("ok")
		require.NoError(t, err)
		require.True(t, okStats.Healthy)
		require.Equal(t, uint64(2), okStats.SuccessCount)
		require.False(t, okStats.LastRun.IsZero())

		badStats, err := svc.StatsQuery("bad")
		require.NoError(t, err)
		require.False(t, badStats.Healthy)
		require.Equal(t, uint64(2), badStats.ErrorCount)
		require.Equal(t, 2, badStats.ConsecutiveFailures)
		require.Equal(t, "serial port closed", badStats.LastError)

		require.False(t, svc.HealthyQuery())
	})

	t.Run("recovery clears consecutive failures", func(t *testing.T) {
		t.Parallel()

		p := &mockPinger{name: "flaky"}
		p.setErr(errors.New("timeout"))

		svc := pinger.New(logger, time.Second)
		require.NoError(t, svc.Register(p))

		svc.PingAllCommand(t.Context())

		p.setErr(nil)
		svc.PingAllCommand(t.Context())

		stats, err := svc.StatsQuery("flaky")
		require.NoError(t, err)
		require.True(t, stats.Healthy)
		require.Zero(t, stats.ConsecutiveFailures)
		require.Empty(t, stats.LastError)
		require.True(t, svc.HealthyQuery())
	})

	t.Run("non critical failure keeps service healthy", func(t *testing.T) {
		t.Parallel()

		critical := false
		p := optionalPinger{&mockPinger{name: "mqtt", critical: &critical}}
		p.setErr(errors.New("broker unreachable"))

		svc := pinger.New(logger, time.Second)
		require.NoError(t, svc.Register(p))

		svc.PingAllCommand(t.Context())

		stats, err := svc.StatsQuery("mqtt")
		require.NoError(t, err)
		require.False(t, stats.Critical)
		require.False(t, stats.Healthy)
		require.True(t, svc.HealthyQuery())
	})

	t.Run("custom timeout applies", func(t *testing.T) {
		t.Parallel()

		critical := true
		p := optionalPinger{&mockPinger{
			name:     "slow",
			critical: &critical,
			timeout:  20 * time.Millisecond,
			delay:    time.Second,
		}}

		svc := pinger.New(logger, time.Second)
		require.NoError(t, svc.Register(p))

		svc.PingAllCommand(t.Context())

		stats, err := svc.StatsQuery("slow")
		require.NoError(t, err)
		require.False(t, stats.Healthy)
		require.Less(t, stats.LastLatency, time.Second)
	})

	t.Run("unknown name", func(t *testing.T) {
		t.Parallel()

		svc := pinger.New(logger, time.Second)

		_, err := svc.StatsQuery("missing")
		require.ErrorIs(t, err, pinger.ErrPingerNotFound)
	})
}

func TestService_Start_Ready_Shutdown(t *testing.T) {
	t.Parallel()

	p := &mockPinger{name: "drive"}

	svc := pinger.New(slog.Default(), 10*time.Millisecond)
	require.NoError(t, svc.Register(p))
	require.Equal(t, "pinger-service", svc.Name())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, svc.Start(ctx))

	select {
	case <-svc.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("pinger service did not become ready")
	}

	require.True(t, svc.HealthyQuery())

	require.Eventually(t, func() bool {
		return p.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	require.NoError(t, svc.Shutdown(shutdownCtx))
	require.NoError(t, svc.Shutdown(shutdownCtx), "second shutdown is a no-op")
}
