package pinger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/metrics"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/shutdown"
)

const (
	// defaultPingTimeout is the default timeout for ping operations
	defaultPingTimeout = 1 * time.Second
)

type entry struct {
	pinger  Pinger
	timeout time.Duration
	stats   Stats
}

// Service periodically pings registered components and keeps their latest
// results. A component without results yet is reported unhealthy.
type Service struct {
	logger     *slog.Logger
	interval   time.Duration
	mu         sync.RWMutex
	entries    map[string]*entry
	ready      chan struct{}
	inShutdown atomic.Bool
	doneCh     chan struct{}
	inflight   sync.WaitGroup
}

// New creates a new pinger service with the specified interval
func New(
	logger *slog.Logger,
	interval time.Duration,
) *Service {
	return &Service{
		logger:   logger,
		interval: interval,
		entries:  make(map[string]*entry),
		ready:    make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

var _ shutdown.Shutdowner = (*Service)(nil)

// Name returns the name of the pinger service component
func (s *Service) Name() string {
	return "pinger-service"
}

// Register adds a pinger. Pingers are critical with a one second timeout
// unless they implement PingerCritical or PingerTimeout.
func (s *Service) Register(p Pinger) error {
	if p == nil {
		return fmt.Errorf("register pinger: %w", ErrNilPinger)
	}

	name := p.Name()

	critical := true
	if cp, ok := p.(criticalPinger); ok {
		critical = cp.PingerCritical()
	}

	timeout := defaultPingTimeout
	if tp, ok := p.(timeoutPinger); ok && tp.PingerTimeout() > 0 {
		timeout = tp.PingerTimeout()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("register pinger %s: %w", name, ErrPingerAlreadyRegistered)
	}

	s.entries[name] = &entry{
		pinger:  p,
		timeout: timeout,
		stats:   Stats{Critical: critical},
	}

	s.logger.Info("pinger registered",
		"name", name,
		"critical", critical,
		"timeout", timeout,
	)

	return nil
}

// Start starts the pinger loop in a goroutine
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		s.logger.InfoContext(ctx, "pinger service is shutting down, skipping start")

		return nil
	}

	go s.run(ctx)

	return nil
}

// Ready is closed after the first round of pings completes.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Shutdown waits for the loop and in-flight pings to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "pinger service is already shutting down, skipping shutdown")

		return nil
	}

	s.logger.InfoContext(ctx, "shutting down pinger service")

	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before pinger loop exited: %w", ctx.Err())
	case <-s.doneCh:
	}

	s.inflight.Wait()

	s.logger.InfoContext(ctx, "pinger service shut down")

	return nil
}

// StatsQuery returns a copy of the stats of one pinger.
func (s *Service) StatsQuery(name string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return Stats{}, fmt.Errorf("get stats %s: %w", name, ErrPingerNotFound)
	}

	return e.stats, nil
}

// AllStatsQuery returns a copy of the stats of every pinger.
func (s *Service) AllStatsQuery() map[string]Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]Stats, len(s.entries))
	for name, e := range s.entries {
		result[name] = e.stats
	}

	return result
}

// HealthyQuery reports whether every critical pinger passed its last ping.
func (s *Service) HealthyQuery() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.stats.Critical && !e.stats.Healthy {
			return false
		}
	}

	return true
}

// PingAllCommand runs every pinger once, in parallel, and waits for them.
func (s *Service) PingAllCommand(ctx context.Context) {
	s.mu.RLock()
	pingers := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		pingers = append(pingers, e)
	}
	s.mu.RUnlock()

	var wg sync.WaitGroup

	for _, e := range pingers {
		wg.Add(1)
		s.inflight.Add(1)

		go func() {
			defer wg.Done()
			defer s.inflight.Done()

			s.pingOne(ctx, e)
		}()
	}

	wg.Wait()
}

func (s *Service) pingOne(ctx context.Context, e *entry) {
	pingCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	name := e.pinger.Name()

	start := time.Now()
	err := e.pinger.Ping(pingCtx)
	latency := time.Since(start)

	s.mu.Lock()
	e.stats.record(start, latency, err)
	s.mu.Unlock()

	metrics.RecordComponentUp(name, err == nil)

	if err != nil {
		s.logger.DebugContext(ctx, "pinger error",
			"name", name,
			"latency", latency,
			"reason", err,
		)

		return
	}

	s.logger.DebugContext(ctx, "pinger success",
		"name", name,
		"latency", latency,
	)
}

func (s *Service) run(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("component", "pinger-run")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.PingAllCommand(ctx)
	close(s.ready)

	for {
		select {
		case <-ticker.C:
			if s.inShutdown.Load() {
				logger.InfoContext(ctx, "terminating pinger loop")

				return
			}

			s.PingAllCommand(ctx)
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating pinger loop")

			return
		}
	}
}
