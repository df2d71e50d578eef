package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/metrics"
)

// pingGrace is added to the allowed tick age before Ping reports a stall.
const pingGrace = time.Second

// Service periodically stops the drivetrain when drive commands go stale.
// A forced stop re-arms the idle timer, so a silent operator causes one
// stop per timeout window instead of one per tick.
type Service struct {
	logger     *slog.Logger
	driver     Driver
	clock      Clock
	cfg        Config
	ready      chan struct{}
	doneCh     chan struct{}
	inShutdown atomic.Bool
	trips      atomic.Uint64
	mu         sync.RWMutex
	lastTickAt time.Time
}

// New creates a new watchdog service.
func New(
	logger *slog.Logger,
	driver Driver,
	clock Clock,
	cfg Config,
) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Service{
		logger: logger,
		driver: driver,
		clock:  clock,
		cfg:    cfg,
		ready:  make(chan struct{}),
		doneCh: make(chan struct{}),
	}, nil
}

// Start launches the watchdog loop. It fails once Shutdown was called,
// since Ready would never close.
func (s *Service) Start(ctx context.Context) error {
	if s.inShutdown.Load() {
		return ErrWatchdogShutdown
	}

	go s.RunCommand(ctx)

	return nil
}

// Name returns the name of the watchdog component
func (s *Service) Name() string {
	return "command-watchdog"
}

// Ping fails if the watchdog loop has stopped ticking.
func (s *Service) Ping(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ready:
		age := s.getLastTickAge()
		if age > 2*s.cfg.CheckInterval+pingGrace {
			return fmt.Errorf("last watchdog tick was too long ago: %s", age.Round(time.Millisecond).String())
		}

		return nil
	default:
		return fmt.Errorf("watchdog is not ready")
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) Shutdown(ctx context.Context) error {
	if !s.inShutdown.CompareAndSwap(false, true) {
		s.logger.ErrorContext(ctx, "watchdog is already shutting down, skipping shutdown")

		return nil
	}

	defer func() {
		s.logger.InfoContext(ctx, "watchdog shut downed")
	}()

	s.logger.InfoContext(ctx, "shutting down watchdog")

	// RunCommand exits on cancellation of the context it was started with
	select {
	case <-ctx.Done():
		return fmt.Errorf("shutdown context done before watchdog loop exited: %w", ctx.Err())
	case <-s.doneCh:
		s.logger.InfoContext(ctx, "watchdog loop exited")
	}

	return nil
}

// CheckCommand runs one watchdog tick and reports whether it forced a stop.
// Failures are logged and counted here; the next tick retries.
func (s *Service) CheckCommand(ctx context.Context) bool {
	defer s.setLastTickAt()

	fired, err := s.driver.StopIfIdleCommand(ctx, s.cfg.Timeout)
	if err != nil {
		s.logger.ErrorContext(ctx, "forced motor stop failed",
			"timeout", s.cfg.Timeout,
			"reason", err,
		)

		return false
	}

	if !fired {
		return false
	}

	s.trips.Add(1)
	metrics.RecordWatchdogTrip()

	s.logger.WarnContext(ctx, "no drive command within timeout, motors stopped",
		"timeout", s.cfg.Timeout,
	)

	return true
}

// RunCommand ticks at the configured interval until ctx is cancelled.
func (s *Service) RunCommand(ctx context.Context) {
	defer close(s.doneCh)

	logger := s.logger.With("watchdog", "RunCommand")

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	s.setLastTickAt()
	close(s.ready)

	logger.InfoContext(ctx, "watchdog started",
		"timeout", s.cfg.Timeout,
		"checkInterval", s.cfg.CheckInterval,
	)

	for {
		select {
		case <-ticker.C:
			s.CheckCommand(ctx)
		case <-ctx.Done():
			logger.InfoContext(ctx, "terminating watchdog loop")

			return
		}
	}
}

// TripsQuery returns how many forced stops have been issued.
func (s *Service) TripsQuery() uint64 {
	return s.trips.Load()
}

// ConfigQuery returns the active timing.
func (s *Service) ConfigQuery() Config {
	return s.cfg
}

func (s *Service) getLastTickAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clock.Now().Sub(s.lastTickAt)
}

func (s *Service) setLastTickAt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTickAt = s.clock.Now()
}
