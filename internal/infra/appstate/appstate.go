package appstate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/pinger"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/shutdown"
)

// State represents the application state
type State string

const (
	// StateInit is the initial state when the application is created
	StateInit State = "init"

	// StateStarting is the state when the application is starting up
	StateStarting State = "starting"

	// StateRunning is the state when the application is running normally
	StateRunning State = "running"

	// StateTerminating is the state when the application is shutting down
	StateTerminating State = "terminating"

	// StateTerminated is the final state when the application has terminated
	StateTerminated State = "terminated"
)

const defaultShutdownersCount = 10

// Status is a snapshot of the application lifecycle and component health.
type Status struct {
	State      State                   `json:"state"`
	StartedAt  time.Time               `json:"startTime"`
	ReadyAt    *time.Time              `json:"readyTime,omitempty"`
	Uptime     time.Duration           `json:"-"`
	Components map[string]pinger.Stats `json:"components"`
}

// AppState manages the application state with thread-safe operations
type AppState struct {
	mu                  sync.RWMutex
	logger              *slog.Logger
	startedAt           time.Time
	readyAt             *time.Time
	terminatingAt       *time.Time
	state               State
	quit                <-chan os.Signal
	terminationFilePath string
	health              componentHealth
	shutdowners         []shutdown.Shutdowner
}

// New creates a new AppState with the given start time
func New(
	logger *slog.Logger,
	appStart time.Time,
	terminationFilePath string,
	quit <-chan os.Signal,
	health componentHealth,
) *AppState {
	return &AppState{
		logger:              logger,
		startedAt:           appStart,
		state:               StateInit,
		quit:                quit,
		terminationFilePath: terminationFilePath,
		health:              health,
		shutdowners:         make([]shutdown.Shutdowner, 0, defaultShutdownersCount),
	}
}

// RegisterShutdowner appends a component to the shutdown list. Components
// are shut down in reverse registration order.
func (s *AppState) RegisterShutdowner(shutdowner shutdown.Shutdowner) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shutdowners = append(s.shutdowners, shutdowner)
}

// SetStarting transitions the state from Init to Starting
func (s *AppState) SetStarting(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInit {
		return fmt.Errorf("set starting from %s: %w", s.state, ErrInvalidStateTransition)
	}

	return s.setState(StateStarting)
}

// SetRunning transitions the state from Starting to Running. If the
// termination file appeared during startup the process signals itself to stop.
func (s *AppState) SetRunning(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateStarting {
		return fmt.Errorf("set running from %s: %w", s.state, ErrInvalidStateTransition)
	}

	now := time.Now()
	s.readyAt = &now

	if err := s.setState(StateRunning); err != nil {
		return err
	}

	if shutdown.CheckTerminationFile(ctx, s.logger, s.terminationFilePath) {
		pid := os.Getpid()
		s.logger.InfoContext(ctx, "termination file found after initialization, sending SIGTERM",
			"pid", pid,
		)

		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
			s.logger.ErrorContext(ctx, "failed to send SIGTERM",
				"error", err,
				"pid", pid,
			)
		}
	}

	return nil
}

// SetTerminating transitions the state to Terminating
func (s *AppState) SetTerminating(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return fmt.Errorf("set terminating: %w", ErrAlreadyTerminated)
	}

	now := time.Now()
	s.terminatingAt = &now

	return s.setState(StateTerminating)
}

func (s *AppState) setState(newState State) error {
	if s.state == StateTerminated {
		return fmt.Errorf("set state: %w", ErrAlreadyTerminated)
	}

	s.state = newState

	return nil
}

// GetState returns the current application state
func (s *AppState) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

// GetUptime returns the duration since the application started
func (s *AppState) GetUptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return time.Since(s.startedAt)
}

// IsHealthy reports whether the app is running and every critical
// component passed its last health ping.
func (s *AppState) IsHealthy() bool {
	if s.GetState() != StateRunning {
		return false
	}

	return s.health.HealthyQuery()
}

// IsReady reports whether the app is running and the first round of
// health pings has completed.
func (s *AppState) IsReady() bool {
	s.mu.RLock()
	running := s.state == StateRunning && s.readyAt != nil
	s.mu.RUnlock()

	if !running {
		return false
	}

	select {
	case <-s.health.Ready():
		return true
	default:
		return false
	}
}

// StatusQuery returns the lifecycle state and the per-component health.
func (s *AppState) StatusQuery() Status {
	s.mu.RLock()
	status := Status{
		State:     s.state,
		StartedAt: s.startedAt,
		ReadyAt:   s.readyAt,
		Uptime:    time.Since(s.startedAt),
	}
	s.mu.RUnlock()

	status.Components = s.health.AllStatsQuery()

	return status
}

// Quit returns the channel that will receive the signal when shutdown is requested
func (s *AppState) Quit() <-chan os.Signal {
	return s.quit
}

// Shutdown runs the registered shutdowners and marks the app terminated.
// Calling it again after termination is a no-op.
func (s *AppState) Shutdown(ctx context.Context) error {
	if s.GetState() == StateTerminated {
		return nil
	}

	if err := s.SetTerminating(ctx); err != nil {
		return fmt.Errorf("set terminating application state: %w", err)
	}

	s.mu.RLock()
	shutdowners := make([]shutdown.Shutdowner, len(s.shutdowners))
	copy(shutdowners, s.shutdowners)
	s.mu.RUnlock()

	err := shutdown.GracefulShutdown(ctx, s.logger, shutdowners)

	s.mu.Lock()
	s.state = StateTerminated
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
