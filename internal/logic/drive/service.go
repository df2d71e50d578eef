package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/metrics"
)

// Service arbitrates drive commands: it turns signed per-side power into
// direction and magnitude signals, and owns the time of the last command.
type Service struct {
	logger      *slog.Logger
	sink        MotorSink
	clock       Clock
	multipliers Multipliers

	mu            sync.Mutex
	lastCommandAt time.Time
	left          Output
	right         Output
}

// New creates a new drive service. The last command time starts at the
// current clock reading.
func New(
	logger *slog.Logger,
	sink MotorSink,
	clock Clock,
	multipliers Multipliers,
) (*Service, error) {
	if !validMultiplier(multipliers.Left) || !validMultiplier(multipliers.Right) {
		return nil, fmt.Errorf("%w: left=%d right=%d",
			ErrInvalidMultiplier,
			multipliers.Left,
			multipliers.Right,
		)
	}

	return &Service{
		logger:        logger,
		sink:          sink,
		clock:         clock,
		multipliers:   multipliers,
		lastCommandAt: clock.Now(),
		left:          Output{Direction: DirectionForward},
		right:         Output{Direction: DirectionForward},
	}, nil
}

// ApplyDriveCommand validates cmd and drives both sides.
// Out-of-range power is rejected without touching the motors.
func (s *Service) ApplyDriveCommand(ctx context.Context, source string, cmd Command) error {
	if err := validate(cmd); err != nil {
		metrics.RecordCommandRejected("drive_range")

		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyLocked(ctx, cmd); err != nil {
		return err
	}

	metrics.RecordDriveCommand(source)

	s.logger.DebugContext(ctx, "drive command applied",
		"source", source,
		"left", cmd.Left,
		"right", cmd.Right,
	)

	return nil
}

// StopIfIdleCommand zeroes both sides if no drive command was applied for
// longer than timeout. The check and the stop happen under one lock, so a
// concurrent command cannot be lost between them. A successful stop counts
// as a command and re-arms the idle timer.
func (s *Service) StopIfIdleCommand(ctx context.Context, timeout time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idle := s.clock.Now().Sub(s.lastCommandAt)
	if idle <= timeout {
		return false, nil
	}

	if err := s.applyLocked(ctx, Command{}); err != nil {
		return true, fmt.Errorf("forced stop after %s idle: %w", idle, err)
	}

	metrics.RecordDriveCommand(SourceWatchdog)

	return true, nil
}

// Name returns the name of the drive component
func (s *Service) Name() string {
	return "drive"
}

// Shutdown stops both sides so the rover does not keep moving after exit.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.InfoContext(ctx, "stopping motors")

	if err := s.applyLocked(ctx, Command{}); err != nil {
		return fmt.Errorf("stop motors: %w", err)
	}

	return nil
}

// LastCommandQuery returns the time of the last successfully applied command.
func (s *Service) LastCommandQuery() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastCommandAt
}

// StateQuery returns a snapshot of the last outputs sent to the motors.
func (s *Service) StateQuery() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Left:          s.left,
		Right:         s.right,
		LastCommandAt: s.lastCommandAt,
	}
}

// applyLocked must be called with s.mu held. Both sides are always
// written, even if the first one fails. Each side's output is recorded as
// soon as its write succeeds; the command time only when both did.
func (s *Service) applyLocked(ctx context.Context, cmd Command) error {
	left := toOutput(cmd.Left * s.multipliers.Left)
	right := toOutput(cmd.Right * s.multipliers.Right)

	var errs error

	if err := s.sink.ApplyMotor(ctx, SideLeft, left.Direction, left.Magnitude); err != nil {
		errs = errors.Join(errs, fmt.Errorf("%s side: %w", SideLeft, err))
	} else {
		s.left = left
	}

	if err := s.sink.ApplyMotor(ctx, SideRight, right.Direction, right.Magnitude); err != nil {
		errs = errors.Join(errs, fmt.Errorf("%s side: %w", SideRight, err))
	} else {
		s.right = right
	}

	if errs != nil {
		metrics.RecordSinkError("motor")

		return fmt.Errorf("%w: %w", ErrMotorOutput, errs)
	}

	s.lastCommandAt = s.clock.Now()

	return nil
}

func validate(cmd Command) error {
	if cmd.Left < -MaxPower || cmd.Left > MaxPower {
		return fmt.Errorf("%w: left=%d", ErrInvalidRange, cmd.Left)
	}

	if cmd.Right < -MaxPower || cmd.Right > MaxPower {
		return fmt.Errorf("%w: right=%d", ErrInvalidRange, cmd.Right)
	}

	return nil
}

func validMultiplier(m int) bool {
	return m == 1 || m == -1
}
