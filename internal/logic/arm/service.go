package arm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/metrics"
)

// Service owns the absolute joint targets of the arm. All changes go
// through ApplyDeltasCommand or ResetCommand.
type Service struct {
	logger *slog.Logger
	sink   ServoSink

	mu       sync.Mutex
	position Position
}

// New creates a new arm service holding the base pose.
// Nothing is sent to the servos until the first command.
func New(logger *slog.Logger, sink ServoSink) *Service {
	return &Service{
		logger:   logger,
		sink:     sink,
		position: basePose,
	}
}

// ApplyDeltasCommand moves every joint by its delta, truncating at the
// joint limits, and sends the resulting targets to the servos in joint order.
// The new position is kept even if a servo write fails.
func (s *Service) ApplyDeltasCommand(ctx context.Context, deltas []int) (Position, error) {
	if len(deltas) != JointCount {
		metrics.RecordCommandRejected("arm_arity")

		return Position{}, fmt.Errorf("%w: got %d, want %d", ErrArityMismatch, len(deltas), JointCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.position

	for i, delta := range deltas {
		target, clamped := clampTarget(next[i] + boundDelta(delta))
		if clamped {
			metrics.RecordJointClamped(i)
			s.logger.DebugContext(ctx, "joint target clamped",
				"joint", i,
				"delta", delta,
				"target", target,
			)
		}

		next[i] = target
	}

	s.position = next

	return next, s.forwardLocked(ctx, next)
}

// ResetCommand restores the base pose and sends it to the servos.
func (s *Service) ResetCommand(ctx context.Context) (Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.position = basePose

	s.logger.InfoContext(ctx, "arm reset to base pose")

	return s.position, s.forwardLocked(ctx, s.position)
}

// PositionQuery returns the current joint targets.
func (s *Service) PositionQuery() Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.position
}

// forwardLocked must be called with s.mu held.
func (s *Service) forwardLocked(ctx context.Context, position Position) error {
	var errs error

	for joint, target := range position {
		if err := s.sink.ApplyServo(ctx, joint, target); err != nil {
			errs = errors.Join(errs, fmt.Errorf("joint %d: %w", joint, err))
		}
	}

	if errs != nil {
		metrics.RecordSinkError("servo")
		s.logger.ErrorContext(ctx, "servo write failed", "reason", errs)

		return fmt.Errorf("%w: %w", ErrServoOutput, errs)
	}

	return nil
}
