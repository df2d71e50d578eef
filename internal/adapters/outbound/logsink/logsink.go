package logsink

import (
	"context"
	"log/slog"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

// Adapter writes motor and servo output to the log instead of hardware.
// It stands in for either sink on a bench machine.
type Adapter struct {
	logger *slog.Logger
	name   string
}

// New creates a logging sink. name distinguishes motor and servo instances
// in health checks.
func New(logger *slog.Logger, name string) *Adapter {
	return &Adapter{
		logger: logger.With("component", name),
		name:   name,
	}
}

var (
	_ drive.MotorSink = (*Adapter)(nil)
	_ arm.ServoSink   = (*Adapter)(nil)
)

func (a *Adapter) ApplyMotor(ctx context.Context, side drive.Side, direction drive.Direction, magnitude int) error {
	a.logger.InfoContext(ctx, "motor output",
		"side", side,
		"directionPinSet", direction.IsSet(),
		"duty", magnitude,
	)

	return nil
}

func (a *Adapter) ApplyServo(ctx context.Context, joint, target int) error {
	a.logger.InfoContext(ctx, "servo output",
		"joint", joint,
		"target", target,
	)

	return nil
}

func (a *Adapter) Name() string {
	return a.name
}

// Ping always succeeds; there is no device behind this sink.
func (a *Adapter) Ping(context.Context) error {
	return nil
}
