package drive

import (
	"context"
	"time"
)

// MotorSink is the port to the motor driver hardware.
// Implementations are provided by adapters in the outbound layer.
type MotorSink interface {
	ApplyMotor(
		ctx context.Context,
		side Side,
		direction Direction,
		magnitude int,
	) error
}

// Clock supplies the time used to stamp applied commands.
type Clock interface {
	Now() time.Time
}
