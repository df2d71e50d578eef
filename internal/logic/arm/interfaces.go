package arm

import "context"

// ServoSink is the port to the servo controller hardware.
// Implementations are provided by adapters in the outbound layer.
type ServoSink interface {
	ApplyServo(
		ctx context.Context,
		joint int,
		target int,
	) error
}
