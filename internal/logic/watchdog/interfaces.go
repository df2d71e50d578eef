package watchdog

import (
	"context"
	"time"
)

// Driver is the drivetrain the watchdog guards.
type Driver interface {
	StopIfIdleCommand(ctx context.Context, timeout time.Duration) (bool, error)
}

// Clock supplies tick timestamps.
type Clock interface {
	Now() time.Time
}
