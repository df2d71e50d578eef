package watchdog

import (
	"fmt"
	"time"
)

// Profile names for the built-in timing presets.
const (
	ProfileProduction = "production"
	ProfileDebug      = "debug"
)

// Config holds the watchdog timing.
type Config struct {
	// Timeout is how long the drivetrain may go without a command before it is stopped.
	Timeout time.Duration

	// CheckInterval is the tick period.
	CheckInterval time.Duration
}

// ProductionConfig stops the rover half a second after the operator goes quiet.
func ProductionConfig() Config {
	return Config{
		Timeout:       500 * time.Millisecond,
		CheckInterval: 100 * time.Millisecond,
	}
}

// DebugConfig is slow enough to drive by hand with curl.
func DebugConfig() Config {
	return Config{
		Timeout:       10 * time.Second,
		CheckInterval: time.Second,
	}
}

// ConfigForProfile returns the preset for a profile name.
func ConfigForProfile(profile string) (Config, error) {
	switch profile {
	case ProfileProduction, "":
		return ProductionConfig(), nil
	case ProfileDebug:
		return DebugConfig(), nil
	default:
		return Config{}, fmt.Errorf("%w: unknown profile %q", ErrInvalidWatchdogConfig, profile)
	}
}

// Validate checks that a tick can observe staleness before the next one.
func (c Config) Validate() error {
	if c.Timeout <= 0 || c.CheckInterval <= 0 {
		return fmt.Errorf("%w: timeout %s and check interval %s must be positive",
			ErrInvalidWatchdogConfig,
			c.Timeout,
			c.CheckInterval,
		)
	}

	if c.Timeout <= c.CheckInterval {
		return fmt.Errorf("%w: timeout %s must exceed check interval %s",
			ErrInvalidWatchdogConfig,
			c.Timeout,
			c.CheckInterval,
		)
	}

	return nil
}
