package watchdog

import "errors"

var (
	ErrInvalidWatchdogConfig = errors.New("invalid watchdog config")
	ErrWatchdogShutdown      = errors.New("watchdog is shut down")
)
