package drive

const (
	// MaxPower is full forward power for one side; -MaxPower is full reverse.
	MaxPower = 100

	// DefaultLeftMultiplier and DefaultRightMultiplier compensate for the
	// mirrored wiring of the two drive sides so that equal positive power
	// moves the rover forward.
	DefaultLeftMultiplier  = -1
	DefaultRightMultiplier = 1
)

// Command sources, used as metric labels and log attributes.
const (
	SourceHTTP      = "http"
	SourceWebSocket = "websocket"
	SourceMQTT      = "mqtt"
	SourceWatchdog  = "watchdog"
)
