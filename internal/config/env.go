package config

import "time"

// Env key constants. All controller configuration env vars use the ROVER_
// prefix; duration values need explicit units (e.g. 500ms, 10s).

// Log level: debug, info, warn, error.
const envKeyLogLevel = "ROVER_LOG_LEVEL"

// Log format: json or text.
const envKeyLogFormat = "ROVER_LOG_FORMAT"

// Port for the command HTTP server.
const envKeyHTTPPort = "ROVER_HTTP_PORT"

// Port for Prometheus metrics (GET /metrics).
const envKeyMetricsPort = "ROVER_METRICS_PORT"

// Pinger check interval. Units: ms, s, m (e.g. 10s).
const (
	envKeyPingerInterval = "ROVER_PINGER_INTERVAL"
	envMinPingerInterval = time.Second
)

// Startup refuses to proceed while this file exists.
const envKeyTerminationFile = "ROVER_TERMINATION_FILE"

// Watchdog timing profile: production or debug.
const envKeyWatchdogProfile = "ROVER_WATCHDOG_PROFILE"

// Explicit watchdog timing, overriding the profile.
const (
	envKeyWatchdogTimeout  = "ROVER_WATCHDOG_TIMEOUT"
	envKeyWatchdogInterval = "ROVER_WATCHDOG_INTERVAL"
)

// Optional YAML file describing pins, multipliers and servo addressing.
const envKeyHardwareFile = "ROVER_HARDWARE_FILE"

// Motor driver: log or gpio.
const envKeyMotorDriver = "ROVER_MOTOR_DRIVER"

// Servo driver: log, maestro or feetech.
const envKeyServoDriver = "ROVER_SERVO_DRIVER"

// Serial device and baud rate of the servo controller.
const (
	envKeyServoPort = "ROVER_SERVO_PORT"
	envKeyServoBaud = "ROVER_SERVO_BAUD"
)

// MQTT ingress; disabled when the broker is empty.
const (
	envKeyMQTTBroker      = "ROVER_MQTT_BROKER"
	envKeyMQTTClientID    = "ROVER_MQTT_CLIENT_ID"
	envKeyMQTTTopicPrefix = "ROVER_MQTT_TOPIC_PREFIX"
)

// Video streamer command line, split on whitespace. Empty disables it.
const envKeyVideoCommand = "ROVER_VIDEO_COMMAND"
