package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/watchdog"
)

const (
	MotorDriverLog  = "log"
	MotorDriverGPIO = "gpio"

	ServoDriverLog     = "log"
	ServoDriverMaestro = "maestro"
	ServoDriverFeetech = "feetech"
)

var (
	// ErrInvalidConfig is returned for any unusable configuration value.
	ErrInvalidConfig = errors.New("invalid config")

	motorDrivers = []string{MotorDriverLog, MotorDriverGPIO}
	servoDrivers = []string{ServoDriverLog, ServoDriverMaestro, ServoDriverFeetech}
)

type MQTTConfig struct {
	Broker      string
	ClientID    string
	TopicPrefix string
}

// Enabled reports whether a broker was configured.
func (c MQTTConfig) Enabled() bool {
	return c.Broker != ""
}

type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPPort        string
	MetricsPort     string
	PingerInterval  time.Duration
	TerminationFile string
	Watchdog        watchdog.Config
	MotorDriver     string
	ServoDriver     string
	ServoPort       string
	ServoBaud       int
	MQTT            MQTTConfig
	VideoCommand    []string
	Hardware        Hardware
}

func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getEnvOrDefault(envKeyLogLevel, "info"),
		LogFormat:       getEnvOrDefault(envKeyLogFormat, "json"),
		HTTPPort:        getEnvOrDefault(envKeyHTTPPort, "8080"),
		MetricsPort:     getEnvOrDefault(envKeyMetricsPort, "9090"),
		TerminationFile: os.Getenv(envKeyTerminationFile),
		MotorDriver:     getEnvOrDefault(envKeyMotorDriver, MotorDriverLog),
		ServoDriver:     getEnvOrDefault(envKeyServoDriver, ServoDriverLog),
		ServoPort:       getEnvOrDefault(envKeyServoPort, "/dev/ttyACM0"),
		MQTT: MQTTConfig{
			Broker:      os.Getenv(envKeyMQTTBroker),
			ClientID:    getEnvOrDefault(envKeyMQTTClientID, "rover-controller"),
			TopicPrefix: strings.TrimSuffix(getEnvOrDefault(envKeyMQTTTopicPrefix, "rover"), "/"),
		},
		VideoCommand: strings.Fields(os.Getenv(envKeyVideoCommand)),
	}

	var err error

	cfg.PingerInterval, err = parseDurationEnv(envKeyPingerInterval, "10s", envMinPingerInterval)
	if err != nil {
		return nil, err
	}

	if cfg.Watchdog, err = loadWatchdog(); err != nil {
		return nil, err
	}

	if !slices.Contains(motorDrivers, cfg.MotorDriver) {
		return nil, fmt.Errorf("%w: %s=%q, want one of %v", ErrInvalidConfig, envKeyMotorDriver, cfg.MotorDriver, motorDrivers)
	}

	if !slices.Contains(servoDrivers, cfg.ServoDriver) {
		return nil, fmt.Errorf("%w: %s=%q, want one of %v", ErrInvalidConfig, envKeyServoDriver, cfg.ServoDriver, servoDrivers)
	}

	if cfg.ServoBaud, err = parseIntEnv(envKeyServoBaud, defaultBaud(cfg.ServoDriver)); err != nil {
		return nil, err
	}

	if cfg.Hardware, err = LoadHardware(os.Getenv(envKeyHardwareFile)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadWatchdog resolves the profile, then applies explicit overrides.
func loadWatchdog() (watchdog.Config, error) {
	cfg, err := watchdog.ConfigForProfile(os.Getenv(envKeyWatchdogProfile))
	if err != nil {
		return watchdog.Config{}, fmt.Errorf("%s: %w", envKeyWatchdogProfile, err)
	}

	if v := os.Getenv(envKeyWatchdogTimeout); v != "" {
		if cfg.Timeout, err = time.ParseDuration(v); err != nil {
			return watchdog.Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, envKeyWatchdogTimeout, err)
		}
	}

	if v := os.Getenv(envKeyWatchdogInterval); v != "" {
		if cfg.CheckInterval, err = time.ParseDuration(v); err != nil {
			return watchdog.Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, envKeyWatchdogInterval, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return watchdog.Config{}, err
	}

	return cfg, nil
}

func defaultBaud(servoDriver string) int {
	if servoDriver == ServoDriverFeetech {
		return 1_000_000
	}

	return 9600
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}

func parseDurationEnv(key, defaultValue string, minimum time.Duration) (time.Duration, error) {
	raw := getEnvOrDefault(key, defaultValue)

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, key, err)
	}

	if d < minimum {
		return 0, fmt.Errorf("%w: %s=%s is below minimum %s", ErrInvalidConfig, key, d, minimum)
	}

	return d, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s=%q must be a positive integer", ErrInvalidConfig, key, raw)
	}

	return v, nil
}
