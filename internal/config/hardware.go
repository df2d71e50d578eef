package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

// SidePins names the BCM pins of one motor driver channel.
type SidePins struct {
	PWM       string `yaml:"pwm"`
	Direction string `yaml:"direction"`
}

type MotorLayout struct {
	Left           SidePins `yaml:"left"`
	Right          SidePins `yaml:"right"`
	PWMFrequencyHz int      `yaml:"pwmFrequencyHz"`
}

// ServoLayout maps joint index to the controller address of its servo:
// a Maestro channel or a Feetech bus ID.
type ServoLayout struct {
	Channels []int `yaml:"channels"`
	IDs      []int `yaml:"ids"`
}

// Hardware describes how the rover is wired.
type Hardware struct {
	Motors      MotorLayout       `yaml:"motors"`
	Multipliers drive.Multipliers `yaml:"multipliers"`
	Servos      ServoLayout       `yaml:"servos"`
}

// DefaultHardware is the wiring of the reference rover.
func DefaultHardware() Hardware {
	return Hardware{
		Motors: MotorLayout{
			Left:           SidePins{PWM: "GPIO16", Direction: "GPIO13"},
			Right:          SidePins{PWM: "GPIO12", Direction: "GPIO6"},
			PWMFrequencyHz: 5000,
		},
		Multipliers: drive.DefaultMultipliers(),
		Servos: ServoLayout{
			Channels: []int{0, 1, 2, 3, 4, 5},
			IDs:      []int{1, 2, 3, 4, 5, 6},
		},
	}
}

// LoadHardware reads the layout file at path over the defaults.
// An empty path returns the defaults.
func LoadHardware(path string) (Hardware, error) {
	if path == "" {
		return DefaultHardware(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Hardware{}, fmt.Errorf("read hardware file: %w", err)
	}

	hw, err := ParseHardware(data)
	if err != nil {
		return Hardware{}, fmt.Errorf("hardware file %s: %w", path, err)
	}

	return hw, nil
}

// ParseHardware decodes a YAML layout over the defaults and validates it.
// Unknown keys are rejected.
func ParseHardware(data []byte) (Hardware, error) {
	hw := DefaultHardware()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&hw); err != nil && !errors.Is(err, io.EOF) {
		return Hardware{}, fmt.Errorf("%w: decode: %w", ErrInvalidConfig, err)
	}

	if err := hw.Validate(); err != nil {
		return Hardware{}, err
	}

	return hw, nil
}

func (h Hardware) Validate() error {
	pins := map[string]string{
		"motors.left.pwm":        h.Motors.Left.PWM,
		"motors.left.direction":  h.Motors.Left.Direction,
		"motors.right.pwm":       h.Motors.Right.PWM,
		"motors.right.direction": h.Motors.Right.Direction,
	}

	seen := make(map[string]string, len(pins))

	for key, pin := range pins {
		if pin == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidConfig, key)
		}

		if other, dup := seen[pin]; dup {
			return fmt.Errorf("%w: pin %s used by both %s and %s", ErrInvalidConfig, pin, other, key)
		}

		seen[pin] = key
	}

	if h.Motors.PWMFrequencyHz <= 0 {
		return fmt.Errorf("%w: motors.pwmFrequencyHz must be positive", ErrInvalidConfig)
	}

	if len(h.Servos.Channels) != arm.JointCount {
		return fmt.Errorf("%w: servos.channels has %d entries, want %d", ErrInvalidConfig, len(h.Servos.Channels), arm.JointCount)
	}

	if len(h.Servos.IDs) != arm.JointCount {
		return fmt.Errorf("%w: servos.ids has %d entries, want %d", ErrInvalidConfig, len(h.Servos.IDs), arm.JointCount)
	}

	return nil
}
