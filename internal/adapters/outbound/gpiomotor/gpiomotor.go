package gpiomotor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

const maxDuty = 100

// Pin is the subset of gpio.PinIO the driver uses.
type Pin interface {
	Name() string
	Out(l gpio.Level) error
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

// SidePins are the two lines of one motor driver channel.
type SidePins struct {
	PWM       Pin
	Direction Pin
}

// PinNames identify SidePins on the host, e.g. "GPIO16".
type PinNames struct {
	PWM       string
	Direction string
}

// Adapter drives two H-bridge channels: a direction line and a PWM line per side.
type Adapter struct {
	logger    *slog.Logger
	frequency physic.Frequency
	mu        sync.Mutex
	sides     map[drive.Side]SidePins
	closed    bool
}

var _ drive.MotorSink = (*Adapter)(nil)

// New creates a driver over already resolved pins.
func New(logger *slog.Logger, left, right SidePins, frequencyHz int) *Adapter {
	return &Adapter{
		logger:    logger.With("component", "motor-gpio"),
		frequency: physic.Frequency(frequencyHz) * physic.Hertz,
		sides: map[drive.Side]SidePins{
			drive.SideLeft:  left,
			drive.SideRight: right,
		},
	}
}

// Open initialises the host drivers, resolves the named pins and drives
// every line low.
func Open(logger *slog.Logger, left, right PinNames, frequencyHz int) (*Adapter, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	leftPins, err := resolve(left)
	if err != nil {
		return nil, fmt.Errorf("left side: %w", err)
	}

	rightPins, err := resolve(right)
	if err != nil {
		return nil, fmt.Errorf("right side: %w", err)
	}

	a := New(logger, leftPins, rightPins, frequencyHz)
	if err := a.ZeroOutputs(context.Background()); err != nil {
		return nil, err
	}

	return a, nil
}

// ZeroOutputs stops both sides. If a line cannot be driven the pins are
// released and the adapter is closed.
func (a *Adapter) ZeroOutputs(ctx context.Context) error {
	for _, side := range []drive.Side{drive.SideLeft, drive.SideRight} {
		if err := a.ApplyMotor(ctx, side, drive.DirectionForward, 0); err != nil {
			err = fmt.Errorf("initial %s output: %w", side, err)
			if releaseErr := a.Shutdown(ctx); releaseErr != nil {
				err = errors.Join(err, fmt.Errorf("release pins: %w", releaseErr))
			}

			return err
		}
	}

	return nil
}

func resolve(names PinNames) (SidePins, error) {
	pwm := gpioreg.ByName(names.PWM)
	if pwm == nil {
		return SidePins{}, fmt.Errorf("%w: %s", ErrPinNotFound, names.PWM)
	}

	dir := gpioreg.ByName(names.Direction)
	if dir == nil {
		return SidePins{}, fmt.Errorf("%w: %s", ErrPinNotFound, names.Direction)
	}

	return SidePins{PWM: pwm, Direction: dir}, nil
}

// ApplyMotor sets the direction line and then the duty cycle of one side.
// A zero magnitude drives the PWM line low instead of running a 0% wave.
func (a *Adapter) ApplyMotor(ctx context.Context, side drive.Side, direction drive.Direction, magnitude int) error {
	if magnitude < 0 || magnitude > maxDuty {
		return fmt.Errorf("%w: %d", ErrInvalidDuty, magnitude)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	pins, ok := a.sides[side]
	if !ok {
		return fmt.Errorf("unknown side %q", side)
	}

	level := gpio.Low
	if direction.IsSet() {
		level = gpio.High
	}

	if err := pins.Direction.Out(level); err != nil {
		return fmt.Errorf("set direction pin %s: %w", pins.Direction.Name(), err)
	}

	if magnitude == 0 {
		if err := pins.PWM.Out(gpio.Low); err != nil {
			return fmt.Errorf("clear pwm pin %s: %w", pins.PWM.Name(), err)
		}

		return nil
	}

	if err := pins.PWM.PWM(dutyFor(magnitude), a.frequency); err != nil {
		return fmt.Errorf("set pwm pin %s: %w", pins.PWM.Name(), err)
	}

	a.logger.DebugContext(ctx, "motor output applied",
		"side", side,
		"level", level,
		"duty", magnitude,
	)

	return nil
}

func dutyFor(magnitude int) gpio.Duty {
	return gpio.Duty(int64(gpio.DutyMax) * int64(magnitude) / maxDuty)
}

func (a *Adapter) Name() string {
	return "motor-gpio"
}

// Ping fails once the driver has been shut down.
func (a *Adapter) Ping(context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}

	return nil
}

// Shutdown drives every line low and halts the pins.
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}

	a.closed = true

	var errs error

	for side, pins := range a.sides {
		for _, p := range []Pin{pins.PWM, pins.Direction} {
			if err := p.Out(gpio.Low); err != nil {
				errs = errors.Join(errs, fmt.Errorf("%s pin %s: %w", side, p.Name(), err))
			}

			if err := p.Halt(); err != nil {
				errs = errors.Join(errs, fmt.Errorf("halt %s pin %s: %w", side, p.Name(), err))
			}
		}
	}

	a.logger.InfoContext(ctx, "gpio motor driver released")

	return errs
}
