package maestro

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
)

// Pololu compact protocol command bytes.
const (
	cmdSetTarget = 0x84
	cmdGetErrors = 0xA1
)

const readTimeout = 100 * time.Millisecond

var (
	// ErrUnknownJoint is returned for a joint without a configured channel.
	ErrUnknownJoint = errors.New("joint has no maestro channel")

	// ErrDeviceError is returned by Ping when the controller reports an error.
	ErrDeviceError = errors.New("maestro reported error")

	// ErrNoReply is returned by Ping when a read times out before the full reply.
	ErrNoReply = errors.New("maestro did not reply")
)

// Adapter drives a Pololu Maestro servo controller over its USB serial port.
// Targets are in quarter-microseconds, as the arm logic uses them.
type Adapter struct {
	logger   *slog.Logger
	mu       sync.Mutex
	port     io.ReadWriteCloser
	channels []int
}

var _ arm.ServoSink = (*Adapter)(nil)

// New wraps an open port. channels maps joint index to Maestro channel.
func New(logger *slog.Logger, port io.ReadWriteCloser, channels []int) *Adapter {
	return &Adapter{
		logger:   logger.With("component", "servo-maestro"),
		port:     port,
		channels: channels,
	}
}

// Open opens the serial device of the controller.
func Open(logger *slog.Logger, device string, baud int, channels []int) (*Adapter, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open maestro port %s: %w", device, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()

		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	return New(logger, port, channels), nil
}

// SetTargetFrame encodes a compact protocol Set Target command.
func SetTargetFrame(channel, target int) []byte {
	return []byte{
		cmdSetTarget,
		byte(channel),
		byte(target & 0x7F),
		byte((target >> 7) & 0x7F),
	}
}

func (a *Adapter) ApplyServo(ctx context.Context, joint, target int) error {
	if joint < 0 || joint >= len(a.channels) {
		return fmt.Errorf("%w: %d", ErrUnknownJoint, joint)
	}

	channel := a.channels[joint]

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.port.Write(SetTargetFrame(channel, target)); err != nil {
		return fmt.Errorf("write target to channel %d: %w", channel, err)
	}

	a.logger.DebugContext(ctx, "servo target sent",
		"joint", joint,
		"channel", channel,
		"target", target,
	)

	return nil
}

func (a *Adapter) Name() string {
	return "servo-maestro"
}

// Ping asks the controller for its error register; a non-zero value fails.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, err := a.port.Write([]byte{cmdGetErrors}); err != nil {
		return fmt.Errorf("write get errors: %w", err)
	}

	reply := make([]byte, 2)
	if err := readReply(ctx, a.port, reply); err != nil {
		return fmt.Errorf("read error register: %w", err)
	}

	if code := int(reply[0]) | int(reply[1])<<8; code != 0 {
		a.logger.WarnContext(ctx, "maestro error register set", "code", code)

		return fmt.Errorf("%w: 0x%04x", ErrDeviceError, code)
	}

	return nil
}

// readReply fills buf. The serial port returns (0, nil) when its read
// timeout expires, which ends the wait instead of being retried.
func readReply(ctx context.Context, r io.Reader, buf []byte) error {
	for read := 0; read < len(buf); {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Read(buf[read:])
		read += n

		if err != nil {
			return err
		}

		if n == 0 {
			return fmt.Errorf("%w: got %d of %d bytes", ErrNoReply, read, len(buf))
		}
	}

	return nil
}

// Shutdown closes the serial port. The servos hold their last targets.
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.port.Close(); err != nil {
		return fmt.Errorf("close maestro port: %w", err)
	}

	a.logger.InfoContext(ctx, "maestro port closed")

	return nil
}
