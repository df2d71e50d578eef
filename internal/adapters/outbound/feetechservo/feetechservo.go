package feetechservo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
)

// rawMax is the top of the STS position range (one full turn).
const rawMax = 4095

// ErrUnknownJoint is returned for a joint without a configured servo ID.
var ErrUnknownJoint = errors.New("joint has no feetech servo id")

// group is the slice of feetech.ServoGroup the adapter needs.
type group interface {
	SetPositions(ctx context.Context, positions feetech.PositionMap) error
	EnableAll(ctx context.Context) error
	DisableAll(ctx context.Context) error
}

// Adapter drives Feetech STS bus servos. Joint targets in [3000, 9000]
// are spread linearly over the raw position range.
type Adapter struct {
	logger *slog.Logger
	mu     sync.Mutex
	group  group
	ping   func(ctx context.Context) error
	close  func() error
	ids    []int
}

var _ arm.ServoSink = (*Adapter)(nil)

// New wraps a servo group. ids maps joint index to bus ID. ping and closeFn
// may be nil.
func New(logger *slog.Logger, g group, ids []int, ping func(context.Context) error, closeFn func() error) *Adapter {
	if ping == nil {
		ping = func(context.Context) error { return nil }
	}

	if closeFn == nil {
		closeFn = func() error { return nil }
	}

	return &Adapter{
		logger: logger.With("component", "servo-feetech"),
		group:  g,
		ping:   ping,
		close:  closeFn,
		ids:    ids,
	}
}

// Open opens the bus and enables torque on every configured servo.
func Open(ctx context.Context, logger *slog.Logger, port string, baud int, ids []int) (*Adapter, error) {
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open feetech bus %s: %w", port, err)
	}

	g := feetech.NewServoGroupByIDs(bus, ids...)

	if err := g.EnableAll(ctx); err != nil {
		_ = bus.Close()

		return nil, fmt.Errorf("enable servo torque: %w", err)
	}

	ping := func(ctx context.Context) error {
		if _, err := g.Positions(ctx); err != nil {
			return fmt.Errorf("read servo positions: %w", err)
		}

		return nil
	}

	return New(logger, g, ids, ping, bus.Close), nil
}

// RawPosition converts a joint target to an STS raw position.
func RawPosition(target int) int {
	target = max(arm.MinTarget, min(arm.MaxTarget, target))

	return (target - arm.MinTarget) * rawMax / (arm.MaxTarget - arm.MinTarget)
}

func (a *Adapter) ApplyServo(ctx context.Context, joint, target int) error {
	if joint < 0 || joint >= len(a.ids) {
		return fmt.Errorf("%w: %d", ErrUnknownJoint, joint)
	}

	id := a.ids[joint]
	raw := RawPosition(target)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.group.SetPositions(ctx, feetech.PositionMap{id: raw}); err != nil {
		return fmt.Errorf("set position of servo %d: %w", id, err)
	}

	a.logger.DebugContext(ctx, "servo position sent",
		"joint", joint,
		"id", id,
		"target", target,
		"raw", raw,
	)

	return nil
}

func (a *Adapter) Name() string {
	return "servo-feetech"
}

// Ping reads back the servo positions.
func (a *Adapter) Ping(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.ping(ctx)
}

// Shutdown releases torque and closes the bus.
func (a *Adapter) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs error

	if err := a.group.DisableAll(ctx); err != nil {
		errs = errors.Join(errs, fmt.Errorf("disable servo torque: %w", err))
	}

	if err := a.close(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("close feetech bus: %w", err))
	}

	a.logger.InfoContext(ctx, "feetech bus released")

	return errs
}
