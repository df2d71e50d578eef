package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/inbound/mqtt"
	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/outbound/feetechservo"
	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/outbound/gpiomotor"
	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/outbound/logsink"
	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/outbound/maestro"
	"github.com/mt-krainski/chrzaszcz-simple/internal/adapters/outbound/streamer"
	"github.com/mt-krainski/chrzaszcz-simple/internal/config"
	"github.com/mt-krainski/chrzaszcz-simple/internal/httpserver"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/clock"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/shutdown"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/watchdog"
)

const startupTimeout = 10 * time.Second

var ErrStartupTimeout = errors.New("components not ready before startup timeout")

type App struct {
	logger     *slog.Logger
	appState   appstater
	pingers    pingerService
	signals    signalHandler
	motor      motorSink
	servo      servoSink
	drive      *drive.Service
	arm        *arm.Service
	http       *httpserver.Server
	components []component
}

// New creates a new application instance with all dependencies wired.
// Hardware is opened here so a missing device fails before anything starts.
func New(
	ctx context.Context,
	logger *slog.Logger,
	cfg *config.Config,
	appState appstater,
	pingers pingerService,
) (*App, error) {
	motor, err := newMotorSink(logger, cfg)
	if err != nil {
		return nil, err
	}

	servo, err := newServoSink(ctx, logger, cfg)
	if err != nil {
		return nil, errors.Join(err, closeSink(ctx, motor))
	}

	c := clock.New()

	driveSvc, err := drive.New(logger.With("component", "drive"), motor, c, cfg.Hardware.Multipliers)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create drive service: %w", err), closeSink(ctx, motor), closeSink(ctx, servo))
	}

	armSvc := arm.New(logger.With("component", "arm"), servo)

	watchdogSvc, err := watchdog.New(logger.With("component", "command-watchdog"), driveSvc, c, cfg.Watchdog)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("create watchdog: %w", err), closeSink(ctx, motor), closeSink(ctx, servo))
	}

	httpSrv := httpserver.New(logger, httpserver.Deps{
		AppState: appState,
		Drive:    driveSvc,
		Arm:      armSvc,
		Watchdog: watchdogSvc,
		Clock:    c,
	}, cfg.HTTPPort)

	// start order; shutdown runs in reverse so ingress stops first
	components := []component{watchdogSvc}

	if len(cfg.VideoCommand) > 0 {
		components = append(components, streamer.New(logger, cfg.VideoCommand))
	}

	if cfg.MQTT.Enabled() {
		components = append(components, mqtt.New(logger, mqtt.Config{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, driveSvc, armSvc))
	}

	components = append(components, httpSrv, httpserver.NewMetricsServer(logger, cfg.MetricsPort))

	return &App{
		logger:     logger,
		appState:   appState,
		pingers:    pingers,
		signals:    shutdown.New(logger, appState, cfg.TerminationFile),
		motor:      motor,
		servo:      servo,
		drive:      driveSvc,
		arm:        armSvc,
		http:       httpSrv,
		components: components,
	}, nil
}

func newMotorSink(logger *slog.Logger, cfg *config.Config) (motorSink, error) {
	if cfg.MotorDriver != config.MotorDriverGPIO {
		return logsink.New(logger, "motor-log"), nil
	}

	layout := cfg.Hardware.Motors

	sink, err := gpiomotor.Open(logger,
		gpiomotor.PinNames{PWM: layout.Left.PWM, Direction: layout.Left.Direction},
		gpiomotor.PinNames{PWM: layout.Right.PWM, Direction: layout.Right.Direction},
		layout.PWMFrequencyHz,
	)
	if err != nil {
		return nil, fmt.Errorf("open motor driver: %w", err)
	}

	return sink, nil
}

func newServoSink(ctx context.Context, logger *slog.Logger, cfg *config.Config) (servoSink, error) {
	switch cfg.ServoDriver {
	case config.ServoDriverMaestro:
		sink, err := maestro.Open(logger, cfg.ServoPort, cfg.ServoBaud, cfg.Hardware.Servos.Channels)
		if err != nil {
			return nil, fmt.Errorf("open servo controller: %w", err)
		}

		return sink, nil
	case config.ServoDriverFeetech:
		sink, err := feetechservo.Open(ctx, logger, cfg.ServoPort, cfg.ServoBaud, cfg.Hardware.Servos.IDs)
		if err != nil {
			return nil, fmt.Errorf("open servo bus: %w", err)
		}

		return sink, nil
	default:
		return logsink.New(logger, "servo-log"), nil
	}
}

func closeSink(ctx context.Context, sink any) error {
	if s, ok := sink.(shutdown.Shutdowner); ok {
		return s.Shutdown(ctx)
	}

	return nil
}

// HTTPServer exposes the command surface, mainly to find its bound address.
func (a *App) HTTPServer() *httpserver.Server {
	return a.http
}

// Run starts every component and blocks until a termination signal or
// cancellation of originCtx, then shuts everything down.
func (a *App) Run(originCtx context.Context) error {
	if err := a.signals.CheckTermination(originCtx); err != nil {
		return errors.Join(fmt.Errorf("check termination: %w", err), closeSink(originCtx, a.motor), closeSink(originCtx, a.servo))
	}

	if err := a.appState.SetStarting(originCtx); err != nil {
		return fmt.Errorf("set starting application state: %w", err)
	}

	ctx, cancel := context.WithCancel(originCtx)
	defer cancel()

	go a.signals.HandleSignals(ctx, cancel)

	startErr := a.start(ctx)
	if startErr == nil {
		if err := a.appState.SetRunning(ctx); err != nil {
			startErr = fmt.Errorf("set running application state: %w", err)
		}
	}

	if startErr == nil {
		a.logger.InfoContext(ctx, "rover controller running")
		<-ctx.Done()
	}

	// loops started with ctx must exit before their Shutdown can return
	cancel()

	a.logger.InfoContext(originCtx, "shutting down rover controller")

	if err := a.appState.Shutdown(originCtx); err != nil {
		return errors.Join(startErr, fmt.Errorf("shutdown application: %w", err))
	}

	return startErr
}

// start brings components up in dependency order and registers each for
// shutdown as soon as it is running. The pinger starts once the rest are
// ready so its first round sees them healthy.
func (a *App) start(ctx context.Context) error {
	for _, sink := range []any{a.motor, a.servo} {
		if s, ok := sink.(shutdown.Shutdowner); ok {
			a.appState.RegisterShutdowner(s)
		}
	}

	// registered after the sinks so the motors are zeroed before they close
	a.appState.RegisterShutdowner(a.drive)

	if err := a.pingers.Register(a.motor); err != nil {
		return fmt.Errorf("register pinger: %w", err)
	}

	if err := a.pingers.Register(a.servo); err != nil {
		return fmt.Errorf("register pinger: %w", err)
	}

	if _, err := a.arm.ResetCommand(ctx); err != nil {
		a.logger.ErrorContext(ctx, "failed to move arm to base pose", "reason", err)
	}

	readyChans := make([]<-chan struct{}, 0, len(a.components))

	for _, c := range a.components {
		started, err := a.startComponent(ctx, c)
		if err != nil {
			return err
		}

		if r, ok := c.(readier); ok && started {
			readyChans = append(readyChans, r.Ready())
		}
	}

	if err := a.waitReady(ctx, readyChans...); err != nil {
		return err
	}

	if err := a.pingers.Start(ctx); err != nil {
		return fmt.Errorf("start %s: %w", a.pingers.Name(), err)
	}

	a.appState.RegisterShutdowner(a.pingers)

	return a.waitReady(ctx, a.pingers.Ready())
}

func (a *App) waitReady(ctx context.Context, chans ...<-chan struct{}) error {
	timer := time.NewTimer(startupTimeout)
	defer timer.Stop()

	select {
	case <-allChannelsClose(ctx, a.logger, chans...):
		return nil
	case <-timer.C:
		return ErrStartupTimeout
	case <-ctx.Done():
		return fmt.Errorf("startup interrupted: %w", ctx.Err())
	}
}

// startComponent starts c and registers it for shutdown and health pings.
// Optional components that fail to start are kept registered so their
// failure shows up in the status report.
func (a *App) startComponent(ctx context.Context, c component) (bool, error) {
	name := c.Name()

	startErr := c.Start(ctx)
	if startErr != nil {
		o, ok := c.(optional)
		if !ok || o.PingerCritical() {
			return false, fmt.Errorf("start %s: %w", name, startErr)
		}

		a.logger.WarnContext(ctx, "optional component failed to start",
			"component", name,
			"reason", startErr,
		)
	}

	a.appState.RegisterShutdowner(c)

	if err := a.pingers.Register(c); err != nil {
		return false, fmt.Errorf("register pinger: %w", err)
	}

	if startErr == nil {
		a.logger.DebugContext(ctx, "component started", "component", name)
	}

	return startErr == nil, nil
}

// allChannelsClose returns a channel that is closed once every input
// channel is closed.
func allChannelsClose(ctx context.Context, logger *slog.Logger, chans ...<-chan struct{}) <-chan struct{} {
	out := make(chan struct{})

	go func() {
		defer close(out)

		for i, ch := range chans {
			select {
			case <-ch:
			case <-ctx.Done():
				logger.DebugContext(ctx, "context done while waiting for readiness", "remaining", len(chans)-i)
				<-ch
			}
		}
	}()

	return out
}
