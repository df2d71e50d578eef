package app

import (
	"context"
	"os"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/appstate"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/pinger"
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/shutdown"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

// appstater defines the interface for application state management
type appstater interface {
	RegisterShutdowner(shutdowner shutdown.Shutdowner)
	Quit() <-chan os.Signal
	SetStarting(ctx context.Context) error
	SetRunning(ctx context.Context) error
	IsHealthy() bool
	IsReady() bool
	StatusQuery() appstate.Status
	Shutdown(ctx context.Context) error
}

type pingerService interface {
	Register(p pinger.Pinger) error
	Start(ctx context.Context) error
	Ready() <-chan struct{}
	shutdown.Shutdowner
}

type signalHandler interface {
	HandleSignals(ctx context.Context, cancel func())
	CheckTermination(ctx context.Context) error
}

// component is a long-running part started by Run and health checked by the pinger.
type component interface {
	pinger.Pinger
	shutdown.Shutdowner
	Start(ctx context.Context) error
}

type readier interface {
	Ready() <-chan struct{}
}

type optional interface {
	PingerCritical() bool
}

type motorSink interface {
	drive.MotorSink
	pinger.Pinger
}

type servoSink interface {
	arm.ServoSink
	pinger.Pinger
}
