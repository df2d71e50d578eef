package httpserver

import (
	"context"
	"time"

	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/appstate"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/watchdog"
)

type appstater interface {
	IsHealthy() bool
	IsReady() bool
	StatusQuery() appstate.Status
}

type driveController interface {
	ApplyDriveCommand(ctx context.Context, source string, cmd drive.Command) error
	StateQuery() drive.State
}

type armController interface {
	ApplyDeltasCommand(ctx context.Context, deltas []int) (arm.Position, error)
	ResetCommand(ctx context.Context) (arm.Position, error)
	PositionQuery() arm.Position
}

type watchdogReporter interface {
	TripsQuery() uint64
	ConfigQuery() watchdog.Config
}

type clock interface {
	Now() time.Time
}
