package mqtt

import (
	"context"

	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/arm"
	"github.com/mt-krainski/chrzaszcz-simple/internal/logic/drive"
)

type driveCommander interface {
	ApplyDriveCommand(ctx context.Context, source string, cmd drive.Command) error
}

type armCommander interface {
	ApplyDeltasCommand(ctx context.Context, deltas []int) (arm.Position, error)
	ResetCommand(ctx context.Context) (arm.Position, error)
}
