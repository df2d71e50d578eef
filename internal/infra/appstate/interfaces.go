package appstate

import (
	"github.com/mt-krainski/chrzaszcz-simple/internal/infra/pinger"
)

// componentHealth is the part of the pinger service AppState reads.
type componentHealth interface {
	Ready() <-chan struct{}
	HealthyQuery() bool
	AllStatsQuery() map[string]pinger.Stats
}

type healthChecker interface {
	IsHealthy() bool
}

type readyChecker interface {
	IsReady() bool
}

type statusGetter interface {
	StatusQuery() Status
}
