package drive

import "time"

// Side identifies one independently driven side of the rover.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Direction is the state of a motor driver direction line.
type Direction string

const (
	// DirectionForward clears the direction line. Zero power is forward.
	DirectionForward Direction = "forward"

	// DirectionReverse sets the direction line.
	DirectionReverse Direction = "reverse"
)

// IsSet reports whether the direction line must be driven high.
func (d Direction) IsSet() bool {
	return d == DirectionReverse
}

// Command is a two-sided power request, each side in [-MaxPower, MaxPower].
type Command struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Multipliers holds the fixed polarity correction for each side (±1).
type Multipliers struct {
	Left  int `yaml:"left"`
	Right int `yaml:"right"`
}

// DefaultMultipliers returns the stock wiring compensation.
func DefaultMultipliers() Multipliers {
	return Multipliers{
		Left:  DefaultLeftMultiplier,
		Right: DefaultRightMultiplier,
	}
}

// Output is what one side of the drivetrain was last told to do.
type Output struct {
	Direction Direction `json:"direction"`
	Magnitude int       `json:"magnitude"`
}

// State is a snapshot of the drivetrain.
type State struct {
	Left          Output    `json:"left"`
	Right         Output    `json:"right"`
	LastCommandAt time.Time `json:"lastCommandAt"`
}

// toOutput splits a polarity-corrected power value into a direction and duty magnitude.
func toOutput(power int) Output {
	if power < 0 {
		return Output{Direction: DirectionReverse, Magnitude: -power}
	}

	return Output{Direction: DirectionForward, Magnitude: power}
}
