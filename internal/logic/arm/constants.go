package arm

const (
	// JointCount is the number of servo joints on the arm.
	JointCount = 6

	// MinTarget and MaxTarget bound every joint target, inclusive.
	// Units are servo-controller native (quarter microseconds of pulse width).
	MinTarget = 3000
	MaxTarget = 9000

	// maxDelta is the widest move that can change a joint; larger deltas
	// saturate at a limit anyway.
	maxDelta = MaxTarget - MinTarget
)

// basePose is the stowed arm position restored by a reset.
var basePose = Position{5500, 9000, 9000, 3000, 9000, 3000}
