package arm

import "errors"

var (
	ErrArityMismatch = errors.New("joint delta count mismatch")
	ErrServoOutput   = errors.New("servo output")
)
