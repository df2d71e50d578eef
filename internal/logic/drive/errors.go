package drive

import "errors"

var (
	ErrInvalidRange      = errors.New("power out of range")
	ErrInvalidMultiplier = errors.New("side multiplier must be -1 or 1")
	ErrMotorOutput       = errors.New("motor output")
)
