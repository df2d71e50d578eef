package gpiomotor

import "errors"

var (
	// ErrPinNotFound is returned when a pin name is unknown to the host.
	ErrPinNotFound = errors.New("gpio pin not found")

	// ErrInvalidDuty is returned for a magnitude outside [0, 100].
	ErrInvalidDuty = errors.New("duty out of range")

	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("gpio motor driver closed")
)
