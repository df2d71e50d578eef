package mqtt

import "errors"

var (
	// ErrUnknownTopic is returned for a message on a topic the adapter does not handle.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrInvalidPayload is returned when a message body cannot be decoded.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotConnected is returned by Ping while the broker link is down.
	ErrNotConnected = errors.New("mqtt broker not connected")
)
