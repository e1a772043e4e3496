package telemetry

import "errors"

// Common errors returned by the telemetry engine
var (
	ErrUnsupportedAPIVersion = errors.New("unsupported telemetry API version")
	ErrSinkUnavailable       = errors.New("unable to initialize the log sink")
	ErrEventRegistration     = errors.New("unable to register event callbacks")
	ErrUnknownValueType      = errors.New("unknown value type")
	ErrUnknownEvent          = errors.New("unknown telemetry event")
	ErrNoWriter              = errors.New("publisher has no writer")
)
