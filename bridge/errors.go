package bridge

import "errors"

// Common errors returned by the telemetry bridge
var (
	ErrMissingLogFile     = errors.New("log file must be set")
	ErrMissingReplayFile  = errors.New("replay file must be set")
	ErrInvalidReplaySpeed = errors.New("replay speed must be non-negative")
	ErrInvalidDuration    = errors.New("duration must be non-negative")
	ErrInvalidBaudRate    = errors.New("baud rate must be positive")
	ErrMissingGameID      = errors.New("game id must be set")
	ErrInvalidGameVersion = errors.New("game version must be major.minor")
)
