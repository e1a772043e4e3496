package replay

import "errors"

// Common errors returned by the replay host
var (
	ErrNoEvents          = errors.New("no events found")
	ErrOutOfOrder        = errors.New("event offset goes backwards")
	ErrOffsetTooLarge    = errors.New("event offset out of range")
	ErrMissingChannel    = errors.New("channel update without channel name")
	ErrInvalidSpeed      = errors.New("replay speed must not be negative")
	ErrAlreadyRegistered = errors.New("callback already registered")
	ErrNotSupported      = errors.New("event not supported by replay host")
)
