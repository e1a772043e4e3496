package telemetry

import "fmt"

// Event identifies a host notification
type Event int

const (
	EventInvalid Event = iota
	EventFrameStart
	EventFrameEnd
	EventPaused
	EventStarted
	EventConfiguration
)

var eventNames = map[Event]string{
	EventFrameStart:    "frame_start",
	EventFrameEnd:      "frame_end",
	EventPaused:        "paused",
	EventStarted:       "started",
	EventConfiguration: "configuration",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return "invalid"
}

// ParseEvent maps an event name such as "frame_start" to its Event
func ParseEvent(name string) (Event, error) {
	for e, n := range eventNames {
		if n == name {
			return e, nil
		}
	}
	return EventInvalid, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// EventInfo is the payload of an event: FrameStart, Configuration, or nil.
type EventInfo interface {
	eventInfo()
}

// EventFunc receives one host event
type EventFunc func(ev Event, info EventInfo)

// Registrar is the host side of the callback contract. The host invokes every
// registered callback serially on one goroutine.
type Registrar interface {
	RegisterForEvent(ev Event, fn EventFunc) error
	RegisterForChannel(reg ChannelRegistration, fn ChannelFunc) error
}

// Handler is the set of entry points an engine exposes to a host
type Handler interface {
	FrameStart(info FrameStart)
	FrameEnd()
	Pause(paused bool)
	Configuration(cfg Configuration)
	FieldUpdate(field Field, ch Channel, value Value)
}

var _ Handler = (*Engine)(nil)
