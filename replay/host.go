package replay

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Bucknalla/truck-telemetry-bridge/telemetry"
)

type channelKey struct {
	name  string
	index uint32
	typ   telemetry.ValueType
}

type channelHandler struct {
	flags telemetry.ChannelFlags
	fn    telemetry.ChannelFunc
}

// Host replays recorded events into registered callbacks. It implements
// telemetry.Registrar and invokes every callback from the goroutine calling Run.
type Host struct {
	steps  []Step
	speed  float64
	loop   bool
	logger *slog.Logger

	events   map[telemetry.Event]telemetry.EventFunc
	channels map[channelKey]channelHandler

	dispatched atomic.Uint64
	skipped    atomic.Uint64
	passes     atomic.Uint64
}

// Option configures a Host
type Option func(*Host)

// WithSpeed sets the replay speed multiplier (1.0 = recorded pace, 2.0 = twice
// as fast). Zero replays as fast as possible.
func WithSpeed(speed float64) Option {
	return func(h *Host) { h.speed = speed }
}

// WithLoop restarts from the first event after the last one
func WithLoop(loop bool) Option {
	return func(h *Host) { h.loop = loop }
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHost creates a replay host for steps
func NewHost(steps []Step, opts ...Option) (*Host, error) {
	if len(steps) == 0 {
		return nil, ErrNoEvents
	}

	h := &Host{
		steps:    steps,
		speed:    1.0,
		logger:   slog.Default(),
		events:   make(map[telemetry.Event]telemetry.EventFunc),
		channels: make(map[channelKey]channelHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.speed < 0 {
		return nil, ErrInvalidSpeed
	}

	return h, nil
}

// RegisterForEvent registers fn for ev
func (h *Host) RegisterForEvent(ev telemetry.Event, fn telemetry.EventFunc) error {
	if ev == telemetry.EventInvalid {
		return fmt.Errorf("%w: %s", ErrNotSupported, ev)
	}
	if _, ok := h.events[ev]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, ev)
	}
	h.events[ev] = fn
	return nil
}

// RegisterForChannel registers fn for one channel name, index and value type
func (h *Host) RegisterForChannel(reg telemetry.ChannelRegistration, fn telemetry.ChannelFunc) error {
	key := channelKey{name: reg.Name, index: reg.Index, typ: reg.Type}
	if _, ok := h.channels[key]; ok {
		return fmt.Errorf("%w: %s (%s)", ErrAlreadyRegistered, reg.Name, reg.Type)
	}
	h.channels[key] = channelHandler{flags: reg.Flags, fn: fn}
	return nil
}

// Run replays every step, pacing by the recorded offsets, until the recording
// ends (or ctx is done when looping).
func (h *Host) Run(ctx context.Context) error {
	for {
		start := time.Now()
		restart := h.passes.Load() > 0
		for _, step := range h.steps {
			if err := h.wait(ctx, start, step.At); err != nil {
				return err
			}
			if restart && step.Event == telemetry.EventFrameStart {
				step = restarted(step)
				restart = false
			}
			h.dispatch(step)
		}
		pass := h.passes.Add(1)

		if !h.loop {
			return nil
		}
		h.logger.Debug("replay looping", "pass", pass, "events", len(h.steps))
	}
}

// restarted marks a frame start as following a timer restart. Every looped
// pass rewinds the recorded clocks, the way a game reload does.
func restarted(step Step) Step {
	if fs, ok := step.Info.(telemetry.FrameStart); ok {
		fs.Flags |= telemetry.FrameStartTimerRestart
		step.Info = fs
	}
	return step
}

func (h *Host) wait(ctx context.Context, start time.Time, at time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.speed == 0 {
		return nil
	}

	delay := time.Until(start.Add(time.Duration(float64(at) / h.speed)))
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// dispatch delivers one step the way the host contract promises: only to
// registered callbacks, and absent values only to channels that asked for them.
func (h *Host) dispatch(step Step) {
	if step.IsChannel() {
		handler, ok := h.channels[channelKey{name: step.Channel.Name, index: step.Channel.Index, typ: step.Type}]
		if !ok || (step.Value == nil && handler.flags&telemetry.ChannelFlagNoValue == 0) {
			h.skipped.Add(1)
			return
		}
		handler.fn(step.Channel, step.Value)
		h.dispatched.Add(1)
		return
	}

	fn, ok := h.events[step.Event]
	if !ok {
		h.skipped.Add(1)
		return
	}
	fn(step.Event, step.Info)
	h.dispatched.Add(1)
}

// Stats reports how many steps were delivered, skipped, and how many full
// passes completed.
func (h *Host) Stats() (dispatched, skipped, passes uint64) {
	return h.dispatched.Load(), h.skipped.Load(), h.passes.Load()
}
