package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Engine assembles independently arriving channel updates into one snapshot
// per frame and emits it to the sink and the publisher on every unpaused
// frame end.
//
// The host calls every Handler method serially from one goroutine, so the
// snapshot is not locked. Stats and SessionID may be called from anywhere.
type Engine struct {
	host      HostInfo
	sink      Sink
	publisher Publisher
	logger    *slog.Logger
	log       *slog.Logger
	newID     func() string

	snapshot Snapshot
	clock    TimestampTracker
	gate     PauseGate
	stores   [fieldCount]ChannelFunc

	session  atomic.Pointer[session]
	counters counters
}

type session struct {
	id        string
	startedAt time.Time
}

type counters struct {
	framesStarted atomic.Uint64
	records       atomic.Uint64
	suppressed    atomic.Uint64
	sinkErrors    atomic.Uint64
	publishErrors atomic.Uint64
	timestamp     atomic.Uint64
	paused        atomic.Bool
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the diagnostic logger. Records never go through it.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSessionIDGenerator replaces the random session id generator.
func WithSessionIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// NewEngine starts a telemetry session for the given host. The session fails
// to start when the API version is unsupported or no sink is available. A nil
// publisher discards odometry.
func NewEngine(info HostInfo, sink Sink, publisher Publisher, opts ...Option) (*Engine, error) {
	warnings, err := CheckHost(info)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		return nil, ErrSinkUnavailable
	}
	if publisher == nil {
		publisher = Publishers()
	}

	e := &Engine{
		host:      info,
		sink:      sink,
		publisher: publisher,
		logger:    slog.Default(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.stores = channelStores(&e.snapshot)
	e.Reset()

	e.log.Info("telemetry session initialized",
		"game", info.GameID,
		"game_version", FormatVersion(info.GameVersion))
	for _, w := range warnings {
		e.log.Warn(w, "game", info.GameID, "game_version", FormatVersion(info.GameVersion))
	}

	return e, nil
}

// Register subscribes the engine to the host's events and channels. Failing
// to register a core event is fatal; configuration and channel registrations
// are optional and unsupported channels keep their default values.
func (e *Engine) Register(r Registrar) error {
	for _, ev := range []Event{EventFrameStart, EventFrameEnd, EventPaused, EventStarted} {
		if err := r.RegisterForEvent(ev, e.handleEvent); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrEventRegistration, ev, err)
		}
	}

	if err := r.RegisterForEvent(EventConfiguration, e.handleEvent); err != nil {
		e.log.Warn("configuration events unavailable", "error", err)
	}

	for _, reg := range Registrations() {
		field := reg.Field
		fn := func(ch Channel, value Value) {
			e.FieldUpdate(field, ch, value)
		}
		if err := r.RegisterForChannel(reg, fn); err != nil {
			e.log.Debug("channel unavailable, keeping default",
				"channel", reg.Name, "type", reg.Type.String(), "error", err)
		}
	}

	return nil
}

func (e *Engine) handleEvent(ev Event, info EventInfo) {
	switch ev {
	case EventFrameStart:
		fs, ok := info.(FrameStart)
		if !ok {
			panic(fmt.Sprintf("telemetry: %s delivered %T", ev, info))
		}
		e.FrameStart(fs)
	case EventFrameEnd:
		e.FrameEnd()
	case EventPaused:
		e.Pause(true)
	case EventStarted:
		e.Pause(false)
	case EventConfiguration:
		cfg, ok := info.(Configuration)
		if !ok {
			panic(fmt.Sprintf("telemetry: %s delivered %T", ev, info))
		}
		e.Configuration(cfg)
	}
}

// FrameStart advances the continuous timestamp and copies the raw clocks.
func (e *Engine) FrameStart(info FrameStart) {
	e.clock.Advance(&e.snapshot, info)
	e.counters.framesStarted.Add(1)
	e.counters.timestamp.Store(e.snapshot.Timestamp)
}

// FrameEnd emits the header if owed, one data record, and one odometry
// message. Nothing happens while paused.
func (e *Engine) FrameEnd() {
	if e.gate.Paused() {
		e.counters.suppressed.Add(1)
		return
	}

	if e.gate.TakeHeader() {
		e.writeLine(Header)
	}
	e.writeLine(FormatRecord(&e.snapshot))
	e.counters.records.Add(1)

	e.log.Debug("about to publish", "timestamp", e.snapshot.Timestamp)
	if err := e.publisher.SendOdometry(OdometryFrom(&e.snapshot)); err != nil {
		e.counters.publishErrors.Add(1)
		e.log.Warn("publish failed", "timestamp", e.snapshot.Timestamp, "error", err)
	}
	e.publisher.SpinSome()
	e.log.Debug("spinned", "timestamp", e.snapshot.Timestamp)
}

func (e *Engine) writeLine(line string) {
	if err := e.sink.WriteLine(line); err != nil {
		e.counters.sinkErrors.Add(1)
		e.log.Warn("sink write failed", "error", err)
	}
}

// Pause handles the paused (true) and started (false) notifications.
func (e *Engine) Pause(paused bool) {
	e.gate.Set(paused)
	e.counters.paused.Store(paused)
	if paused {
		e.log.Info("telemetry paused")
	} else {
		e.log.Info("telemetry unpaused")
	}
}

// Configuration logs the configuration attributes and reprints the header
// before the next record.
func (e *Engine) Configuration(cfg Configuration) {
	e.log.Info("configuration", "id", cfg.ID, "attributes", len(cfg.Attributes))
	for _, attr := range cfg.Attributes {
		name := attr.Name
		if attr.Index != NilIndex {
			name = fmt.Sprintf("%s[%d]", attr.Name, attr.Index)
		}
		e.log.Info("configuration attribute", "id", cfg.ID, "name", name, "value", FormatValue(attr.Value))
	}
	e.gate.OweHeader()
}

// FieldUpdate stores one channel update into the snapshot. A value of the
// wrong type, or a missing value on a channel that never reports absence,
// is a host contract violation and panics.
func (e *Engine) FieldUpdate(field Field, ch Channel, value Value) {
	if field < 0 || field >= fieldCount {
		panic(fmt.Sprintf("telemetry: unknown field %d for channel %q", int(field), ch.Name))
	}
	e.stores[field](ch, value)
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	return e.snapshot
}

// Paused reports whether output is currently suppressed.
func (e *Engine) Paused() bool {
	return e.gate.Paused()
}

// SessionID identifies the current session
func (e *Engine) SessionID() string {
	return e.session.Load().id
}

// Stats returns the current session counters
func (e *Engine) Stats() Stats {
	s := e.session.Load()
	return Stats{
		SessionID:      s.id,
		StartedAt:      s.startedAt,
		Paused:         e.counters.paused.Load(),
		Timestamp:      e.counters.timestamp.Load(),
		FramesStarted:  e.counters.framesStarted.Load(),
		RecordsEmitted: e.counters.records.Load(),
		Suppressed:     e.counters.suppressed.Load(),
		SinkErrors:     e.counters.sinkErrors.Load(),
		PublishErrors:  e.counters.publishErrors.Load(),
	}
}

// Reset starts a fresh session: zeroed snapshot, paused, header owed, and a
// timestamp tracker waiting for its first frame.
func (e *Engine) Reset() {
	e.snapshot = Snapshot{}
	e.clock.Reset()
	e.gate = NewPauseGate()

	s := &session{id: e.newID(), startedAt: time.Now()}
	e.session.Store(s)
	e.log = e.logger.With("session", s.id)

	e.counters.framesStarted.Store(0)
	e.counters.records.Store(0)
	e.counters.suppressed.Store(0)
	e.counters.sinkErrors.Store(0)
	e.counters.publishErrors.Store(0)
	e.counters.timestamp.Store(0)
	e.counters.paused.Store(true)
}

// Shutdown ends the session and closes the sink when it can be closed.
func (e *Engine) Shutdown() error {
	e.log.Info("telemetry session shut down",
		"records", e.counters.records.Load(),
		"suppressed", e.counters.suppressed.Load())
	if c, ok := e.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
