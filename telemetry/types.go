package telemetry

import "time"

// Orientation is the truck heading, pitch and roll in degrees. When Available
// is false the angles hold whatever was last stored and are not meaningful.
type Orientation struct {
	Available bool    `json:"available"`
	Heading   float32 `json:"heading"`
	Pitch     float32 `json:"pitch"`
	Roll      float32 `json:"roll"`
}

// Snapshot is the combined telemetry state for the current frame
type Snapshot struct {
	Timestamp               uint64 `json:"timestamp"` // continuous output clock, microseconds
	RawRenderingTime        uint64 `json:"raw_rendering_time"`
	RawSimulationTime       uint64 `json:"raw_simulation_time"`
	RawPausedSimulationTime uint64 `json:"raw_paused_simulation_time"`

	Orientation Orientation `json:"orientation"`

	Speed            float32    `json:"speed"` // m/s
	Acceleration     FVector    `json:"acceleration"`
	RPM              float32    `json:"rpm"`
	Gear             int32      `json:"gear"`
	EngineRunning    bool       `json:"engine_running"`
	TrailerConnected bool       `json:"trailer_connected"`
	Placement        DPlacement `json:"placement"` // orientation in native turn units
	ParkingBrake     bool       `json:"parking_brake"`
}

// FrameStartFlags carries the host's frame start flag bits
type FrameStartFlags uint32

const (
	// FrameStartTimerRestart is set when the host restarted its timers, e.g. after a load.
	FrameStartTimerRestart FrameStartFlags = 1 << 0
)

// TimerRestarted reports whether the restart bit is set.
func (f FrameStartFlags) TimerRestarted() bool {
	return f&FrameStartTimerRestart != 0
}

// FrameStart is the information delivered with a frame start notification.
// All times are in microseconds.
type FrameStart struct {
	Flags                FrameStartFlags `json:"flags"`
	RenderTime           uint64          `json:"render_time"`
	SimulationTime       uint64          `json:"simulation_time"`
	PausedSimulationTime uint64          `json:"paused_simulation_time"`
}

// NilIndex marks a value that is not part of an indexed array.
const NilIndex = ^uint32(0)

// NamedValue is one configuration attribute
type NamedValue struct {
	Name  string
	Index uint32
	Value Value
}

// Configuration is the information delivered with a configuration event
type Configuration struct {
	ID         string
	Attributes []NamedValue
}

func (FrameStart) eventInfo()    {}
func (Configuration) eventInfo() {}

// Stats is a point-in-time view of engine activity
type Stats struct {
	SessionID      string    `json:"session_id"`
	StartedAt      time.Time `json:"started_at"`
	Paused         bool      `json:"paused"`
	Timestamp      uint64    `json:"timestamp"`
	FramesStarted  uint64    `json:"frames_started"`
	RecordsEmitted uint64    `json:"records_emitted"`
	Suppressed     uint64    `json:"suppressed"`
	SinkErrors     uint64    `json:"sink_errors"`
	PublishErrors  uint64    `json:"publish_errors"`
}
