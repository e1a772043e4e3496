package telemetry

import "fmt"

// Field identifies one tracked snapshot field
type Field int

const (
	FieldOrientation Field = iota
	FieldSpeed
	FieldAcceleration
	FieldRPM
	FieldGear
	FieldEngineRunning
	FieldTrailerConnected
	FieldPlacement
	FieldParkingBrake

	fieldCount
)

// ChannelFlags modify how the host delivers a channel
type ChannelFlags uint32

const (
	ChannelFlagNone ChannelFlags = 0
	// ChannelFlagNoValue asks the host to call the handler even when no value is available.
	ChannelFlagNoValue ChannelFlags = 1 << 1
)

// Channel names the host-side source of an update. The store handlers ignore it.
type Channel struct {
	Name  string
	Index uint32
}

// ChannelFunc receives one channel update. value is nil when the host has no value.
type ChannelFunc func(ch Channel, value Value)

// ChannelRegistration describes a channel the engine subscribes to
type ChannelRegistration struct {
	Field Field
	Name  string
	Index uint32
	Type  ValueType
	Flags ChannelFlags
}

// Channel names used by the trucking games.
const (
	ChannelWorldPlacement     = "truck.world.placement"
	ChannelSpeed              = "truck.speed"
	ChannelLinearAcceleration = "truck.local.acceleration.linear"
	ChannelEngineRPM          = "truck.engine.rpm"
	ChannelEngineEnabled      = "truck.engine.enabled"
	ChannelEngineGear         = "truck.engine.gear"
	ChannelTrailerConnected   = "trailer.connected"
	ChannelParkingBrake       = "truck.brake.parking"
)

// Registrations lists every channel the engine subscribes to, in registration order.
// The world placement channel is registered twice: once as euler with the
// no-value flag for the orientation, once as dplacement for the placement.
func Registrations() []ChannelRegistration {
	return []ChannelRegistration{
		{Field: FieldOrientation, Name: ChannelWorldPlacement, Index: NilIndex, Type: ValueTypeEuler, Flags: ChannelFlagNoValue},
		{Field: FieldSpeed, Name: ChannelSpeed, Index: NilIndex, Type: ValueTypeFloat},
		{Field: FieldAcceleration, Name: ChannelLinearAcceleration, Index: NilIndex, Type: ValueTypeFVector},
		{Field: FieldRPM, Name: ChannelEngineRPM, Index: NilIndex, Type: ValueTypeFloat},
		{Field: FieldEngineRunning, Name: ChannelEngineEnabled, Index: NilIndex, Type: ValueTypeBool},
		{Field: FieldGear, Name: ChannelEngineGear, Index: NilIndex, Type: ValueTypeS32},
		{Field: FieldTrailerConnected, Name: ChannelTrailerConnected, Index: NilIndex, Type: ValueTypeBool},
		{Field: FieldPlacement, Name: ChannelWorldPlacement, Index: NilIndex, Type: ValueTypeDPlacement},
		{Field: FieldParkingBrake, Name: ChannelParkingBrake, Index: NilIndex, Type: ValueTypeBool},
	}
}

var fieldNames = [fieldCount]string{
	FieldOrientation:      "orientation",
	FieldSpeed:            "speed",
	FieldAcceleration:     "acceleration",
	FieldRPM:              "rpm",
	FieldGear:             "gear",
	FieldEngineRunning:    "engine_running",
	FieldTrailerConnected: "trailer_connected",
	FieldPlacement:        "placement",
	FieldParkingBrake:     "parking_brake",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldNames[f]
}

// channelStores builds the per-field handlers writing into s.
func channelStores(s *Snapshot) [fieldCount]ChannelFunc {
	return [fieldCount]ChannelFunc{
		FieldOrientation:      storeOrientation(&s.Orientation),
		FieldSpeed:            storeFloat(&s.Speed),
		FieldAcceleration:     storeFVector(&s.Acceleration),
		FieldRPM:              storeFloat(&s.RPM),
		FieldGear:             storeS32(&s.Gear),
		FieldEngineRunning:    storeBool(&s.EngineRunning),
		FieldTrailerConnected: storeBool(&s.TrailerConnected),
		FieldPlacement:        storeDPlacement(&s.Placement),
		FieldParkingBrake:     storeBool(&s.ParkingBrake),
	}
}

// storeOrientation is registered with ChannelFlagNoValue, so it also runs
// when no value is available.
func storeOrientation(dst *Orientation) ChannelFunc {
	return func(ch Channel, value Value) {
		if value == nil {
			dst.Available = false
			return
		}
		e, ok := value.(Euler)
		if !ok {
			panic(contractViolation(ch, ValueTypeEuler, value))
		}
		d := e.Degrees()
		dst.Available = true
		dst.Heading = d.Heading
		dst.Pitch = d.Pitch
		dst.Roll = d.Roll
	}
}

// storeFVector zeroes the vector when no value is available.
func storeFVector(dst *FVector) ChannelFunc {
	return func(ch Channel, value Value) {
		if value == nil {
			*dst = FVector{}
			return
		}
		v, ok := value.(FVector)
		if !ok {
			panic(contractViolation(ch, ValueTypeFVector, value))
		}
		*dst = v
	}
}

func storeFloat(dst *float32) ChannelFunc {
	return func(ch Channel, value Value) {
		v, ok := value.(Float)
		if !ok {
			panic(contractViolation(ch, ValueTypeFloat, value))
		}
		*dst = float32(v)
	}
}

func storeS32(dst *int32) ChannelFunc {
	return func(ch Channel, value Value) {
		v, ok := value.(S32)
		if !ok {
			panic(contractViolation(ch, ValueTypeS32, value))
		}
		*dst = int32(v)
	}
}

func storeBool(dst *bool) ChannelFunc {
	return func(ch Channel, value Value) {
		v, ok := value.(Bool)
		if !ok {
			panic(contractViolation(ch, ValueTypeBool, value))
		}
		*dst = bool(v)
	}
}

func storeDPlacement(dst *DPlacement) ChannelFunc {
	return func(ch Channel, value Value) {
		v, ok := value.(DPlacement)
		if !ok {
			panic(contractViolation(ch, ValueTypeDPlacement, value))
		}
		*dst = v
	}
}

func contractViolation(ch Channel, want ValueType, got Value) string {
	if got == nil {
		return fmt.Sprintf("telemetry: channel %q delivered no value, want %s", ch.Name, want)
	}
	return fmt.Sprintf("telemetry: channel %q delivered %s, want %s", ch.Name, got.Type(), want)
}
