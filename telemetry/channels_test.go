package telemetry

import (
	"strings"
	"testing"
)

func expectPanic(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected panic, got none")
		}
		msg, _ := r.(string)
		if !strings.Contains(msg, contains) {
			t.Errorf("Expected panic containing %q, got %v", contains, r)
		}
	}()
	fn()
}

func TestStoreOrientation(t *testing.T) {
	var s Snapshot
	stores := channelStores(&s)
	ch := Channel{Name: ChannelWorldPlacement, Index: NilIndex}

	stores[FieldOrientation](ch, Euler{Heading: 0.25, Pitch: -0.125, Roll: 0.0625})

	if !s.Orientation.Available {
		t.Fatal("Orientation should be available after a value")
	}
	if s.Orientation.Heading != 90 {
		t.Errorf("Expected heading 90, got %f", s.Orientation.Heading)
	}
	if s.Orientation.Pitch != -45 {
		t.Errorf("Expected pitch -45, got %f", s.Orientation.Pitch)
	}
	if s.Orientation.Roll != 22.5 {
		t.Errorf("Expected roll 22.5, got %f", s.Orientation.Roll)
	}

	stores[FieldOrientation](ch, nil)

	if s.Orientation.Available {
		t.Error("Orientation should be unavailable after an absent update")
	}
	if s.Orientation.Heading != 90 {
		t.Errorf("Absent update should leave heading untouched, got %f", s.Orientation.Heading)
	}

	stores[FieldOrientation](ch, Euler{Heading: -0.5})
	if !s.Orientation.Available || s.Orientation.Heading != -180 {
		t.Errorf("Expected available heading -180, got %+v", s.Orientation)
	}
}

func TestStoreAccelerationAbsentZeros(t *testing.T) {
	var s Snapshot
	stores := channelStores(&s)
	ch := Channel{Name: ChannelLinearAcceleration, Index: NilIndex}

	stores[FieldAcceleration](ch, FVector{X: 1, Y: 2, Z: 3})
	if s.Acceleration != (FVector{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("Expected acceleration (1,2,3), got %+v", s.Acceleration)
	}

	stores[FieldAcceleration](ch, nil)
	if s.Acceleration != (FVector{}) {
		t.Errorf("Expected zero acceleration after absent update, got %+v", s.Acceleration)
	}
}

func TestStoreScalarFields(t *testing.T) {
	var s Snapshot
	stores := channelStores(&s)

	placement := DPlacement{
		Position:    DVector{X: 1000.5, Y: 12.25, Z: -300.75},
		Orientation: Euler{Heading: 0.25, Pitch: 0.01, Roll: -0.02},
	}

	stores[FieldSpeed](Channel{Name: ChannelSpeed}, Float(22.5))
	stores[FieldRPM](Channel{Name: ChannelEngineRPM}, Float(1450))
	stores[FieldGear](Channel{Name: ChannelEngineGear}, S32(-1))
	stores[FieldEngineRunning](Channel{Name: ChannelEngineEnabled}, Bool(true))
	stores[FieldTrailerConnected](Channel{Name: ChannelTrailerConnected}, Bool(true))
	stores[FieldParkingBrake](Channel{Name: ChannelParkingBrake}, Bool(true))
	stores[FieldPlacement](Channel{Name: ChannelWorldPlacement}, placement)

	if s.Speed != 22.5 {
		t.Errorf("Expected speed 22.5, got %f", s.Speed)
	}
	if s.RPM != 1450 {
		t.Errorf("Expected rpm 1450, got %f", s.RPM)
	}
	if s.Gear != -1 {
		t.Errorf("Expected gear -1, got %d", s.Gear)
	}
	if !s.EngineRunning || !s.TrailerConnected || !s.ParkingBrake {
		t.Errorf("Expected all flags set, got engine=%t trailer=%t brake=%t",
			s.EngineRunning, s.TrailerConnected, s.ParkingBrake)
	}
	if s.Placement != placement {
		t.Errorf("Expected placement %+v, got %+v", placement, s.Placement)
	}

	stores[FieldParkingBrake](Channel{Name: ChannelParkingBrake}, Bool(false))
	if s.ParkingBrake {
		t.Error("Parking brake should be released")
	}
}

func TestStoreContractViolations(t *testing.T) {
	var s Snapshot
	stores := channelStores(&s)

	t.Run("missing float", func(t *testing.T) {
		expectPanic(t, "delivered no value", func() {
			stores[FieldSpeed](Channel{Name: ChannelSpeed}, nil)
		})
	})
	t.Run("wrong type", func(t *testing.T) {
		expectPanic(t, "delivered s32, want float", func() {
			stores[FieldRPM](Channel{Name: ChannelEngineRPM}, S32(5))
		})
	})
	t.Run("missing placement", func(t *testing.T) {
		expectPanic(t, "want dplacement", func() {
			stores[FieldPlacement](Channel{Name: ChannelWorldPlacement}, nil)
		})
	})
	t.Run("orientation wrong type", func(t *testing.T) {
		expectPanic(t, "want euler", func() {
			stores[FieldOrientation](Channel{Name: ChannelWorldPlacement}, Float(1))
		})
	})
}

func TestRegistrations(t *testing.T) {
	regs := Registrations()
	if len(regs) != int(fieldCount) {
		t.Fatalf("Expected %d registrations, got %d", fieldCount, len(regs))
	}

	seen := make(map[Field]bool)
	for _, reg := range regs {
		if seen[reg.Field] {
			t.Errorf("Field %s registered twice", reg.Field)
		}
		seen[reg.Field] = true

		noValue := reg.Flags&ChannelFlagNoValue != 0
		if noValue != (reg.Field == FieldOrientation) {
			t.Errorf("Unexpected no-value flag %t for %s", noValue, reg.Field)
		}
	}
}

func TestFieldString(t *testing.T) {
	if FieldParkingBrake.String() != "parking_brake" {
		t.Errorf("Expected parking_brake, got %s", FieldParkingBrake.String())
	}
	if Field(99).String() != "field(99)" {
		t.Errorf("Expected field(99), got %s", Field(99).String())
	}
}
