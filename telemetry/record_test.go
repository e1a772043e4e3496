package telemetry

import (
	"strings"
	"testing"
)

func TestHeaderColumns(t *testing.T) {
	columns := strings.Split(Header, ";")
	if len(columns) != 10 {
		t.Fatalf("Expected 10 header columns, got %d", len(columns))
	}
	if columns[0] != "timestamp[us]" {
		t.Errorf("Expected first column timestamp[us], got %s", columns[0])
	}
	if columns[9] != "gear" {
		t.Errorf("Expected last column gear, got %s", columns[9])
	}
}

func TestFormatRecordDefaults(t *testing.T) {
	var s Snapshot

	expected := "0;0;0;0;---;---;---;0.000000;0.000000;0.000000;0.000000;0.000000;0;0;0;0.000000;0.000000;0.000000;0.000000;0.000000;0.000000;0"
	if got := FormatRecord(&s); got != expected {
		t.Errorf("Expected record\n%s\ngot\n%s", expected, got)
	}
}

func TestFormatRecordValues(t *testing.T) {
	s := Snapshot{
		Timestamp:               16666,
		RawRenderingTime:        20000,
		RawSimulationTime:       19000,
		RawPausedSimulationTime: 18000,
		Orientation:             Orientation{Available: true, Heading: 90, Pitch: -1.5, Roll: 0.25},
		Speed:                   10,
		Acceleration:            FVector{X: 0.5, Y: -0.25, Z: 9.75},
		RPM:                     1200,
		Gear:                    -1,
		EngineRunning:           true,
		TrailerConnected:        false,
		Placement: DPlacement{
			Position:    DVector{X: 1000.5, Y: 50.25, Z: -2000.125},
			Orientation: Euler{Heading: 0.25, Pitch: 0, Roll: -0.5},
		},
		ParkingBrake: true,
	}

	expected := "16666;20000;19000;18000;90.000000;-1.500000;0.250000;10.000000;0.500000;-0.250000;9.750000;1200.000000;-1;1;0;1000.500000;50.250000;-2000.125000;0.250000;0.000000;-0.500000;1"
	if got := FormatRecord(&s); got != expected {
		t.Errorf("Expected record\n%s\ngot\n%s", expected, got)
	}
}

func TestFormatRecordFieldCount(t *testing.T) {
	s := Snapshot{Orientation: Orientation{Available: true}}
	fields := strings.Split(FormatRecord(&s), ";")
	if len(fields) != 22 {
		t.Errorf("Expected 22 fields, got %d", len(fields))
	}
	if strings.Contains(FormatRecord(&s), "---") {
		t.Error("Available orientation should not use the placeholder")
	}
}
