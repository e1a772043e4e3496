package replay

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Bucknalla/truck-telemetry-bridge/telemetry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Helper function to create a host from inline events
func createTestHost(t *testing.T, events string, opts ...Option) *Host {
	t.Helper()
	steps, err := ReadEvents(strings.NewReader(events))
	if err != nil {
		t.Fatalf("Failed to read events: %v", err)
	}
	opts = append([]Option{WithSpeed(0), WithLogger(quietLogger())}, opts...)
	host, err := NewHost(steps, opts...)
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}
	return host
}

func createTestEngine(t *testing.T, out io.Writer) *telemetry.Engine {
	t.Helper()
	info := telemetry.HostInfo{
		APIVersion:  telemetry.APIVersion100,
		GameID:      telemetry.GameIDEuroTruck2,
		GameVersion: telemetry.MakeVersion(1, 18),
	}
	engine, err := telemetry.NewEngine(info, telemetry.NewWriterSink(out), nil,
		telemetry.WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	return engine
}

func TestNewHost(t *testing.T) {
	if _, err := NewHost(nil); !errors.Is(err, ErrNoEvents) {
		t.Errorf("Expected ErrNoEvents, got %v", err)
	}

	steps := []Step{{Event: telemetry.EventStarted}}
	if _, err := NewHost(steps, WithSpeed(-1)); !errors.Is(err, ErrInvalidSpeed) {
		t.Errorf("Expected ErrInvalidSpeed, got %v", err)
	}

	host, err := NewHost(steps)
	if err != nil {
		t.Fatalf("Failed to create host: %v", err)
	}
	if host.speed != 1.0 {
		t.Errorf("Expected default speed 1.0, got %f", host.speed)
	}
	if host.loop {
		t.Error("Loop should be disabled by default")
	}
}

func TestHostRegistration(t *testing.T) {
	host := createTestHost(t, `{"event":"started"}`)
	noop := func(telemetry.Event, telemetry.EventInfo) {}

	if err := host.RegisterForEvent(telemetry.EventInvalid, noop); !errors.Is(err, ErrNotSupported) {
		t.Errorf("Expected ErrNotSupported, got %v", err)
	}
	if err := host.RegisterForEvent(telemetry.EventStarted, noop); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := host.RegisterForEvent(telemetry.EventStarted, noop); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
	}

	// Same channel with a different type is a separate registration
	for _, reg := range telemetry.Registrations() {
		if err := host.RegisterForChannel(reg, func(telemetry.Channel, telemetry.Value) {}); err != nil {
			t.Errorf("Unexpected error registering %s (%s): %v", reg.Name, reg.Type, err)
		}
	}
	reg := telemetry.Registrations()[0]
	if err := host.RegisterForChannel(reg, func(telemetry.Channel, telemetry.Value) {}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("Expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestHostDrivesEngine(t *testing.T) {
	events := `{"event":"started"}
{"event":"channel","channel":"truck.speed","type":"float","value":10}
{"event":"channel","channel":"truck.engine.gear","type":"s32","value":3}
{"event":"channel","channel":"truck.engine.enabled","type":"bool","value":true}
{"event":"frame_start","paused_simulation_time":1000}
{"event":"frame_end"}
{"event":"frame_start","paused_simulation_time":1016}
{"event":"frame_end"}
`
	buffer := &bytes.Buffer{}
	engine := createTestEngine(t, buffer)
	host := createTestHost(t, events)

	if err := engine.Register(host); err != nil {
		t.Fatalf("Failed to register engine: %v", err)
	}
	if err := host.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buffer.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header and two records, got %d lines: %q", len(lines), lines)
	}
	if lines[0] != telemetry.Header {
		t.Errorf("Expected header first, got %s", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0;0;0;1000;---;---;---;10.000000;") {
		t.Errorf("Unexpected first record %s", lines[1])
	}
	if !strings.HasPrefix(lines[2], "16;0;0;1016;") {
		t.Errorf("Unexpected second record %s", lines[2])
	}

	dispatched, skipped, passes := host.Stats()
	if dispatched != 8 || skipped != 0 || passes != 1 {
		t.Errorf("Expected 8 dispatched, 0 skipped, 1 pass, got %d, %d, %d", dispatched, skipped, passes)
	}
}

func TestHostSkipsUndeliverableUpdates(t *testing.T) {
	// Absent speed is never delivered; absent orientation is
	events := `{"event":"started"}
{"event":"channel","channel":"truck.speed","type":"float","value":5}
{"event":"channel","channel":"truck.speed","type":"float","value":null}
{"event":"channel","channel":"truck.fuel","type":"float","value":1}
{"event":"channel","channel":"truck.world.placement","type":"euler","value":{"heading":0.25}}
{"event":"channel","channel":"truck.world.placement","type":"euler","value":null}
{"event":"frame_start"}
{"event":"frame_end"}
`
	buffer := &bytes.Buffer{}
	engine := createTestEngine(t, buffer)
	host := createTestHost(t, events)
	engine.Register(host)

	if err := host.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	snapshot := engine.Snapshot()
	if snapshot.Speed != 5 {
		t.Errorf("Expected speed to keep 5, got %f", snapshot.Speed)
	}
	if snapshot.Orientation.Available {
		t.Error("Orientation should be unavailable after an absent update")
	}
	if snapshot.Orientation.Heading != 90 {
		t.Errorf("Expected heading to keep 90 degrees, got %f", snapshot.Orientation.Heading)
	}

	_, skipped, _ := host.Stats()
	if skipped != 2 {
		t.Errorf("Expected 2 skipped updates, got %d", skipped)
	}
}

func TestHostRunCancelled(t *testing.T) {
	events := `{"at_us":0,"event":"started"}
{"at_us":60000000,"event":"paused"}
`
	host := createTestHost(t, events, WithSpeed(1))
	started := 0
	host.RegisterForEvent(telemetry.EventStarted, func(telemetry.Event, telemetry.EventInfo) { started++ })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := host.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if started != 1 {
		t.Errorf("Expected started once before cancellation, got %d", started)
	}
}

func TestHostLoop(t *testing.T) {
	host := createTestHost(t, `{"event":"frame_end"}`, WithLoop(true))

	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	host.RegisterForEvent(telemetry.EventFrameEnd, func(telemetry.Event, telemetry.EventInfo) {
		frames++
		if frames == 3 {
			cancel()
		}
	})

	if err := host.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if frames != 3 {
		t.Errorf("Expected 3 frames, got %d", frames)
	}
	if _, _, passes := host.Stats(); passes != 3 {
		t.Errorf("Expected 3 completed passes, got %d", passes)
	}
}

func TestHostLoopKeepsTimestampContinuous(t *testing.T) {
	events := `{"event":"started"}
{"event":"frame_start","paused_simulation_time":1000}
{"event":"frame_end"}
{"event":"frame_start","paused_simulation_time":1032}
{"event":"frame_end"}
`
	buffer := &bytes.Buffer{}
	engine := createTestEngine(t, buffer)
	host := createTestHost(t, events, WithLoop(true))
	if err := engine.Register(host); err != nil {
		t.Fatalf("Failed to register engine: %v", err)
	}

	// Stop after three passes of two frames each
	ctx, cancel := context.WithCancel(context.Background())
	frames := 0
	host.events[telemetry.EventFrameEnd] = func(telemetry.Event, telemetry.EventInfo) {
		engine.FrameEnd()
		frames++
		if frames == 6 {
			cancel()
		}
	}

	if err := host.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	var timestamps []uint64
	for _, line := range strings.Split(strings.TrimSuffix(buffer.String(), "\n"), "\n") {
		if line == telemetry.Header {
			continue
		}
		ts, err := strconv.ParseUint(strings.SplitN(line, ";", 2)[0], 10, 64)
		if err != nil {
			t.Fatalf("Unexpected record %q: %v", line, err)
		}
		timestamps = append(timestamps, ts)
	}
	if len(timestamps) != 6 {
		t.Fatalf("Expected three passes of records, got %v", timestamps)
	}
	for i := 1; i < len(timestamps); i++ {
		if timestamps[i] < timestamps[i-1] {
			t.Errorf("Timestamp went backwards at record %d: %d -> %d", i, timestamps[i-1], timestamps[i])
		}
	}
	// Each new pass restarts the clock, adding its first raw value
	expected := []uint64{0, 32, 1032, 1064, 2064, 2096}
	for i, want := range expected {
		if timestamps[i] != want {
			t.Errorf("Record %d: expected timestamp %d, got %d", i, want, timestamps[i])
		}
	}
}

func TestHostPacing(t *testing.T) {
	events := `{"at_us":0,"event":"started"}
{"at_us":40000,"event":"paused"}
`
	host := createTestHost(t, events, WithSpeed(2))

	start := time.Now()
	if err := host.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 20*time.Millisecond {
		t.Errorf("Expected at least 20ms at double speed, got %v", elapsed)
	}
	if elapsed > time.Second {
		t.Errorf("Replay took too long: %v", elapsed)
	}
}
