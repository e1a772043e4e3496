package telemetry

// TimestampTracker converts the host's paused simulation time into a
// continuous output clock that survives timer restarts.
type TimestampTracker struct {
	lastRaw uint64
	seen    bool
}

// Advance applies one frame start to the snapshot and returns the delta
// added to its timestamp. Arithmetic wraps like the host's unsigned clock.
func (t *TimestampTracker) Advance(s *Snapshot, info FrameStart) uint64 {
	switch {
	case !t.seen:
		// Assume time started just now.
		t.seen = true
		t.lastRaw = info.PausedSimulationTime
	case info.Flags.TimerRestarted():
		// The whole new raw value counts as elapsed time.
		t.lastRaw = 0
	}

	delta := info.PausedSimulationTime - t.lastRaw
	s.Timestamp += delta
	t.lastRaw = info.PausedSimulationTime

	s.RawRenderingTime = info.RenderTime
	s.RawSimulationTime = info.SimulationTime
	s.RawPausedSimulationTime = info.PausedSimulationTime

	return delta
}

// Reset forgets the last observed raw time so the next frame counts as the first.
func (t *TimestampTracker) Reset() {
	t.lastRaw = 0
	t.seen = false
}
