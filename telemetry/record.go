package telemetry

import "strconv"

// Header is the column header printed before the first record of every unpaused run.
const Header = "timestamp[us];raw rendering timestamp[us];raw simulation timestamp[us];raw paused simulation timestamp[us];heading[deg];pitch[deg];roll[deg];speed[m/s];rpm;gear"

// absentAngle replaces each orientation angle when the channel had no value.
const absentAngle = "---"

// FormatRecord renders one data record for s, without the trailing newline.
// Floats use six decimals, booleans 0/1, and the placement orientation is
// written in native turn units.
func FormatRecord(s *Snapshot) string {
	r := record{buf: make([]byte, 0, 256)}

	r.uint(s.Timestamp)
	r.uint(s.RawRenderingTime)
	r.uint(s.RawSimulationTime)
	r.uint(s.RawPausedSimulationTime)

	if s.Orientation.Available {
		r.float(float64(s.Orientation.Heading))
		r.float(float64(s.Orientation.Pitch))
		r.float(float64(s.Orientation.Roll))
	} else {
		r.text(absentAngle)
		r.text(absentAngle)
		r.text(absentAngle)
	}

	r.float(float64(s.Speed))
	r.float(float64(s.Acceleration.X))
	r.float(float64(s.Acceleration.Y))
	r.float(float64(s.Acceleration.Z))
	r.float(float64(s.RPM))
	r.int(int64(s.Gear))
	r.bool(s.EngineRunning)
	r.bool(s.TrailerConnected)
	r.float(s.Placement.Position.X)
	r.float(s.Placement.Position.Y)
	r.float(s.Placement.Position.Z)
	r.float(float64(s.Placement.Orientation.Heading))
	r.float(float64(s.Placement.Orientation.Pitch))
	r.float(float64(s.Placement.Orientation.Roll))
	r.bool(s.ParkingBrake)

	return string(r.buf)
}

// record appends ';'-separated fields
type record struct {
	buf []byte
}

func (r *record) sep() {
	if len(r.buf) > 0 {
		r.buf = append(r.buf, ';')
	}
}

func (r *record) uint(v uint64) {
	r.sep()
	r.buf = strconv.AppendUint(r.buf, v, 10)
}

func (r *record) int(v int64) {
	r.sep()
	r.buf = strconv.AppendInt(r.buf, v, 10)
}

func (r *record) float(v float64) {
	r.sep()
	r.buf = strconv.AppendFloat(r.buf, v, 'f', 6, 64)
}

func (r *record) bool(v bool) {
	if v {
		r.int(1)
	} else {
		r.int(0)
	}
}

func (r *record) text(s string) {
	r.sep()
	r.buf = append(r.buf, s...)
}
