// Package replay drives a telemetry engine from a recorded stream of host
// events, one JSON object per line:
//
//	{"at_us":0,"event":"started"}
//	{"at_us":10,"event":"channel","channel":"truck.speed","type":"float","value":12.5}
//	{"at_us":16,"event":"frame_start","paused_simulation_time":1000}
//	{"at_us":20,"event":"frame_end"}
//
// A channel value of null means the host had no value for that channel.
package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/Bucknalla/truck-telemetry-bridge/telemetry"
)

// eventChannel marks a channel update line
const eventChannel = "channel"

// maxOffsetMicros is the largest at_us that fits a time.Duration
const maxOffsetMicros = uint64(math.MaxInt64 / time.Microsecond)

// Step is one recorded host callback
type Step struct {
	At      time.Duration
	Event   telemetry.Event // EventInvalid for channel updates
	Info    telemetry.EventInfo
	Channel telemetry.Channel
	Type    telemetry.ValueType
	Value   telemetry.Value
}

// IsChannel reports whether the step is a channel update
func (s Step) IsChannel() bool {
	return s.Event == telemetry.EventInvalid
}

type line struct {
	AtMicros uint64 `json:"at_us"`
	Event    string `json:"event"`

	Flags                uint32 `json:"flags"`
	Restart              bool   `json:"restart"`
	RenderTime           uint64 `json:"render_time"`
	SimulationTime       uint64 `json:"simulation_time"`
	PausedSimulationTime uint64 `json:"paused_simulation_time"`

	Channel string          `json:"channel"`
	Index   *uint32         `json:"index"`
	Type    string          `json:"type"`
	Value   json.RawMessage `json:"value"`

	ID         string      `json:"id"`
	Attributes []attribute `json:"attributes"`
}

type attribute struct {
	Name  string          `json:"name"`
	Index *uint32         `json:"index"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// ReadEventFile reads and parses a recorded event file
func ReadEventFile(filename string) ([]Step, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open event file %s: %w", filename, err)
	}
	defer file.Close()

	steps, err := ReadEvents(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event file %s: %w", filename, err)
	}
	return steps, nil
}

// ReadEvents parses recorded events from r. Blank lines and lines starting
// with '#' are skipped. Offsets must not go backwards.
func ReadEvents(r io.Reader) ([]Step, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var steps []Step
	var last time.Duration
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		var l line
		if err := json.Unmarshal(text, &l); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		step, err := l.step()
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if step.At < last {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrOutOfOrder)
		}
		last = step.At
		steps = append(steps, step)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(steps) == 0 {
		return nil, ErrNoEvents
	}
	return steps, nil
}

func (l line) step() (Step, error) {
	if l.AtMicros > maxOffsetMicros {
		return Step{}, fmt.Errorf("%w: %d us", ErrOffsetTooLarge, l.AtMicros)
	}
	step := Step{At: time.Duration(l.AtMicros) * time.Microsecond}

	if l.Event == eventChannel {
		if l.Channel == "" {
			return Step{}, ErrMissingChannel
		}
		vt, err := telemetry.ParseValueType(l.Type)
		if err != nil {
			return Step{}, err
		}
		value, err := decodeValue(vt, l.Value)
		if err != nil {
			return Step{}, fmt.Errorf("channel %s: %w", l.Channel, err)
		}
		step.Channel = telemetry.Channel{Name: l.Channel, Index: index(l.Index)}
		step.Type = vt
		step.Value = value
		return step, nil
	}

	ev, err := telemetry.ParseEvent(l.Event)
	if err != nil {
		return Step{}, err
	}
	step.Event = ev

	switch ev {
	case telemetry.EventFrameStart:
		flags := telemetry.FrameStartFlags(l.Flags)
		if l.Restart {
			flags |= telemetry.FrameStartTimerRestart
		}
		step.Info = telemetry.FrameStart{
			Flags:                flags,
			RenderTime:           l.RenderTime,
			SimulationTime:       l.SimulationTime,
			PausedSimulationTime: l.PausedSimulationTime,
		}
	case telemetry.EventConfiguration:
		cfg := telemetry.Configuration{ID: l.ID}
		for _, a := range l.Attributes {
			vt, err := telemetry.ParseValueType(a.Type)
			if err != nil {
				return Step{}, fmt.Errorf("attribute %s: %w", a.Name, err)
			}
			value, err := decodeValue(vt, a.Value)
			if err != nil {
				return Step{}, fmt.Errorf("attribute %s: %w", a.Name, err)
			}
			cfg.Attributes = append(cfg.Attributes, telemetry.NamedValue{
				Name:  a.Name,
				Index: index(a.Index),
				Value: value,
			})
		}
		step.Info = cfg
	}

	return step, nil
}

func index(i *uint32) uint32 {
	if i == nil {
		return telemetry.NilIndex
	}
	return *i
}

// decodeValue decodes raw as a value of type vt. An empty or null raw value
// decodes to nil.
func decodeValue(vt telemetry.ValueType, raw json.RawMessage) (telemetry.Value, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	switch vt {
	case telemetry.ValueTypeBool:
		return decodeAs[telemetry.Bool](raw)
	case telemetry.ValueTypeS32:
		return decodeAs[telemetry.S32](raw)
	case telemetry.ValueTypeU32:
		return decodeAs[telemetry.U32](raw)
	case telemetry.ValueTypeU64:
		return decodeAs[telemetry.U64](raw)
	case telemetry.ValueTypeFloat:
		return decodeAs[telemetry.Float](raw)
	case telemetry.ValueTypeDouble:
		return decodeAs[telemetry.Double](raw)
	case telemetry.ValueTypeFVector:
		return decodeAs[telemetry.FVector](raw)
	case telemetry.ValueTypeDVector:
		return decodeAs[telemetry.DVector](raw)
	case telemetry.ValueTypeEuler:
		return decodeAs[telemetry.Euler](raw)
	case telemetry.ValueTypeFPlacement:
		return decodeAs[telemetry.FPlacement](raw)
	case telemetry.ValueTypeDPlacement:
		return decodeAs[telemetry.DPlacement](raw)
	case telemetry.ValueTypeString:
		return decodeAs[telemetry.String](raw)
	default:
		return nil, fmt.Errorf("%w: %s", telemetry.ErrUnknownValueType, vt)
	}
}

func decodeAs[T telemetry.Value](raw json.RawMessage) (telemetry.Value, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
