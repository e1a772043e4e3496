package telemetry

import (
	"fmt"
	"strings"
)

// ValueType identifies the shape of a channel or attribute value
type ValueType int

const (
	ValueTypeInvalid ValueType = iota
	ValueTypeBool
	ValueTypeS32
	ValueTypeU32
	ValueTypeU64
	ValueTypeFloat
	ValueTypeDouble
	ValueTypeFVector
	ValueTypeDVector
	ValueTypeEuler
	ValueTypeFPlacement
	ValueTypeDPlacement
	ValueTypeString
)

var valueTypeNames = map[ValueType]string{
	ValueTypeInvalid:    "none",
	ValueTypeBool:       "bool",
	ValueTypeS32:        "s32",
	ValueTypeU32:        "u32",
	ValueTypeU64:        "u64",
	ValueTypeFloat:      "float",
	ValueTypeDouble:     "double",
	ValueTypeFVector:    "fvector",
	ValueTypeDVector:    "dvector",
	ValueTypeEuler:      "euler",
	ValueTypeFPlacement: "fplacement",
	ValueTypeDPlacement: "dplacement",
	ValueTypeString:     "string",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseValueType maps a type name such as "euler" back to its ValueType
func ParseValueType(name string) (ValueType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range valueTypeNames {
		if n == name {
			return t, nil
		}
	}
	return ValueTypeInvalid, fmt.Errorf("%w: %q", ErrUnknownValueType, name)
}

// Value is a typed value delivered by the host. A nil Value means the host
// had no value to report.
type Value interface {
	Type() ValueType
}

type (
	Bool   bool
	S32    int32
	U32    uint32
	U64    uint64
	Float  float32
	Double float64
	String string
)

// FVector is a single precision 3-vector
type FVector struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// DVector is a double precision 3-vector
type DVector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Euler holds heading, pitch and roll as normalized turns in [-0.5, 0.5).
type Euler struct {
	Heading float32 `json:"heading"`
	Pitch   float32 `json:"pitch"`
	Roll    float32 `json:"roll"`
}

// Degrees converts the turn fractions to degrees.
func (e Euler) Degrees() Euler {
	return Euler{
		Heading: e.Heading * 360.0,
		Pitch:   e.Pitch * 360.0,
		Roll:    e.Roll * 360.0,
	}
}

// FPlacement is a single precision position plus orientation
type FPlacement struct {
	Position    FVector `json:"position"`
	Orientation Euler   `json:"orientation"`
}

// DPlacement is a double precision position plus orientation
type DPlacement struct {
	Position    DVector `json:"position"`
	Orientation Euler   `json:"orientation"`
}

func (Bool) Type() ValueType       { return ValueTypeBool }
func (S32) Type() ValueType        { return ValueTypeS32 }
func (U32) Type() ValueType        { return ValueTypeU32 }
func (U64) Type() ValueType        { return ValueTypeU64 }
func (Float) Type() ValueType      { return ValueTypeFloat }
func (Double) Type() ValueType     { return ValueTypeDouble }
func (String) Type() ValueType     { return ValueTypeString }
func (FVector) Type() ValueType    { return ValueTypeFVector }
func (DVector) Type() ValueType    { return ValueTypeDVector }
func (Euler) Type() ValueType      { return ValueTypeEuler }
func (FPlacement) Type() ValueType { return ValueTypeFPlacement }
func (DPlacement) Type() ValueType { return ValueTypeDPlacement }

// FormatValue renders a value for diagnostic output, e.g. "bool = true" or
// "euler = h:90.000000 p:0.000000 r:0.000000". Orientations are shown in degrees.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case nil:
		return "none"
	case Bool:
		return fmt.Sprintf("bool = %t", bool(val))
	case S32:
		return fmt.Sprintf("s32 = %d", int32(val))
	case U32:
		return fmt.Sprintf("u32 = %d", uint32(val))
	case U64:
		return fmt.Sprintf("u64 = %d", uint64(val))
	case Float:
		return fmt.Sprintf("float = %f", float32(val))
	case Double:
		return fmt.Sprintf("double = %f", float64(val))
	case FVector:
		return fmt.Sprintf("fvector = (%f,%f,%f)", val.X, val.Y, val.Z)
	case DVector:
		return fmt.Sprintf("dvector = (%f,%f,%f)", val.X, val.Y, val.Z)
	case Euler:
		d := val.Degrees()
		return fmt.Sprintf("euler = h:%f p:%f r:%f", d.Heading, d.Pitch, d.Roll)
	case FPlacement:
		d := val.Orientation.Degrees()
		return fmt.Sprintf("fplacement = (%f,%f,%f) h:%f p:%f r:%f",
			val.Position.X, val.Position.Y, val.Position.Z, d.Heading, d.Pitch, d.Roll)
	case DPlacement:
		d := val.Orientation.Degrees()
		return fmt.Sprintf("dplacement = (%f,%f,%f) h:%f p:%f r:%f",
			val.Position.X, val.Position.Y, val.Position.Z, d.Heading, d.Pitch, d.Roll)
	case String:
		return fmt.Sprintf("string = %s", string(val))
	default:
		return "unknown"
	}
}
