package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Game identifiers reported by the host
const (
	GameIDEuroTruck2     = "eut2"
	GameIDAmericanTrucks = "ats"
)

// MakeVersion packs a major.minor version the way the host does.
func MakeVersion(major, minor uint16) uint32 {
	return uint32(major)<<16 | uint32(minor)
}

// MajorVersion returns the major part of a packed version
func MajorVersion(v uint32) uint32 { return v >> 16 }

// MinorVersion returns the minor part of a packed version
func MinorVersion(v uint32) uint32 { return v & 0xffff }

// FormatVersion renders a packed version as "major.minor".
func FormatVersion(v uint32) string {
	return fmt.Sprintf("%d.%d", MajorVersion(v), MinorVersion(v))
}

// ParseVersion parses "major.minor" into a packed version.
func ParseVersion(s string) (uint32, error) {
	major, minor, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return 0, fmt.Errorf("invalid version %q: want major.minor", s)
	}
	majorNum, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid major version in %q: %w", s, err)
	}
	minorNum, err := strconv.ParseUint(minor, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid minor version in %q: %w", s, err)
	}
	return MakeVersion(uint16(majorNum), uint16(minorNum)), nil
}

// APIVersion100 is the only telemetry API version the engine speaks.
var APIVersion100 = MakeVersion(1, 0)

var gameVersions = map[string]struct{ minimal, implemented uint32 }{
	GameIDEuroTruck2:     {minimal: MakeVersion(1, 0), implemented: MakeVersion(1, 18)},
	GameIDAmericanTrucks: {minimal: MakeVersion(1, 0), implemented: MakeVersion(1, 5)},
}

// HostInfo describes the host offering a session
type HostInfo struct {
	APIVersion  uint32
	GameID      string
	GameVersion uint32
}

// CheckHost rejects unsupported API versions and returns warnings for game
// versions that may behave incorrectly.
func CheckHost(info HostInfo) ([]string, error) {
	if info.APIVersion != APIVersion100 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAPIVersion, FormatVersion(info.APIVersion))
	}

	known, ok := gameVersions[info.GameID]
	if !ok {
		return []string{"Unsupported game, some features or values might behave incorrectly"}, nil
	}

	var warnings []string
	if info.GameVersion < known.minimal {
		warnings = append(warnings, "Too old version of the game, some features might behave incorrectly")
	}
	// Future versions are fine as long as the major version is unchanged.
	if MajorVersion(info.GameVersion) > MajorVersion(known.implemented) {
		warnings = append(warnings, "Too new major version of the game, some features might behave incorrectly")
	}
	return warnings, nil
}
