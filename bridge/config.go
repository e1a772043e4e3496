package bridge

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/Bucknalla/truck-telemetry-bridge/telemetry"
)

// Config holds all configuration options for the telemetry bridge
type Config struct {
	LogFile     string        `env:"TELEMETRY_LOG_FILE"`     // Record log, truncated on start
	ReplayFile  string        `env:"TELEMETRY_REPLAY_FILE"`  // Recorded host events to replay
	ReplaySpeed float64       `env:"TELEMETRY_REPLAY_SPEED"` // Replay speed multiplier (1.0 = recorded pace, 0 = as fast as possible)
	ReplayLoop  bool          `env:"TELEMETRY_REPLAY_LOOP"`  // Restart the replay after the last event
	Duration    time.Duration `env:"TELEMETRY_DURATION"`     // How long to run (0 = until the replay ends)
	SerialPort  string        `env:"TELEMETRY_SERIAL_PORT"`  // Serial port for odometry sentences (empty = disabled)
	BaudRate    int           `env:"TELEMETRY_BAUD_RATE"`    // Serial baud rate
	ListenAddr  string        `env:"TELEMETRY_LISTEN_ADDR"`  // Websocket hub address (empty = disabled)
	GameID      string        `env:"TELEMETRY_GAME_ID"`      // Game reported to the engine
	GameVersion string        `env:"TELEMETRY_GAME_VERSION"` // Game version as major.minor
	Quiet       bool          `env:"TELEMETRY_QUIET"`        // Only log warnings and errors
	Debug       bool          `env:"TELEMETRY_DEBUG"`        // Log per-frame progress
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		LogFile:     "telemetry.log",
		ReplaySpeed: 1.0,
		ReplayLoop:  false,
		BaudRate:    9600,
		GameID:      telemetry.GameIDEuroTruck2,
		GameVersion: "1.18",
	}
}

// LoadEnv overrides cfg with any TELEMETRY_* environment variables that are set
func LoadEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid and returns an error if not
func (c *Config) Validate() error {
	if c.LogFile == "" {
		return ErrMissingLogFile
	}
	if c.ReplayFile == "" {
		return ErrMissingReplayFile
	}
	if c.ReplaySpeed < 0.0 {
		return ErrInvalidReplaySpeed
	}
	if c.Duration < 0 {
		return ErrInvalidDuration
	}
	if c.BaudRate <= 0 {
		return ErrInvalidBaudRate
	}
	if c.GameID == "" {
		return ErrMissingGameID
	}
	if _, err := telemetry.ParseVersion(c.GameVersion); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGameVersion, err)
	}
	return nil
}

// HostInfo describes the host the replay pretends to be
func (c *Config) HostInfo() (telemetry.HostInfo, error) {
	version, err := telemetry.ParseVersion(c.GameVersion)
	if err != nil {
		return telemetry.HostInfo{}, fmt.Errorf("%w: %v", ErrInvalidGameVersion, err)
	}
	return telemetry.HostInfo{
		APIVersion:  telemetry.APIVersion100,
		GameID:      c.GameID,
		GameVersion: version,
	}, nil
}
