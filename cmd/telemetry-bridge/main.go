package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bucknalla/truck-telemetry-bridge/bridge"
)

// Version information - populated at build time via ldflags
var (
	Version   = "dev"     // Will be set to git tag if available, otherwise "dev"
	Commit    = "unknown" // Will be set to git commit hash
	BuildDate = "unknown" // Will be set to build timestamp
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// parseConfig layers command line flags over TELEMETRY_* environment
// variables over defaults.
func parseConfig(args []string, stderr io.Writer) (bridge.Config, bool, error) {
	config := bridge.DefaultConfig()
	if err := bridge.LoadEnv(&config); err != nil {
		return config, false, err
	}

	var showVersion bool
	fs := flag.NewFlagSet("telemetry-bridge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.BoolVar(&showVersion, "version", false, "Show version information and exit")
	fs.StringVar(&config.LogFile, "log", config.LogFile, "Record log file (truncated on start)")
	fs.StringVar(&config.ReplayFile, "replay", config.ReplayFile, "Recorded host events to replay (e.g., drive.jsonl)")
	fs.Float64Var(&config.ReplaySpeed, "replay-speed", config.ReplaySpeed, "Replay speed multiplier (1.0=recorded pace, 2.0=2x speed, 0=as fast as possible)")
	fs.BoolVar(&config.ReplayLoop, "replay-loop", config.ReplayLoop, "Loop the replay continuously (default: stop after one pass)")
	fs.DurationVar(&config.Duration, "duration", config.Duration, "How long to run (e.g., 30s, 5m, 1h). Default is until the replay ends")
	fs.StringVar(&config.SerialPort, "serial", config.SerialPort, "Serial port for odometry sentences (e.g., /dev/ttyUSB0, COM1)")
	fs.IntVar(&config.BaudRate, "baud", config.BaudRate, "Serial port baud rate")
	fs.StringVar(&config.ListenAddr, "listen", config.ListenAddr, "Address for the websocket hub and status API (e.g., :8080)")
	fs.StringVar(&config.GameID, "game", config.GameID, "Game id reported by the host (eut2, ats)")
	fs.StringVar(&config.GameVersion, "game-version", config.GameVersion, "Game version reported by the host (major.minor)")
	fs.BoolVar(&config.Quiet, "quiet", config.Quiet, "Only log warnings and errors")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "Log per-frame progress")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: telemetry-bridge [options]\n")
		fmt.Fprintf(stderr, "\nTruck Telemetry Bridge\n")
		fmt.Fprintf(stderr, "Replays recorded simulator telemetry into a record log, a serial sentence stream and a websocket hub.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return config, false, err
	}
	return config, showVersion, nil
}

func newLogger(config bridge.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case config.Debug:
		level = slog.LevelDebug
	case config.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func versionString() string {
	if Version != "dev" {
		return fmt.Sprintf("v%s", Version)
	}
	return Commit
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	config, showVersion, err := parseConfig(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	// Handle version flag
	if showVersion {
		fmt.Fprintln(stdout, versionString())
		return 0
	}

	logger := newLogger(config, stderr)
	slog.SetDefault(logger)

	if err := config.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		return 1
	}

	b, err := bridge.New(config, bridge.WithLogger(logger))
	if err != nil {
		logger.Error("unable to start telemetry session", "error", err)
		return 1
	}
	defer b.Close()

	logger.Info("telemetry bridge started",
		"version", versionString(),
		"build_date", BuildDate,
		"session", b.Engine().SessionID(),
		"log", config.LogFile)

	if err := b.Run(ctx); err != nil {
		logger.Error("telemetry bridge failed", "error", err)
		return 1
	}
	return 0
}
