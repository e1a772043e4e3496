// Package bridge wires a replayed telemetry host, the record log, and the
// downstream publishers into one runnable application.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.bug.st/serial"

	"github.com/Bucknalla/truck-telemetry-bridge/replay"
	"github.com/Bucknalla/truck-telemetry-bridge/telemetry"
	"github.com/Bucknalla/truck-telemetry-bridge/web"
)

// PortOpener opens the serial device odometry sentences are written to
type PortOpener func(name string, mode *serial.Mode) (io.WriteCloser, error)

func openSerialPort(name string, mode *serial.Mode) (io.WriteCloser, error) {
	return serial.Open(name, mode)
}

// Bridge is one configured telemetry session
type Bridge struct {
	config Config
	logger *slog.Logger

	sink     *telemetry.FileSink
	engine   *telemetry.Engine
	host     *replay.Host
	hub      *web.Hub
	port     io.WriteCloser
	listener net.Listener
	server   *http.Server
	served   bool
}

// Option configures a Bridge
type Option func(*options)

type options struct {
	logger   *slog.Logger
	openPort PortOpener
}

// WithLogger sets the diagnostic logger shared by every component
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPortOpener replaces serial.Open
func WithPortOpener(open PortOpener) Option {
	return func(o *options) {
		if open != nil {
			o.openPort = open
		}
	}
}

// New validates cfg, reads the replay file, opens the record log and the
// configured publishers, and registers the engine with the replay host.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	o := options{logger: slog.Default(), openPort: openSerialPort}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	info, err := cfg.HostInfo()
	if err != nil {
		return nil, err
	}

	steps, err := replay.ReadEventFile(cfg.ReplayFile)
	if err != nil {
		return nil, err
	}

	b := &Bridge{config: cfg, logger: o.logger}

	b.host, err = replay.NewHost(steps,
		replay.WithSpeed(cfg.ReplaySpeed),
		replay.WithLoop(cfg.ReplayLoop),
		replay.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}

	b.sink, err = telemetry.OpenFileSink(cfg.LogFile)
	if err != nil {
		return nil, err
	}

	var publishers []telemetry.Publisher
	if cfg.SerialPort != "" {
		mode := &serial.Mode{
			BaudRate: cfg.BaudRate,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
		b.port, err = o.openPort(cfg.SerialPort, mode)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.SerialPort, err)
		}
		publishers = append(publishers, telemetry.NewSentencePublisher(b.port, o.logger))
		o.logger.Info("opened serial port", "port", cfg.SerialPort, "baud", cfg.BaudRate)
	}
	if cfg.ListenAddr != "" {
		b.listener, err = net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
		}
		b.hub = web.NewHub(web.WithLogger(o.logger))
		publishers = append(publishers, b.hub)
	}

	b.engine, err = telemetry.NewEngine(info, b.sink, telemetry.Publishers(publishers...),
		telemetry.WithLogger(o.logger))
	if err != nil {
		b.Close()
		return nil, err
	}
	if err := b.engine.Register(b.host); err != nil {
		b.Close()
		return nil, err
	}

	if b.hub != nil {
		b.hub.SetSource(b.engine)
		b.server = &http.Server{
			Handler:      b.hub.Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
	}

	return b, nil
}

// Engine returns the telemetry engine
func (b *Bridge) Engine() *telemetry.Engine {
	return b.engine
}

// Addr returns the address the websocket hub listens on, or nil when disabled
func (b *Bridge) Addr() net.Addr {
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// Run replays the recording until it ends, the configured duration elapses,
// or ctx is done. Stopping early is not an error.
func (b *Bridge) Run(ctx context.Context) error {
	if b.config.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.Duration)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	serveErr := make(chan error, 1)
	if b.server != nil {
		b.served = true
		go b.hub.Run(ctx)
		go func() {
			if err := b.server.Serve(b.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()
		b.logger.Info("websocket hub listening", "addr", b.listener.Addr().String())
	} else {
		close(serveErr)
	}

	b.logger.Info("starting replay",
		"file", b.config.ReplayFile,
		"speed", b.config.ReplaySpeed,
		"loop", b.config.ReplayLoop)

	err := b.host.Run(ctx)
	dispatched, skipped, passes := b.host.Stats()
	b.logger.Info("replay finished", "dispatched", dispatched, "skipped", skipped, "passes", passes)

	if b.server != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		b.server.Shutdown(shutdownCtx)
	}
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-serveErr
}

// Close ends the session and releases the log file and serial port
func (b *Bridge) Close() error {
	var errs []error
	if b.engine != nil {
		errs = append(errs, b.engine.Shutdown())
	} else if b.sink != nil {
		errs = append(errs, b.sink.Close())
	}
	if b.port != nil {
		errs = append(errs, b.port.Close())
	}
	if b.listener != nil && !b.served {
		errs = append(errs, b.listener.Close())
	}
	return errors.Join(errs...)
}
