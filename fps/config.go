package fps

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/arloliu/go-fps/logger"
	"github.com/arloliu/go-fps/transport"
)

// Default session parameters.
const (
	DefaultPortName         = "/dev/ttyAMA0"
	DefaultBaudRate         = 9600
	DefaultReadTimeout      = 2 * time.Second
	DefaultSettleInterval   = 100 * time.Millisecond
	DefaultBaudChangeSettle = 500 * time.Millisecond
	DefaultMaxDrainRounds   = 1024
	DefaultReadChunkSize    = 4096
)

// Limits enforced by the options.
const (
	MaxSettleInterval = 10 * time.Second
	MaxReadTimeout    = time.Minute
	MaxDrainRounds    = 1 << 20
)

// Template database geometry of the GT-511C3.
const (
	// DatabaseSize is the number of template slots. Valid IDs are 0..DatabaseSize-1.
	DatabaseSize = 200
	// IdentifyNotFound is what Identify returns when no template matches.
	IdentifyNotFound = DatabaseSize
)

// SupportedBaudRates lists the UART speeds the sensor accepts.
var SupportedBaudRates = []int{9600, 19200, 38400, 57600, 115200}

// IsSupportedBaudRate reports whether baud is one of SupportedBaudRates.
func IsSupportedBaudRate(baud int) bool {
	return slices.Contains(SupportedBaudRates, baud)
}

// Config holds the connection parameters of a Sensor.
type Config struct {
	portName string
	baudRate int

	// readTimeout bounds a single blocking read on the port.
	readTimeout time.Duration

	// settleInterval is the wait between writing a request and polling for
	// the response, and between drain rounds.
	settleInterval time.Duration
	// baudChangeSettle is the wait around a baud rate switch.
	baudChangeSettle time.Duration

	maxDrainRounds int
	readChunkSize  int

	opener transport.Opener
	logger logger.Logger
}

// NewConfig creates a sensor configuration for portName. An empty portName
// selects DefaultPortName.
//
// opts are functional options applied in order; see With* functions.
func NewConfig(portName string, opts ...Option) (*Config, error) {
	if portName == "" {
		portName = DefaultPortName
	}

	cfg := &Config{
		portName:         portName,
		baudRate:         DefaultBaudRate,
		readTimeout:      DefaultReadTimeout,
		settleInterval:   DefaultSettleInterval,
		baudChangeSettle: DefaultBaudChangeSettle,
		maxDrainRounds:   DefaultMaxDrainRounds,
		readChunkSize:    DefaultReadChunkSize,
		opener:           transport.OpenSerial,
		logger:           logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// PortName returns the serial device name.
func (cfg *Config) PortName() string { return cfg.portName }

// BaudRate returns the initial baud rate.
func (cfg *Config) BaudRate() int { return cfg.baudRate }

// ReadTimeout returns the blocking read timeout of the port.
func (cfg *Config) ReadTimeout() time.Duration { return cfg.readTimeout }

// SettleInterval returns the wait between a request and its response poll.
func (cfg *Config) SettleInterval() time.Duration { return cfg.settleInterval }

// BaudChangeSettle returns the wait used around a baud rate change.
func (cfg *Config) BaudChangeSettle() time.Duration { return cfg.baudChangeSettle }

// MaxDrainRounds returns the upper bound of drain rounds after an ACK.
func (cfg *Config) MaxDrainRounds() int { return cfg.maxDrainRounds }

// ReadChunkSize returns the largest single read issued to the port.
func (cfg *Config) ReadChunkSize() int { return cfg.readChunkSize }

// GetLogger returns the configured logger.
func (cfg *Config) GetLogger() logger.Logger { return cfg.logger }

// --- Option ---

// Option is a functional option for configuring a Config.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithBaudRate sets the initial baud rate. It must be one of SupportedBaudRates.
func WithBaudRate(baud int) Option {
	return optFunc(func(cfg *Config) error {
		if !IsSupportedBaudRate(baud) {
			return fmt.Errorf("%w: %d", ErrInvalidBaudRate, baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithReadTimeout sets the blocking read timeout of the port. It also bounds
// how long an exchange waits for a complete response frame.
func WithReadTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 || d > MaxReadTimeout {
			return fmt.Errorf("fps: read timeout %v out of range (0, %v]", d, MaxReadTimeout)
		}
		cfg.readTimeout = d

		return nil
	})
}

// WithSettleInterval sets the wait between writing a request and polling for
// its response. Zero disables the wait.
func WithSettleInterval(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 || d > MaxSettleInterval {
			return fmt.Errorf("fps: settle interval %v out of range [0, %v]", d, MaxSettleInterval)
		}
		cfg.settleInterval = d

		return nil
	})
}

// WithBaudChangeSettle sets the wait used around a baud rate change. Zero
// disables the wait.
func WithBaudChangeSettle(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d < 0 || d > MaxSettleInterval {
			return fmt.Errorf("fps: baud change settle %v out of range [0, %v]", d, MaxSettleInterval)
		}
		cfg.baudChangeSettle = d

		return nil
	})
}

// WithMaxDrainRounds bounds how many rounds the session polls for trailing
// data after an ACK.
func WithMaxDrainRounds(n int) Option {
	return optFunc(func(cfg *Config) error {
		if n < 1 || n > MaxDrainRounds {
			return fmt.Errorf("fps: max drain rounds %d out of range [1, %d]", n, MaxDrainRounds)
		}
		cfg.maxDrainRounds = n

		return nil
	})
}

// WithReadChunkSize sets the largest single read issued to the port.
func WithReadChunkSize(size int) Option {
	return optFunc(func(cfg *Config) error {
		if size < 1 {
			return errors.New("fps: read chunk size must be >= 1")
		}
		cfg.readChunkSize = size

		return nil
	})
}

// WithOpener replaces the function used to open the port. The default is
// transport.OpenSerial.
func WithOpener(opener transport.Opener) Option {
	return optFunc(func(cfg *Config) error {
		if opener == nil {
			return errors.New("fps: opener must not be nil")
		}
		cfg.opener = opener

		return nil
	})
}

// WithLogger sets the logger for the sensor.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("fps: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
