package capture

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Config holds the capturer configuration.
type Config struct {
	// ProgressCallback is called during Run and Verify to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// ReadTimeout bounds every response read on devices that support
	// read deadlines
	ReadTimeout time.Duration

	// CommandDelay is waited after every command is written
	CommandDelay time.Duration

	// Clock times progress reports and command delays. Read deadlines
	// are set on the device, which compares them against wall time, so
	// they always use time.Now
	Clock clockwork.Clock
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ReadTimeout: 2 * time.Second,
		Clock:       clockwork.NewRealClock(),
	}
}

// Option is a functional option for configuring the Capturer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track capture progress.
//
// Example:
//
//	c := capture.New(port,
//	    capture.WithProgressCallback(func(p capture.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for the capturer operations.
//
// Example:
//
//	c := capture.New(port, capture.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithReadTimeout sets the read timeout. It applies to devices with a
// SetReadDeadline method such as net.Conn; serial ports take their timeout
// when opened.
//
// Example:
//
//	c := capture.New(conn, capture.WithReadTimeout(500*time.Millisecond))
func WithReadTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ReadTimeout = timeout
		}
	}
}

// WithCommandDelay sets a delay after every command, for targets that need
// time before the next byte arrives.
//
// Example:
//
//	c := capture.New(port, capture.WithCommandDelay(10*time.Millisecond))
func WithCommandDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.CommandDelay = delay
		}
	}
}

// WithClock sets the clock used for timing. Tests pass a fake clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}
