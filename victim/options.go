package victim

import (
	"github.com/moffa90/go-simpleserial/primitive"
)

// DefaultKey is the key loaded at boot unless another is configured.
var DefaultKey = [16]byte{
	0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
	0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c,
}

// Greeting is written to the console at boot.
const Greeting = "hello\n"

// Logger is an optional logging interface. It matches the interface used by
// the capture package and is satisfied by the log package.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}

// CommandHook is called after every command has been acknowledged, with the
// command code and the status sent.
type CommandHook func(code byte, status byte)

// Config holds the target configuration.
type Config struct {
	// Primitive is the block cipher (default primitive.Library)
	Primitive primitive.Primitive

	// Mode is the block mode at boot (default SmallBlock)
	Mode primitive.Mode

	// RuntimeMode registers m as a 2-byte mode select instead of the
	// 18-byte mask stub
	RuntimeMode bool

	// Jitter adds a data-dependent delay before every encryption
	Jitter bool

	// DefaultKey is loaded at boot, in wire order
	DefaultKey [16]byte

	// Greeting enables the boot greeting on the console
	Greeting bool

	// Logger is used for logging operations (optional)
	Logger Logger

	// CommandHook observes acknowledged commands (optional)
	CommandHook CommandHook
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Primitive:  primitive.Library{},
		Mode:       primitive.SmallBlock,
		DefaultKey: DefaultKey,
		Greeting:   true,
	}
}

// Option is a functional option for configuring the Target.
type Option func(*Config)

// WithPrimitive sets the block cipher.
//
// Example:
//
//	p, _ := primitive.Lookup("xcrypto")
//	target, err := victim.New(platform, device, victim.WithPrimitive(p))
func WithPrimitive(p primitive.Primitive) Option {
	return func(c *Config) {
		if p != nil {
			c.Primitive = p
		}
	}
}

// WithMode sets the block mode at boot.
//
// Example:
//
//	target, err := victim.New(platform, device, victim.WithMode(primitive.LargeBlock))
func WithMode(mode primitive.Mode) Option {
	return func(c *Config) {
		c.Mode = mode
	}
}

// WithRuntimeMode enables the m command as a runtime block mode switch.
// When disabled, m is an 18-byte mask command that does nothing.
func WithRuntimeMode(enabled bool) Option {
	return func(c *Config) {
		c.RuntimeMode = enabled
	}
}

// WithJitter enables the data-dependent delay before each encryption. The
// delay spins on the low nibble of the first native-order byte, which is wire
// byte 7, and finishes before the trigger is raised. A scope triggering on the
// pin therefore sees an aligned window; the delay only shifts the window
// relative to the command frame on the serial line.
func WithJitter(enabled bool) Option {
	return func(c *Config) {
		c.Jitter = enabled
	}
}

// WithDefaultKey sets the key loaded at boot, in wire order.
func WithDefaultKey(key [16]byte) Option {
	return func(c *Config) {
		c.DefaultKey = key
	}
}

// WithGreeting enables or disables the boot greeting. Default is true.
func WithGreeting(enabled bool) Option {
	return func(c *Config) {
		c.Greeting = enabled
	}
}

// WithLogger sets a logger for the target.
//
// Example:
//
//	target, err := victim.New(platform, device, victim.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCommandHook registers a callback for acknowledged commands.
func WithCommandHook(hook CommandHook) Option {
	return func(c *Config) {
		c.CommandHook = hook
	}
}
