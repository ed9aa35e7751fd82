// Package config loads the TOML configuration shared by the victim and
// capture programs. Command-line flags override file values.
//
// Example file:
//
//	[victim]
//	port = "/dev/ttyACM0"
//	baud = 38400
//	mode = "small"
//	runtime_mode = true
//	jitter = false
//	key = "2b7e151628aed2a6abf7158809cf4f3c"
//	metrics = "127.0.0.1:9090"
//
//	[capture]
//	port = "/dev/ttyACM1"
//	timeout = "2s"
//	pattern = "tvla"
//	traces = 5000
package config

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"

	"github.com/moffa90/go-simpleserial/primitive"
)

// DefaultBaud is the ChipWhisperer target UART rate.
const DefaultBaud = 38400

// Config is the top-level configuration file.
type Config struct {
	Victim  Victim  `toml:"victim"`
	Capture Capture `toml:"capture"`
}

// Victim configures the victim program.
type Victim struct {
	// Port is the serial device; empty with Stdio set serves on stdin/stdout
	Port string `toml:"port"`

	// Baud is the serial line rate
	Baud int `toml:"baud"`

	// Stdio serves frames on standard input and output
	Stdio bool `toml:"stdio"`

	// Mode is the block mode at boot
	Mode primitive.Mode `toml:"mode"`

	// RuntimeMode makes m a 2-byte mode select
	RuntimeMode bool `toml:"runtime_mode"`

	// Jitter enables the data-dependent delay before encryption
	Jitter bool `toml:"jitter"`

	// Primitive is the registered name of the block cipher
	Primitive string `toml:"primitive"`

	// Key is the default key in hex, wire order; empty keeps the built-in key
	Key string `toml:"key"`

	// Metrics is the listen address for /metrics; empty disables it
	Metrics string `toml:"metrics"`

	// LogLevel is debug, info, warn or error
	LogLevel string `toml:"log_level"`

	// JSONLogs switches the log encoder to JSON
	JSONLogs bool `toml:"json_logs"`
}

// Capture configures the capture program.
type Capture struct {
	// Port is the serial device of the victim
	Port string `toml:"port"`

	// Baud is the serial line rate
	Baud int `toml:"baud"`

	// Timeout bounds every read from the victim
	Timeout Duration `toml:"timeout"`

	// CommandDelay is waited before every command
	CommandDelay Duration `toml:"command_delay"`

	// Pattern is the acquisition pattern for run: basic or tvla
	Pattern string `toml:"pattern"`

	// Traces is the number of encryptions for run
	Traces int `toml:"traces"`

	// Key is the fixed key in hex for run; empty uses the pattern default
	Key string `toml:"key"`

	// Seed seeds the pattern's random source
	Seed int64 `toml:"seed"`

	// LogLevel is debug, info, warn or error
	LogLevel string `toml:"log_level"`

	// JSONLogs switches the log encoder to JSON
	JSONLogs bool `toml:"json_logs"`
}

// Duration is a time.Duration read from a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Victim: Victim{
			Baud:      DefaultBaud,
			Mode:      primitive.SmallBlock,
			Primitive: primitive.DefaultName,
			LogLevel:  "info",
		},
		Capture: Capture{
			Baud:     DefaultBaud,
			Timeout:  Duration{2 * time.Second},
			Pattern:  "basic",
			Traces:   100,
			LogLevel: "info",
		},
	}
}

// Load reads a configuration file on top of the defaults. Unknown keys are
// an error.
func Load(path string) (Config, error) {
	cfg := Default()

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	return cfg, nil
}

// Validate checks the victim section and reports every problem found.
func (v Victim) Validate() error {
	var result *multierror.Error

	if !v.Stdio && v.Port == "" {
		result = multierror.Append(result, fmt.Errorf("victim: port is required unless stdio is set"))
	}
	if v.Baud <= 0 {
		result = multierror.Append(result, fmt.Errorf("victim: baud must be positive, got %d", v.Baud))
	}
	if _, err := primitive.Lookup(v.Primitive); err != nil {
		result = multierror.Append(result, fmt.Errorf("victim: %w", err))
	}
	if v.Key != "" {
		if _, err := ParseKey(v.Key); err != nil {
			result = multierror.Append(result, fmt.Errorf("victim: %w", err))
		}
	}
	if v.Metrics != "" {
		if _, _, err := net.SplitHostPort(v.Metrics); err != nil {
			result = multierror.Append(result, fmt.Errorf("victim: metrics address: %w", err))
		}
	}
	if err := validateLogLevel(v.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("victim: %w", err))
	}

	return result.ErrorOrNil()
}

// Validate checks the capture section and reports every problem found.
func (c Capture) Validate() error {
	var result *multierror.Error

	if c.Port == "" {
		result = multierror.Append(result, fmt.Errorf("capture: port is required"))
	}
	if c.Baud <= 0 {
		result = multierror.Append(result, fmt.Errorf("capture: baud must be positive, got %d", c.Baud))
	}
	if c.Timeout.Duration <= 0 {
		result = multierror.Append(result, fmt.Errorf("capture: timeout must be positive, got %s", c.Timeout.Duration))
	}
	if c.CommandDelay.Duration < 0 {
		result = multierror.Append(result, fmt.Errorf("capture: command delay cannot be negative"))
	}
	switch c.Pattern {
	case "basic", "tvla":
	default:
		result = multierror.Append(result, fmt.Errorf("capture: unknown pattern %q: expected basic or tvla", c.Pattern))
	}
	if c.Traces <= 0 {
		result = multierror.Append(result, fmt.Errorf("capture: traces must be positive, got %d", c.Traces))
	}
	if c.Key != "" {
		if _, err := ParseKey(c.Key); err != nil {
			result = multierror.Append(result, fmt.Errorf("capture: %w", err))
		}
	}
	if err := validateLogLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, fmt.Errorf("capture: %w", err))
	}

	return result.ErrorOrNil()
}

// ParseKey decodes a 16-byte key written in hex. Spaces are ignored so keys
// can be grouped as in "12345678 87654321 ...".
func ParseKey(s string) ([16]byte, error) {
	var key [16]byte

	raw, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return key, fmt.Errorf("invalid key %q: %w", s, err)
	}
	if len(raw) != len(key) {
		return key, fmt.Errorf("invalid key %q: must be exactly %d bytes, got %d", s, len(key), len(raw))
	}

	copy(key[:], raw)
	return key, nil
}

func validateLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
}
