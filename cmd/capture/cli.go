package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tarm/serial"
	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-simpleserial/capture"
	"github.com/moffa90/go-simpleserial/capture/ktp"
	"github.com/moffa90/go-simpleserial/config"
	"github.com/moffa90/go-simpleserial/log"
	"github.com/moffa90/go-simpleserial/primitive"
	"github.com/moffa90/go-simpleserial/protocol"
	"github.com/moffa90/go-simpleserial/vectors"
)

// Automatically set through -ldflags
// Example: go install -ldflags "-X main.version=`git describe --tags`
//   -X main.buildDate=`date -u +%d/%m/%Y@%H:%M:%S` -X main.gitCommit=`git rev-parse HEAD`"
var (
	version   = "master"
	gitCommit = "none"
	buildDate = "unknown"
)

var output io.Writer = os.Stdout

func banner() {
	fmt.Fprintf(output, "capture %v (date %v, commit %v), SimpleSerial %s\n",
		version, buildDate, gitCommit, protocol.ProtocolVersion)
}

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "Read settings from the [capture] table of this TOML file. Flags override file values.",
}

var portFlag = &cli.StringFlag{
	Name:  "port",
	Usage: "Serial device of the victim, e.g. /dev/ttyACM0.",
}

var baudFlag = &cli.IntFlag{
	Name:  "baud",
	Value: config.DefaultBaud,
	Usage: "Serial line rate.",
}

var timeoutFlag = &cli.DurationFlag{
	Name:  "timeout",
	Usage: "Maximum wait for every victim response, e.g. 500ms.",
}

var delayFlag = &cli.DurationFlag{
	Name:  "delay",
	Usage: "Pause after every command for slow targets.",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "If set, verbosity is at the debug level",
}

var jsonLogsFlag = &cli.BoolFlag{
	Name:  "json-logs",
	Usage: "Write logs as JSON.",
}

var patternFlag = &cli.StringFlag{
	Name:  "pattern",
	Usage: "Acquisition pattern: basic (fixed key, random text) or tvla (fixed-vs-random base-3 text).",
}

var tracesFlag = &cli.IntFlag{
	Name:  "traces",
	Usage: "Number of encryptions to capture.",
}

var keyFlag = &cli.StringFlag{
	Name:  "key",
	Usage: "Fixed key for the basic pattern, 32 hex digits.",
}

var seedFlag = &cli.Int64Flag{
	Name:  "seed",
	Usage: "Seed of the pattern's random source. Zero picks one from the clock.",
}

var outFlag = &cli.StringFlag{
	Name:    "out",
	Aliases: []string{"o"},
	Usage:   "Write the vector file here instead of standard output.",
}

var progressFlag = &cli.BoolFlag{
	Name:  "progress",
	Usage: "Draw a progress bar on standard error.",
}

var modeFlag = &cli.StringFlag{
	Name:  "mode",
	Value: "small",
	Usage: "Block mode: small (64-bit) or large (128-bit). For run, selects the mode on the victim and records it in the vector file; when unset the file has no mode line.",
}

var primitiveFlag = &cli.StringFlag{
	Name:  "primitive",
	Value: primitive.DefaultName,
	Usage: "Block cipher the vectors are computed with. Registered: " + strings.Join(primitive.Names(), ", "),
}

var skipModeFlag = &cli.BoolFlag{
	Name:  "skip-mode",
	Usage: "Do not send the file's mode directive; for targets built without runtime mode selection.",
}

// CLI returns the capture application.
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "capture"
	app.Usage = "SimpleSerial capture host"
	app.Version = version
	cli.VersionPrinter = func(c *cli.Context) {
		banner()
	}
	app.Flags = []cli.Flag{
		configFlag, portFlag, baudFlag, timeoutFlag, delayFlag, verboseFlag, jsonLogsFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:      "key",
			Usage:     "Load a key into the victim.",
			ArgsUsage: "<32 hex digits>",
			Action:    keyCmd,
		},
		{
			Name:      "encrypt",
			Usage:     "Encrypt one block and print the victim's result.",
			ArgsUsage: "<32 hex digits>",
			Action:    encryptCmd,
		},
		{
			Name:      "mode",
			Usage:     "Select the victim's block mode.",
			ArgsUsage: "small|large",
			Action:    modeCmd,
		},
		{
			Name:      "mask",
			Usage:     "Send an 18-byte mask to a victim built without runtime mode selection.",
			ArgsUsage: "<36 hex digits>",
			Action:    maskCmd,
		},
		{
			Name:   "reset",
			Usage:  "Send the reset command.",
			Action: resetCmd,
		},
		{
			Name:   "run",
			Usage:  "Capture traces with an acquisition pattern and write them as a vector file.",
			Flags:  []cli.Flag{patternFlag, tracesFlag, keyFlag, seedFlag, outFlag, progressFlag, modeFlag},
			Action: runCmd,
		},
		{
			Name:      "verify",
			Usage:     "Check every vector of a file against the victim.",
			ArgsUsage: "<vector file>",
			Flags:     []cli.Flag{skipModeFlag, progressFlag},
			Action:    verifyCmd,
		},
		{
			Name:   "generate",
			Usage:  "Compute a vector file offline with a registered primitive. No victim needed.",
			Flags:  []cli.Flag{patternFlag, tracesFlag, keyFlag, seedFlag, outFlag, modeFlag, primitiveFlag},
			Action: generateCmd,
		},
	}
	return app
}

// contextToConfig merges the config file, if any, with the flags that were
// set explicitly. Flags are looked up through the whole context lineage so
// global flags work before or after the subcommand.
func contextToConfig(c *cli.Context) (config.Capture, error) {
	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Capture{}, err
		}
		cfg = loaded
	}
	cc := cfg.Capture

	if c.IsSet(portFlag.Name) {
		cc.Port = c.String(portFlag.Name)
	}
	if c.IsSet(baudFlag.Name) {
		cc.Baud = c.Int(baudFlag.Name)
	}
	if c.IsSet(timeoutFlag.Name) {
		cc.Timeout.Duration = c.Duration(timeoutFlag.Name)
	}
	if c.IsSet(delayFlag.Name) {
		cc.CommandDelay.Duration = c.Duration(delayFlag.Name)
	}
	if c.IsSet(patternFlag.Name) {
		cc.Pattern = strings.ToLower(c.String(patternFlag.Name))
	}
	if c.IsSet(tracesFlag.Name) {
		cc.Traces = c.Int(tracesFlag.Name)
	}
	if c.IsSet(keyFlag.Name) {
		cc.Key = c.String(keyFlag.Name)
	}
	if c.IsSet(seedFlag.Name) {
		cc.Seed = c.Int64(seedFlag.Name)
	}
	if c.Bool(verboseFlag.Name) {
		cc.LogLevel = "debug"
	}
	if c.IsSet(jsonLogsFlag.Name) {
		cc.JSONLogs = c.Bool(jsonLogsFlag.Name)
	}

	return cc, nil
}

func newLogger(cc config.Capture) (*log.Logger, error) {
	level, err := log.ParseLevel(cc.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.New(nil, level, cc.JSONLogs).Named("capture"), nil
}

// openPort opens the victim's serial port. Replaced in tests.
var openPort = func(cc config.Capture) (io.ReadWriteCloser, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cc.Port,
		Baud:        cc.Baud,
		ReadTimeout: cc.Timeout.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cc.Port, err)
	}
	return port, nil
}

// withCapturer validates the configuration, opens the port and runs fn with
// a capturer bound to it. fn's context is cancelled on SIGINT or SIGTERM.
func withCapturer(c *cli.Context, fn func(ctx context.Context, cc config.Capture, cp *capture.Capturer) error, opts ...capture.Option) error {
	cc, err := contextToConfig(c)
	if err != nil {
		return err
	}
	if err := cc.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cc)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	port, err := openPort(cc)
	if err != nil {
		return err
	}
	defer func() { _ = port.Close() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts = append([]capture.Option{
		capture.WithLogger(logger),
		capture.WithReadTimeout(cc.Timeout.Duration),
		capture.WithCommandDelay(cc.CommandDelay.Duration),
	}, opts...)

	return fn(ctx, cc, capture.New(port, opts...))
}

// blockArg decodes the first argument as a 16-byte block.
func blockArg(c *cli.Context) ([16]byte, error) {
	if c.NArg() != 1 {
		return [16]byte{}, fmt.Errorf("expected one argument of 32 hex digits, got %d arguments", c.NArg())
	}
	return config.ParseKey(c.Args().First())
}

func keyCmd(c *cli.Context) error {
	key, err := blockArg(c)
	if err != nil {
		return err
	}
	return withCapturer(c, func(ctx context.Context, _ config.Capture, cp *capture.Capturer) error {
		return cp.SetKey(ctx, key)
	})
}

func encryptCmd(c *cli.Context) error {
	text, err := blockArg(c)
	if err != nil {
		return err
	}
	return withCapturer(c, func(ctx context.Context, _ config.Capture, cp *capture.Capturer) error {
		out, err := cp.Encrypt(ctx, text)
		if err != nil {
			return err
		}
		fmt.Fprintln(output, hex.EncodeToString(out[:]))
		return nil
	})
}

func modeCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one argument: small or large")
	}
	mode, err := primitive.ParseMode(c.Args().First())
	if err != nil {
		return err
	}
	return withCapturer(c, func(ctx context.Context, _ config.Capture, cp *capture.Capturer) error {
		return cp.SelectMode(ctx, mode)
	})
}

func maskCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one argument of %d hex digits", 2*protocol.MaskSize)
	}
	mask, err := hex.DecodeString(c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid mask: %w", err)
	}
	return withCapturer(c, func(ctx context.Context, _ config.Capture, cp *capture.Capturer) error {
		return cp.SendMask(ctx, mask)
	})
}

func resetCmd(c *cli.Context) error {
	return withCapturer(c, func(ctx context.Context, _ config.Capture, cp *capture.Capturer) error {
		return cp.Reset(ctx)
	})
}

// newPattern builds the acquisition pattern from the configuration.
func newPattern(cc config.Capture) (ktp.Pattern, int64, error) {
	key := ktp.TVLAKey
	if cc.Key != "" {
		var err error
		if key, err = config.ParseKey(cc.Key); err != nil {
			return nil, 0, err
		}
	}

	seed := cc.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	p, err := ktp.New(cc.Pattern, key, cc.Traces, rand.New(rand.NewSource(seed)))
	return p, seed, err
}

// writeVectors writes f to the --out file or to standard output.
func writeVectors(c *cli.Context, f *vectors.File) error {
	path := c.String(outFlag.Name)
	if path == "" {
		return vectors.Write(output, f)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := vectors.Write(file, f); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func runCmd(c *cli.Context) error {
	mode, err := primitive.ParseMode(c.String(modeFlag.Name))
	if err != nil {
		return err
	}

	var opts []capture.Option
	if c.Bool(progressFlag.Name) {
		opts = append(opts, capture.WithProgressCallback(newProgressBar(os.Stderr, 40).update))
	}

	return withCapturer(c, func(ctx context.Context, cc config.Capture, cp *capture.Capturer) error {
		pattern, seed, err := newPattern(cc)
		if err != nil {
			return err
		}

		if c.IsSet(modeFlag.Name) {
			if err := cp.SelectMode(ctx, mode); err != nil {
				return err
			}
		}

		traces, runErr := cp.Run(ctx, pattern, cc.Traces)
		if len(traces) > 0 {
			f := capture.Vectors(mode, traces)
			// Without --mode the victim's mode is unknown; leave it out of the file.
			f.HasMode = c.IsSet(modeFlag.Name)
			if err := writeVectors(c, f); err != nil {
				return err
			}
		}
		if runErr != nil {
			return fmt.Errorf("capture stopped after %d of %d traces (seed %d): %w", len(traces), cc.Traces, seed, runErr)
		}
		return nil
	}, opts...)
}

func verifyCmd(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected one argument: the vector file")
	}
	f, err := vectors.Parse(c.Args().First())
	if err != nil {
		return err
	}
	if c.Bool(skipModeFlag.Name) {
		f.HasMode = false
	}

	var opts []capture.Option
	if c.Bool(progressFlag.Name) {
		opts = append(opts, capture.WithProgressCallback(newProgressBar(os.Stderr, 40).update))
	}

	return withCapturer(c, func(ctx context.Context, _ config.Capture, cp *capture.Capturer) error {
		n, err := cp.Verify(ctx, f)
		if err != nil {
			var mismatch *capture.MismatchError
			if errors.As(err, &mismatch) {
				return fmt.Errorf("%d of %d vectors passed: %w", n, len(f.Vectors), err)
			}
			return err
		}
		fmt.Fprintf(output, "%d vectors passed\n", n)
		return nil
	}, opts...)
}

func generateCmd(c *cli.Context) error {
	cc, err := contextToConfig(c)
	if err != nil {
		return err
	}
	if cc.Traces <= 0 {
		return fmt.Errorf("traces must be positive, got %d", cc.Traces)
	}

	mode, err := primitive.ParseMode(c.String(modeFlag.Name))
	if err != nil {
		return err
	}
	p, err := primitive.Lookup(c.String(primitiveFlag.Name))
	if err != nil {
		return err
	}
	pattern, _, err := newPattern(cc)
	if err != nil {
		return err
	}

	return writeVectors(c, vectors.Generate(p, mode, cc.Traces, pattern.Next))
}
