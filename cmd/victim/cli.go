package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tarm/serial"
	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-simpleserial/config"
	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/log"
	"github.com/moffa90/go-simpleserial/metrics"
	"github.com/moffa90/go-simpleserial/primitive"
	"github.com/moffa90/go-simpleserial/protocol"
	"github.com/moffa90/go-simpleserial/victim"
)

// Automatically set through -ldflags
// Example: go install -ldflags "-X main.version=`git describe --tags`
//   -X main.buildDate=`date -u +%d/%m/%Y@%H:%M:%S` -X main.gitCommit=`git rev-parse HEAD`"
var (
	version   = "master"
	gitCommit = "none"
	buildDate = "unknown"
)

// diagnostics go to stderr; stdout may be the serial link
var output io.Writer = os.Stderr

func banner() {
	fmt.Fprintf(output, "victim %v (date %v, commit %v), SimpleSerial %s\n",
		version, buildDate, gitCommit, protocol.ProtocolVersion)
}

var configFlag = &cli.StringFlag{
	Name:  "config",
	Usage: "Read settings from the [victim] table of this TOML file. Flags override file values.",
}

var portFlag = &cli.StringFlag{
	Name:  "port",
	Usage: "Serial device to serve on, e.g. /dev/ttyACM0.",
}

var baudFlag = &cli.IntFlag{
	Name:  "baud",
	Value: config.DefaultBaud,
	Usage: "Serial line rate.",
}

var stdioFlag = &cli.BoolFlag{
	Name:  "stdio",
	Usage: "Serve on standard input and output instead of a serial port.",
}

var modeFlag = &cli.StringFlag{
	Name:  "mode",
	Value: "small",
	Usage: "Block mode at boot: small (64-bit) or large (128-bit).",
}

var runtimeModeFlag = &cli.BoolFlag{
	Name:  "runtime-mode",
	Usage: "Accept the 2-byte m command to switch block mode at runtime instead of the 18-byte mask stub.",
}

var jitterFlag = &cli.BoolFlag{
	Name:  "jitter",
	Usage: "Add a data-dependent delay before each encryption, outside the trigger window.",
}

var primitiveFlag = &cli.StringFlag{
	Name:  "primitive",
	Value: primitive.DefaultName,
	Usage: "Block cipher to encrypt with. Registered: " + strings.Join(primitive.Names(), ", "),
}

var keyFlag = &cli.StringFlag{
	Name:  "key",
	Usage: "Key loaded at boot, 32 hex digits in wire order.",
}

var metricsFlag = &cli.StringFlag{
	Name:  "metrics",
	Usage: "Launch a metrics server at the specified host:port.",
}

var verboseFlag = &cli.BoolFlag{
	Name:  "verbose",
	Usage: "If set, verbosity is at the debug level",
}

var jsonLogsFlag = &cli.BoolFlag{
	Name:  "json-logs",
	Usage: "Write logs as JSON.",
}

// CLI returns the victim application.
func CLI() *cli.App {
	app := cli.NewApp()
	app.Name = "victim"
	app.Usage = "SimpleSerial side-channel capture target"
	app.Version = version
	cli.VersionPrinter = func(c *cli.Context) {
		banner()
	}
	app.Flags = []cli.Flag{
		configFlag, portFlag, baudFlag, stdioFlag, modeFlag, runtimeModeFlag,
		jitterFlag, primitiveFlag, keyFlag, metricsFlag, verboseFlag, jsonLogsFlag,
	}
	app.Action = serveCmd
	return app
}

// contextToConfig merges the config file, if any, with the flags that were
// set explicitly.
func contextToConfig(c *cli.Context) (config.Victim, error) {
	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Victim{}, err
		}
		cfg = loaded
	}
	v := cfg.Victim

	if c.IsSet(portFlag.Name) {
		v.Port = c.String(portFlag.Name)
	}
	if c.IsSet(baudFlag.Name) {
		v.Baud = c.Int(baudFlag.Name)
	}
	if c.IsSet(stdioFlag.Name) {
		v.Stdio = c.Bool(stdioFlag.Name)
	}
	if c.IsSet(modeFlag.Name) {
		mode, err := primitive.ParseMode(c.String(modeFlag.Name))
		if err != nil {
			return config.Victim{}, err
		}
		v.Mode = mode
	}
	if c.IsSet(runtimeModeFlag.Name) {
		v.RuntimeMode = c.Bool(runtimeModeFlag.Name)
	}
	if c.IsSet(jitterFlag.Name) {
		v.Jitter = c.Bool(jitterFlag.Name)
	}
	if c.IsSet(primitiveFlag.Name) {
		v.Primitive = c.String(primitiveFlag.Name)
	}
	if c.IsSet(keyFlag.Name) {
		v.Key = c.String(keyFlag.Name)
	}
	if c.IsSet(metricsFlag.Name) {
		v.Metrics = c.String(metricsFlag.Name)
	}
	if c.Bool(verboseFlag.Name) {
		v.LogLevel = "debug"
	}
	if c.IsSet(jsonLogsFlag.Name) {
		v.JSONLogs = c.Bool(jsonLogsFlag.Name)
	}

	return v, v.Validate()
}

// targetOptions translates the configuration into victim options.
func targetOptions(v config.Victim, logger *log.Logger) ([]victim.Option, error) {
	p, err := primitive.Lookup(v.Primitive)
	if err != nil {
		return nil, err
	}

	opts := []victim.Option{
		victim.WithPrimitive(p),
		victim.WithMode(v.Mode),
		victim.WithRuntimeMode(v.RuntimeMode),
		victim.WithJitter(v.Jitter),
		victim.WithLogger(logger),
		victim.WithCommandHook(metrics.ObserveCommand),
	}
	if v.Key != "" {
		key, err := config.ParseKey(v.Key)
		if err != nil {
			return nil, err
		}
		opts = append(opts, victim.WithDefaultKey(key))
	}
	return opts, nil
}

// stdio joins standard input and output into one link.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error {
	return os.Stdin.Close()
}

// openLink opens the link described by v. Replaced in tests.
var openLink = func(v config.Victim) (io.ReadWriteCloser, error) {
	if v.Stdio {
		return stdio{Reader: os.Stdin, Writer: os.Stdout}, nil
	}

	port, err := serial.OpenPort(&serial.Config{Name: v.Port, Baud: v.Baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", v.Port, err)
	}
	return port, nil
}

func serveCmd(c *cli.Context) error {
	v, err := contextToConfig(c)
	if err != nil {
		return err
	}

	level, err := log.ParseLevel(v.LogLevel)
	if err != nil {
		return err
	}
	logger := log.New(nil, level, v.JSONLogs).Named("victim")
	defer func() { _ = logger.Sync() }()

	opts, err := targetOptions(v, logger)
	if err != nil {
		return err
	}

	link, err := openLink(v)
	if err != nil {
		return err
	}
	defer func() { _ = link.Close() }()

	if v.Metrics != "" {
		l, err := metrics.Start(v.Metrics)
		if err != nil {
			return err
		}
		defer func() { _ = l.Close() }()
		logger.Info("metrics server started", "addr", l.Addr().String())
	}

	platform := hal.NewHost(link, hal.WithWindowObserver(metrics.ObserveTriggerWindow))
	device := protocol.NewDevice(link, protocol.WithRejectFunc(func(code, status byte) {
		metrics.ObserveReject(code, status)
		logger.Debug("frame rejected", "code", fmt.Sprintf("0x%02X", code), "status", protocol.StatusName(status))
	}))

	target, err := victim.New(platform, device, opts...)
	if err != nil {
		return err
	}
	if err := platform.Err(); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A blocked read only returns once the link is closed.
	go func() {
		<-ctx.Done()
		_ = link.Close()
	}()

	logger.Info("serving", "port", v.Port, "stdio", v.Stdio, "primitive", v.Primitive)
	err = target.Serve(ctx)
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		logger.Info("shutting down")
		return nil
	}
	return err
}
