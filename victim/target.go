package victim

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/protocol"
)

// Transport is the framing layer a Target talks through. protocol.Device is
// the standard implementation.
type Transport interface {
	// Accept registers a command code and its exact payload length so the
	// transport can reject malformed frames itself.
	Accept(code byte, length int) error

	// ReadCommand blocks until the next valid command arrives. It returns
	// io.EOF when the link is closed.
	ReadCommand() (protocol.Frame, error)

	// WriteFrame sends a tagged response frame.
	WriteFrame(tag byte, data []byte) error

	// Ack sends a status acknowledgement.
	Ack(status byte) error
}

// Target is a booted victim: platform initialized, default key loaded and
// command table registered.
type Target struct {
	platform   hal.Platform
	transport  Transport
	config     Config
	session    *Session
	dispatcher Dispatcher
	ctx        Context
}

// New boots a target on the given platform and transport:
//  1. Initialize the platform, UART and trigger line
//  2. Load the default key
//  3. Write the greeting, if enabled
//  4. Register the command table with the dispatcher and the transport
//
// Example:
//
//	target, err := victim.New(hal.NewHost(os.Stdout), protocol.NewDevice(port),
//	    victim.WithRuntimeMode(true),
//	)
func New(platform hal.Platform, transport Transport, opts ...Option) (*Target, error) {
	if platform == nil {
		return nil, fmt.Errorf("platform cannot be nil")
	}
	if transport == nil {
		return nil, fmt.Errorf("transport cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Target{
		platform:  platform,
		transport: transport,
		config:    cfg,
	}

	platform.Init()
	platform.InitUART()
	platform.TriggerSetup()

	t.session = NewSession(cfg.Primitive, cfg.Mode, cfg.DefaultKey)
	t.ctx = Context{
		Session: t.session,
		Trigger: platform,
		Jitter:  cfg.Jitter,
	}

	if cfg.Greeting {
		for i := 0; i < len(Greeting); i++ {
			platform.Putch(Greeting[i])
		}
	}

	for _, cmd := range t.commandTable() {
		if err := t.dispatcher.Register(cmd); err != nil {
			return nil, fmt.Errorf("register command: %w", err)
		}
		if err := transport.Accept(cmd.Code, cmd.Len); err != nil {
			return nil, fmt.Errorf("accept command %q: %w", cmd.Code, err)
		}
	}

	t.logInfo("target ready",
		"mode", cfg.Mode.String(),
		"runtime_mode", cfg.RuntimeMode,
		"jitter", cfg.Jitter,
		"commands", t.dispatcher.Len())

	return t, nil
}

func (t *Target) commandTable() []Command {
	mode := Command{Code: protocol.CmdMode, Len: protocol.MaskSize, Handler: handleMask}
	if t.config.RuntimeMode {
		mode = Command{Code: protocol.CmdMode, Len: protocol.ModeSize, Handler: handleMode}
	}

	return []Command{
		{Code: protocol.CmdKey, Len: protocol.KeySize, Handler: handleKey},
		{Code: protocol.CmdPlaintext, Len: protocol.BlockSize, Handler: handlePlaintext},
		{Code: protocol.CmdReset, Len: protocol.ResetSize, Handler: handleReset},
		mode,
	}
}

// Serve runs the command loop until the link closes or ctx is cancelled.
// Cancellation is checked between frames; a blocked read is only released by
// closing the link.
//
// Returns nil when the transport reports io.EOF and ctx.Err() on
// cancellation.
func (t *Target) Serve(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f, err := t.transport.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.logInfo("link closed")
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read command: %w", err)
		}

		if err := t.Handle(f); err != nil {
			return err
		}
	}
}

// Handle runs a single command frame and sends its responses and status.
func (t *Target) Handle(f protocol.Frame) error {
	cmd, ok := t.dispatcher.Lookup(f.Code)
	if !ok {
		return t.ack(f.Code, protocol.ErrCommand)
	}
	if len(f.Data) != cmd.Len {
		return t.ack(f.Code, protocol.ErrLength)
	}

	t.ctx.reset()
	status := cmd.Handler(&t.ctx, f.Data)

	for _, r := range t.ctx.responses {
		if err := t.transport.WriteFrame(r.tag, r.data); err != nil {
			return fmt.Errorf("command %q: %w", f.Code, err)
		}
	}
	return t.ack(f.Code, status)
}

func (t *Target) ack(code, status byte) error {
	if err := t.transport.Ack(status); err != nil {
		return fmt.Errorf("command %q: %w", code, err)
	}

	if t.config.CommandHook != nil {
		t.config.CommandHook(code, status)
	}
	t.logDebug("command", "code", string(rune(code)), "status", protocol.StatusName(status))
	return nil
}

// Session returns the target's key state.
func (t *Target) Session() *Session {
	return t.session
}

// Commands returns the registered command table.
func (t *Target) Commands() []Command {
	return t.dispatcher.Commands()
}

// logDebug logs a debug message if a logger is configured.
func (t *Target) logDebug(msg string, keysAndValues ...interface{}) {
	if t.config.Logger != nil {
		t.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (t *Target) logInfo(msg string, keysAndValues ...interface{}) {
	if t.config.Logger != nil {
		t.config.Logger.Info(msg, keysAndValues...)
	}
}
