package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/moffa90/go-simpleserial/capture/ktp"
	"github.com/moffa90/go-simpleserial/primitive"
	"github.com/moffa90/go-simpleserial/protocol"
	"github.com/moffa90/go-simpleserial/vectors"
)

// Trace is the record of one encryption.
type Trace struct {
	Key    [16]byte
	Text   [16]byte
	Output [16]byte
}

// Capturer drives a SimpleSerial victim: it loads keys, switches modes and
// collects encryption results.
//
// Capturer is not safe for concurrent use.
type Capturer struct {
	device io.ReadWriter
	r      *bufio.Reader
	config Config

	key       [16]byte
	keyLoaded bool
	keyLoads  int
}

// deadliner is implemented by devices that support read deadlines, such as
// net.Conn.
type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// New creates a new Capturer with the given device and options.
// The device must implement io.ReadWriter for communication with the victim.
//
// Example:
//
//	port, _ := serial.OpenPort(&serial.Config{Name: "/dev/ttyACM0", Baud: 38400})
//	c := capture.New(port,
//	    capture.WithProgressCallback(progressFunc),
//	    capture.WithCommandDelay(5*time.Millisecond),
//	)
func New(device io.ReadWriter, opts ...Option) *Capturer {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Capturer{
		device: device,
		r:      bufio.NewReaderSize(device, protocol.MaxFrameSize),
		config: cfg,
	}
}

// SetKey loads key, given in wire order, into the victim.
func (c *Capturer) SetKey(ctx context.Context, key [16]byte) error {
	cmd, err := protocol.BuildKeyCmd(key[:])
	if err != nil {
		return err
	}

	if err := c.command(ctx, "load key", cmd); err != nil {
		return err
	}

	c.key = key
	c.keyLoaded = true
	c.keyLoads++
	c.logDebug("key loaded", "key", fmt.Sprintf("%x", key))
	return nil
}

// Encrypt sends text, in wire order, and returns the victim's result.
//
// Example:
//
//	out, err := c.Encrypt(ctx, text)
func (c *Capturer) Encrypt(ctx context.Context, text [16]byte) ([16]byte, error) {
	const op = "encrypt"

	cmd, err := protocol.BuildPlaintextCmd(text[:])
	if err != nil {
		return [16]byte{}, err
	}
	if err := c.send(ctx, op, cmd); err != nil {
		return [16]byte{}, err
	}

	f, err := c.readFrame(ctx, op)
	if err != nil {
		return [16]byte{}, err
	}
	if f.Code != protocol.RespResult {
		// A rejected command is answered with an ack only.
		if err := ackError(op, f); err != nil {
			return [16]byte{}, err
		}
		return [16]byte{}, &UnexpectedFrameError{Operation: op, Frame: f}
	}

	out, err := protocol.ParseResult(f)
	if err != nil {
		return [16]byte{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.expectAck(ctx, op); err != nil {
		return [16]byte{}, err
	}
	return out, nil
}

// SelectMode switches the block mode of a victim built with a runtime mode
// command. A victim with a fixed mode rejects it with an invalid length
// status.
func (c *Capturer) SelectMode(ctx context.Context, mode primitive.Mode) error {
	cmd, err := protocol.BuildModeCmd(mode == primitive.LargeBlock)
	if err != nil {
		return err
	}

	if err := c.command(ctx, "select mode", cmd); err != nil {
		return err
	}

	c.logDebug("mode selected", "mode", mode.String())
	return nil
}

// SendMask sends a mask to a victim with a fixed block mode. The mask must
// be exactly protocol.MaskSize bytes.
func (c *Capturer) SendMask(ctx context.Context, mask []byte) error {
	cmd, err := protocol.BuildMaskCmd(mask)
	if err != nil {
		return err
	}
	return c.command(ctx, "send mask", cmd)
}

// Reset sends the reset command. The victim keeps its key and mode.
func (c *Capturer) Reset(ctx context.Context) error {
	cmd, err := protocol.BuildResetCmd()
	if err != nil {
		return err
	}
	return c.command(ctx, "reset", cmd)
}

// Run captures n encryptions with key/text pairs from pattern. The key is
// only loaded when it differs from the last one loaded.
//
// The operation can be cancelled via context; the traces collected so far
// are returned with the error.
//
// Example:
//
//	pattern := ktp.NewTVLABase3(5000, rand.New(rand.NewSource(seed)))
//	traces, err := c.Run(ctx, pattern, 5000)
func (c *Capturer) Run(ctx context.Context, pattern ktp.Pattern, n int) ([]Trace, error) {
	if pattern == nil {
		return nil, fmt.Errorf("pattern cannot be nil")
	}
	if n <= 0 {
		return nil, fmt.Errorf("trace count must be positive, got %d", n)
	}

	start := c.config.Clock.Now()
	loadsBefore := c.keyLoads
	traces := make([]Trace, 0, n)

	for i := 0; i < n; i++ {
		key, text := pattern.Next()

		if !c.keyLoaded || key != c.key {
			if err := c.SetKey(ctx, key); err != nil {
				return traces, fmt.Errorf("trace %d: %w", i, err)
			}
		}

		out, err := c.Encrypt(ctx, text)
		if err != nil {
			return traces, fmt.Errorf("trace %d: %w", i, err)
		}
		traces = append(traces, Trace{Key: key, Text: text, Output: out})

		c.reportProgress(Progress{
			Phase:       PhaseCapturing,
			Current:     i + 1,
			Total:       n,
			Percentage:  float64(i+1) / float64(n) * 100,
			KeyLoads:    c.keyLoads - loadsBefore,
			ElapsedTime: c.config.Clock.Since(start),
		})
	}

	c.reportProgress(Progress{
		Phase:       PhaseComplete,
		Current:     n,
		Total:       n,
		Percentage:  100,
		KeyLoads:    c.keyLoads - loadsBefore,
		ElapsedTime: c.config.Clock.Since(start),
	})

	c.logInfo("capture complete",
		"traces", n,
		"key_loads", c.keyLoads-loadsBefore,
		"elapsed", c.config.Clock.Since(start).String(),
	)

	return traces, nil
}

// Verify runs every vector of f against the victim and returns the number
// of vectors checked. When f has a mode directive the mode is selected
// first. Stops at the first mismatch with a *MismatchError.
//
// Example:
//
//	f, _ := vectors.Parse("kat.txt")
//	n, err := c.Verify(ctx, f)
func (c *Capturer) Verify(ctx context.Context, f *vectors.File) (int, error) {
	if f == nil {
		return 0, fmt.Errorf("vector file cannot be nil")
	}

	start := c.config.Clock.Now()

	if f.HasMode {
		if err := c.SelectMode(ctx, f.Mode); err != nil {
			return 0, err
		}
	}

	total := len(f.Vectors)
	for i, v := range f.Vectors {
		if !c.keyLoaded || v.Key != c.key {
			if err := c.SetKey(ctx, v.Key); err != nil {
				return i, fmt.Errorf("vector at line %d: %w", v.Line, err)
			}
		}

		out, err := c.Encrypt(ctx, v.Plaintext)
		if err != nil {
			return i, fmt.Errorf("vector at line %d: %w", v.Line, err)
		}

		if out != v.Ciphertext {
			mismatch := &MismatchError{
				Line:      v.Line,
				Key:       v.Key,
				Plaintext: v.Plaintext,
				Expected:  v.Ciphertext,
				Actual:    out,
			}
			c.logError("vector mismatch", "line", v.Line, "expected", fmt.Sprintf("%x", v.Ciphertext), "actual", fmt.Sprintf("%x", out))
			return i, mismatch
		}

		c.reportProgress(Progress{
			Phase:       PhaseVerifying,
			Current:     i + 1,
			Total:       total,
			Percentage:  float64(i+1) / float64(total) * 100,
			ElapsedTime: c.config.Clock.Since(start),
		})
	}

	c.logInfo("verification complete", "vectors", total, "elapsed", c.config.Clock.Since(start).String())
	return total, nil
}

// Vectors converts captured traces to a vector file for mode.
func Vectors(mode primitive.Mode, traces []Trace) *vectors.File {
	f := &vectors.File{
		Mode:    mode,
		HasMode: true,
		Vectors: make([]*vectors.Vector, len(traces)),
	}
	for i, t := range traces {
		f.Vectors[i] = &vectors.Vector{
			Line:       i + 2,
			Key:        t.Key,
			Plaintext:  t.Text,
			Ciphertext: t.Output,
		}
	}
	return f
}

// command sends a command that is answered with an ack only.
func (c *Capturer) command(ctx context.Context, op string, cmd []byte) error {
	if err := c.send(ctx, op, cmd); err != nil {
		return err
	}
	return c.expectAck(ctx, op)
}

// send writes a command frame and applies the inter-command delay.
func (c *Capturer) send(ctx context.Context, op string, cmd []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: cancelled: %w", op, err)
	}

	if _, err := c.device.Write(cmd); err != nil {
		return fmt.Errorf("%s: write command: %w", op, err)
	}

	if c.config.CommandDelay > 0 {
		c.config.Clock.Sleep(c.config.CommandDelay)
	}
	return nil
}

// expectAck reads the next frame and checks that it is a success ack.
func (c *Capturer) expectAck(ctx context.Context, op string) error {
	f, err := c.readFrame(ctx, op)
	if err != nil {
		return err
	}
	if f.Code != protocol.RespAck {
		return &UnexpectedFrameError{Operation: op, Frame: f}
	}
	return ackError(op, f)
}

// ackError returns the error carried by an ack frame, or nil for success.
// Frames other than acks yield nil.
func ackError(op string, f protocol.Frame) error {
	if f.Code != protocol.RespAck {
		return nil
	}

	status, err := protocol.ParseAck(f)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if status != protocol.StatusSuccess {
		return &protocol.ProtocolError{Operation: op, StatusCode: status}
	}
	return nil
}

// readFrame reads the next response frame, skipping console output such as
// the boot greeting.
func (c *Capturer) readFrame(ctx context.Context, op string) (protocol.Frame, error) {
	if d, ok := c.device.(deadliner); ok {
		deadline := time.Now().Add(c.config.ReadTimeout)
		if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
			deadline = ctxDeadline
		}
		if err := d.SetReadDeadline(deadline); err != nil {
			return protocol.Frame{}, fmt.Errorf("%s: set read deadline: %w", op, err)
		}
	}

	for {
		line, err := c.r.ReadBytes(protocol.Terminator)
		if err != nil {
			return protocol.Frame{}, fmt.Errorf("%s: read response: %w", op, err)
		}

		if !protocol.IsResponseTag(line) {
			c.logDebug("skipping console output", "line", strings.TrimSpace(string(line)))
			continue
		}

		f, err := protocol.ParseFrame(line)
		if err != nil {
			return protocol.Frame{}, fmt.Errorf("%s: %w", op, err)
		}
		return f, nil
	}
}

// reportProgress calls the progress callback if configured.
func (c *Capturer) reportProgress(progress Progress) {
	if c.config.ProgressCallback != nil {
		c.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (c *Capturer) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (c *Capturer) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (c *Capturer) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
