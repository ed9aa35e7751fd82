package protocol

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
)

// RejectFunc is called for every frame a Device rejects, with the frame code
// (zero for an empty or oversized line) and the status sent back.
type RejectFunc func(code byte, status byte)

// Device is the victim side of a SimpleSerial link. It validates incoming
// frames against the registered command lengths so that only well-formed
// commands reach the caller; everything else is acknowledged with an error
// status and dropped.
//
// Device is not safe for concurrent use.
type Device struct {
	r        *bufio.Reader
	w        io.Writer
	lengths  [256]int
	accepted int
	onReject RejectFunc
}

// DeviceOption configures a Device.
type DeviceOption func(*Device)

// WithRejectFunc registers a callback for rejected frames.
func WithRejectFunc(fn RejectFunc) DeviceOption {
	return func(d *Device) {
		d.onReject = fn
	}
}

// NewDevice creates a device-side transport over rw.
func NewDevice(rw io.ReadWriter, opts ...DeviceOption) *Device {
	if rw == nil {
		panic("link cannot be nil")
	}

	d := &Device{
		r: bufio.NewReaderSize(rw, MaxFrameSize),
		w: rw,
	}
	for i := range d.lengths {
		d.lengths[i] = -1
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Accept registers a command code and its exact payload length.
func (d *Device) Accept(code byte, length int) error {
	if err := validateCode(code); err != nil {
		return err
	}
	if length < 0 || length > MaxPayloadSize {
		return fmt.Errorf("command %q: payload length %d outside 0-%d", code, length, MaxPayloadSize)
	}
	if d.lengths[code] >= 0 {
		return fmt.Errorf("command %q already registered", code)
	}
	if d.accepted == MaxCommands {
		return fmt.Errorf("command table full: at most %d commands", MaxCommands)
	}

	d.lengths[code] = length
	d.accepted++
	return nil
}

// ReadCommand blocks until a complete, length-validated command frame arrives.
// Returns io.EOF when the link is closed.
func (d *Device) ReadCommand() (Frame, error) {
	for {
		line, err := d.readLine()
		if err != nil {
			return Frame{}, err
		}
		if line == nil {
			if err := d.reject(0, ErrLength); err != nil {
				return Frame{}, err
			}
			continue
		}

		line = trimLine(line)
		if len(line) == 0 {
			continue
		}

		code := line[0]
		want := d.lengths[code]
		if want < 0 {
			if err := d.reject(code, ErrCommand); err != nil {
				return Frame{}, err
			}
			continue
		}

		encoded := line[1:]
		if len(encoded) != hex.EncodedLen(want) {
			if err := d.reject(code, ErrLength); err != nil {
				return Frame{}, err
			}
			continue
		}

		data := make([]byte, want)
		if _, err := hex.Decode(data, encoded); err != nil {
			if err := d.reject(code, ErrData); err != nil {
				return Frame{}, err
			}
			continue
		}

		return Frame{Code: code, Data: data}, nil
	}
}

// WriteFrame sends a tagged response frame.
func (d *Device) WriteFrame(tag byte, data []byte) error {
	frame, err := BuildResponse(tag, data)
	if err != nil {
		return err
	}
	if _, err := d.w.Write(frame); err != nil {
		return fmt.Errorf("write %q frame: %w", tag, err)
	}
	return nil
}

// Ack sends a status acknowledgement.
func (d *Device) Ack(status byte) error {
	if _, err := d.w.Write(BuildAck(status)); err != nil {
		return fmt.Errorf("write ack: %w", err)
	}
	return nil
}

// readLine returns the next line including its terminator. An oversized line
// is consumed up to its terminator and reported as a nil line.
func (d *Device) readLine() ([]byte, error) {
	line, err := d.r.ReadSlice(Terminator)
	if err == nil {
		return line, nil
	}
	if err != bufio.ErrBufferFull {
		// A partial line at EOF is dropped.
		return nil, err
	}

	for err == bufio.ErrBufferFull {
		_, err = d.r.ReadSlice(Terminator)
	}
	if err != nil {
		return nil, err
	}
	return nil, nil
}

func (d *Device) reject(code, status byte) error {
	if d.onReject != nil {
		d.onReject(code, status)
	}
	return d.Ack(status)
}
