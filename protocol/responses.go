package protocol

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseFrame decodes a single frame. A trailing LF or CRLF is optional.
//
// Frame structure:
//
//	[CODE][HEX(DATA)...][CR][LF]
//
// Returns the decoded frame, or an error if the line is empty, the payload is
// not valid hex, or the payload exceeds MaxPayloadSize.
func ParseFrame(line []byte) (Frame, error) {
	line = trimLine(line)
	if len(line) == 0 {
		return Frame{}, fmt.Errorf("empty frame")
	}

	code := line[0]
	if err := validateCode(code); err != nil {
		return Frame{}, err
	}

	encoded := line[1:]
	if len(encoded)%2 != 0 {
		return Frame{}, fmt.Errorf("odd hex payload length %d in %q frame", len(encoded), code)
	}
	if hex.DecodedLen(len(encoded)) > MaxPayloadSize {
		return Frame{}, fmt.Errorf("payload length %d exceeds maximum %d bytes", hex.DecodedLen(len(encoded)), MaxPayloadSize)
	}

	data := make([]byte, hex.DecodedLen(len(encoded)))
	if _, err := hex.Decode(data, encoded); err != nil {
		return Frame{}, fmt.Errorf("invalid hex payload in %q frame: %w", code, err)
	}

	return Frame{Code: code, Data: data}, nil
}

// ReadFrame reads and decodes the next frame from r.
func ReadFrame(r *bufio.Reader) (Frame, error) {
	line, err := r.ReadBytes(Terminator)
	if err != nil {
		return Frame{}, err
	}
	return ParseFrame(line)
}

// BuildResponse constructs a response frame sent by the victim. The payload is
// hex-encoded in upper case.
//
// Frame structure:
//
//	[TAG][HEX(DATA)...][LF]
func BuildResponse(tag byte, data []byte) ([]byte, error) {
	if err := validateCode(tag); err != nil {
		return nil, err
	}
	if len(data) > MaxPayloadSize {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", len(data), MaxPayloadSize)
	}

	frame := make([]byte, 0, 1+hex.EncodedLen(len(data))+1)
	frame = append(frame, tag)
	frame = append(frame, strings.ToUpper(hex.EncodeToString(data))...)
	frame = append(frame, Terminator)
	return frame, nil
}

// BuildAck constructs a status acknowledgement frame.
//
// Frame structure:
//
//	[z][HEX(STATUS(1))][LF]
func BuildAck(status byte) []byte {
	frame, _ := BuildResponse(RespAck, []byte{status})
	return frame
}

// ParseAck extracts the status code from an acknowledgement frame.
//
// Data format (AckSize bytes):
//
//	[STATUS]
func ParseAck(f Frame) (byte, error) {
	if f.Code != RespAck {
		return 0, fmt.Errorf("expected %q frame, got %q", RespAck, f.Code)
	}
	if len(f.Data) != AckSize {
		return 0, fmt.Errorf("invalid data length for ack: got %d bytes, expected %d", len(f.Data), AckSize)
	}
	return f.Data[0], nil
}

// ParseResult extracts the 16-byte encryption result from a result frame.
//
// Data format (BlockSize bytes):
//
//	[OUTPUT(16)]
func ParseResult(f Frame) ([BlockSize]byte, error) {
	var out [BlockSize]byte
	if f.Code != RespResult {
		return out, fmt.Errorf("expected %q frame, got %q", RespResult, f.Code)
	}
	if len(f.Data) != BlockSize {
		return out, fmt.Errorf("invalid data length for result: got %d bytes, expected %d", len(f.Data), BlockSize)
	}
	copy(out[:], f.Data)
	return out, nil
}

// IsResponseTag reports whether a line starts with a tag the victim uses for
// framed responses. Hosts use it to skip console output such as the boot
// greeting.
func IsResponseTag(line []byte) bool {
	line = trimLine(line)
	return len(line) > 0 && (line[0] == RespResult || line[0] == RespAck)
}

func trimLine(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{Terminator})
	return bytes.TrimSuffix(line, []byte{CarriageReturn})
}
