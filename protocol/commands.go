package protocol

import (
	"encoding/hex"
	"fmt"
)

// BuildCommand constructs a command frame for an arbitrary code and payload.
//
// Frame structure:
//
//	[CODE][HEX(DATA)...][LF]
//
// The code must be a printable ASCII character and the payload at most
// MaxPayloadSize bytes.
func BuildCommand(code byte, payload []byte) ([]byte, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload length %d exceeds maximum %d bytes", len(payload), MaxPayloadSize)
	}

	frame := make([]byte, 1+hex.EncodedLen(len(payload))+1)
	frame[0] = code
	hex.Encode(frame[1:], payload)
	frame[len(frame)-1] = Terminator

	return frame, nil
}

// BuildKeyCmd constructs a key-load command frame.
// The key must be exactly KeySize bytes, in wire order.
//
// Frame structure:
//
//	[k][HEX(KEY(16))][LF]
func BuildKeyCmd(key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be exactly %d bytes, got %d", KeySize, len(key))
	}
	return BuildCommand(CmdKey, key)
}

// BuildPlaintextCmd constructs a plaintext-encrypt command frame.
// The block must be exactly BlockSize bytes, in wire order.
//
// Frame structure:
//
//	[p][HEX(TEXT(16))][LF]
func BuildPlaintextCmd(text []byte) ([]byte, error) {
	if len(text) != BlockSize {
		return nil, fmt.Errorf("plaintext must be exactly %d bytes, got %d", BlockSize, len(text))
	}
	return BuildCommand(CmdPlaintext, text)
}

// BuildModeCmd constructs a mode-select command frame for a victim with a
// runtime-selectable block size. Only the first payload byte is significant.
//
// Frame structure:
//
//	[m][HEX(FLAG(1) PAD(1))][LF]
func BuildModeCmd(large bool) ([]byte, error) {
	payload := make([]byte, ModeSize)
	if large {
		payload[0] = 0x01
	}
	return BuildCommand(CmdMode, payload)
}

// BuildMaskCmd constructs a mask command frame for a victim whose block size
// is fixed. The mask must be exactly MaskSize bytes.
//
// Frame structure:
//
//	[m][HEX(MASK(18))][LF]
func BuildMaskCmd(mask []byte) ([]byte, error) {
	if len(mask) != MaskSize {
		return nil, fmt.Errorf("mask must be exactly %d bytes, got %d", MaskSize, len(mask))
	}
	return BuildCommand(CmdMode, mask)
}

// BuildResetCmd constructs a reset command frame.
//
// Frame structure:
//
//	[x][LF]
func BuildResetCmd() ([]byte, error) {
	return BuildCommand(CmdReset, nil)
}

func validateCode(code byte) error {
	if code < 0x21 || code > 0x7E {
		return fmt.Errorf("invalid command code 0x%02X: must be a printable ASCII character", code)
	}
	return nil
}
