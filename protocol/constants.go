package protocol

// ProtocolVersion is the SimpleSerial protocol version implemented by this library.
const ProtocolVersion = "1.1"

// Frame structure constants.
const (
	// Terminator ends every frame
	Terminator = '\n'

	// CarriageReturn is tolerated before the terminator
	CarriageReturn = '\r'

	// MaxPayloadSize is the largest payload a frame may carry, in bytes
	MaxPayloadSize = 64

	// MaxFrameSize is the longest valid frame on the wire:
	// CODE(1) + HEX(2*MaxPayloadSize) + CR(1) + LF(1)
	MaxFrameSize = 1 + 2*MaxPayloadSize + 2

	// MaxCommands is the capacity of a device command table
	MaxCommands = 16
)

// Command codes understood by the victim.
const (
	// CmdKey loads a new 16-byte key
	CmdKey = 'k'

	// CmdPlaintext encrypts a 16-byte block under the current key
	CmdPlaintext = 'p'

	// CmdReset is a placeholder for clearing key state
	CmdReset = 'x'

	// CmdMode selects the block size, or carries a mask in fixed-mode builds
	CmdMode = 'm'
)

// Response tags sent by the victim.
const (
	// RespResult carries the 16-byte encryption result
	RespResult = 'r'

	// RespAck carries the 1-byte status of a command
	RespAck = 'z'
)

// Status codes carried by RespAck frames.
const (
	// StatusSuccess indicates the command was executed
	StatusSuccess = 0x00

	// ErrCommand indicates the command code is not registered
	ErrCommand = 0x01

	// ErrLength indicates the payload length does not match the command
	ErrLength = 0x02

	// ErrData indicates the payload is not valid hex
	ErrData = 0x03
)

// Payload sizes per command, in bytes.
const (
	// KeySize is the payload size of CmdKey
	KeySize = 16

	// BlockSize is the payload size of CmdPlaintext and of RespResult
	BlockSize = 16

	// ModeSize is the payload size of CmdMode when the mode is runtime-selectable
	ModeSize = 2

	// MaskSize is the payload size of CmdMode when it carries a mask
	MaskSize = 18

	// ResetSize is the payload size of CmdReset
	ResetSize = 0

	// AckSize is the payload size of RespAck
	AckSize = 1
)
