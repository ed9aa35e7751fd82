// Package protocol implements the SimpleSerial v1.1 framing used by
// ChipWhisperer capture targets.
//
// # Protocol Overview
//
// Every frame is a single line of ASCII text: a one-character code followed
// by the payload encoded as hexadecimal, terminated by a line feed.
//
//	Command:  [CODE][HEX(DATA)...][LF]
//	Result:   [r][HEX(DATA)...][LF]
//	Ack:      [z][HEX(STATUS)][LF]
//
// Where:
//   - CODE identifies the command (k, p, x, m)
//   - DATA is at most MaxPayloadSize bytes
//   - a CR before the LF is accepted on input
//
// Each command has a fixed payload length. Every command is answered with an
// ack frame; commands that produce data send a result frame first.
//
// # Host Side
//
// Use the Build* functions to create command frames:
//
//	frame, err := protocol.BuildKeyCmd(key)
//	frame, err := protocol.BuildPlaintextCmd(text)
//
// and ReadFrame, ParseAck and ParseResult to decode what comes back:
//
//	f, err := protocol.ReadFrame(r)
//	status, err := protocol.ParseAck(f)
//
// # Device Side
//
// Device validates incoming frames against the registered command lengths
// and only returns well-formed commands:
//
//	d := protocol.NewDevice(port)
//	d.Accept(protocol.CmdKey, protocol.KeySize)
//	f, err := d.ReadCommand()
//
// Unknown codes, wrong lengths and bad hex are acknowledged with ErrCommand,
// ErrLength and ErrData respectively and never reach the caller.
//
// # Error Handling
//
// Status codes other than StatusSuccess indicate errors:
//
//	if status != protocol.StatusSuccess {
//	    err := &protocol.ProtocolError{Operation: "load key", StatusCode: status}
//	    // err.Error() returns: "load key failed: invalid length (0x02)"
//	}
package protocol
