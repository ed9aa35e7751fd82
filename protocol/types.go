package protocol

import "fmt"

// Frame is a decoded SimpleSerial frame: a single-character code followed by
// a binary payload. Commands, results and acknowledgements share this shape.
type Frame struct {
	// Code is the command code or response tag
	Code byte

	// Data is the decoded payload
	Data []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("%c[%d]%X", f.Code, len(f.Data), f.Data)
}
