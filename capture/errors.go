package capture

import (
	"fmt"

	"github.com/moffa90/go-simpleserial/protocol"
)

// MismatchError indicates that the victim answered a known-answer vector
// with an unexpected ciphertext.
type MismatchError struct {
	Line      int
	Key       [16]byte
	Plaintext [16]byte
	Expected  [16]byte
	Actual    [16]byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("vector at line %d: key %x plaintext %x: expected %x, got %x",
		e.Line, e.Key, e.Plaintext, e.Expected, e.Actual)
}

// UnexpectedFrameError indicates that the victim sent a frame the current
// operation did not expect.
type UnexpectedFrameError struct {
	Operation string
	Frame     protocol.Frame
}

func (e *UnexpectedFrameError) Error() string {
	return fmt.Sprintf("%s: unexpected frame %s", e.Operation, e.Frame)
}
