package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError represents a non-success status acknowledged by the victim.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// StatusCode is the status from the acknowledgement
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	statusName := getStatusName(e.StatusCode)
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, statusName, e.StatusCode)
}

// IsProtocolError returns true if err is or wraps a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// StatusName returns a human-readable name for a status code.
func StatusName(code byte) string {
	return getStatusName(code)
}

func getStatusName(code byte) string {
	switch code {
	case StatusSuccess:
		return "success"
	case ErrCommand:
		return "unrecognized command"
	case ErrLength:
		return "invalid length"
	case ErrData:
		return "invalid data"
	default:
		return fmt.Sprintf("unknown status code 0x%02X", code)
	}
}
