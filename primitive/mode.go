package primitive

import (
	"fmt"
	"strings"
)

// Mode selects the block size the victim encrypts with.
type Mode int

const (
	// SmallBlock encrypts each 64-bit half of a 16-byte buffer independently.
	SmallBlock Mode = iota

	// LargeBlock encrypts the whole 16-byte buffer as one 128-bit block.
	LargeBlock
)

// Round counts per block size.
const (
	// SmallScheduleRounds is the number of round keys derived for the 64-bit block
	SmallScheduleRounds = 29

	// SmallRounds is the number of rounds run on each 64-bit block
	SmallRounds = 28

	// LargeRounds is the number of round keys derived and rounds run for the 128-bit block
	LargeRounds = 41
)

// Rounds returns the number of encryption rounds for the mode.
func (m Mode) Rounds() int {
	if m == LargeBlock {
		return LargeRounds
	}
	return SmallRounds
}

// ScheduleRounds returns the number of round keys the key schedule derives.
func (m Mode) ScheduleRounds() int {
	if m == LargeBlock {
		return LargeRounds
	}
	return SmallScheduleRounds
}

// BlockSize returns the cipher block size in bytes.
func (m Mode) BlockSize() int {
	if m == LargeBlock {
		return 16
	}
	return 8
}

func (m Mode) String() string {
	switch m {
	case SmallBlock:
		return "small"
	case LargeBlock:
		return "large"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses a mode name. Accepted values are "small"/"64" and
// "large"/"128", case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small", "64":
		return SmallBlock, nil
	case "large", "128":
		return LargeBlock, nil
	default:
		return SmallBlock, fmt.Errorf("unknown block mode %q: expected small or large", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so modes can be read from
// configuration files.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
