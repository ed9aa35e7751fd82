package vectors

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moffa90/go-simpleserial/primitive"
)

// Constants for vector file parsing.
const (
	// FieldLength is the length of each field in hex characters
	FieldLength = 32

	// CommentPrefix starts a comment line
	CommentPrefix = "#"

	// ModeDirective starts a mode line
	ModeDirective = "mode"

	// DefaultVectorCapacity is the default initial capacity for the vectors slice
	DefaultVectorCapacity = 64
)

// Parse parses a vector file from the given path.
//
// Example:
//
//	f, err := vectors.Parse("kat.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d vectors\n", len(f.Vectors))
func Parse(path string) (*File, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = fd.Close() }()

	return ParseReader(fd)
}

// ParseReader parses a vector file from any io.Reader.
//
// Example:
//
//	f, err := vectors.ParseReader(strings.NewReader(content))
func ParseReader(r io.Reader) (*File, error) {
	scanner := bufio.NewScanner(r)
	f := &File{
		Mode:    primitive.SmallBlock,
		Vectors: make([]*Vector, 0, DefaultVectorCapacity),
	}

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, CommentPrefix) {
			continue
		}

		fields := strings.Fields(line)
		if fields[0] == ModeDirective {
			mode, err := parseMode(fields)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			f.Mode = mode
			f.HasMode = true
			continue
		}

		v, err := parseVector(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		v.Line = lineNum
		f.Vectors = append(f.Vectors, v)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if len(f.Vectors) == 0 {
		return nil, fmt.Errorf("no vectors found in file")
	}

	return f, nil
}

// parseMode parses a mode directive.
//
// Format:
//
//	mode [small|large]
func parseMode(fields []string) (primitive.Mode, error) {
	if len(fields) != 2 {
		return primitive.SmallBlock, fmt.Errorf("mode directive takes exactly one argument, got %d", len(fields)-1)
	}
	return primitive.ParseMode(fields[1])
}

// parseVector parses a vector line.
//
// Format:
//
//	[KEY(32)] [PLAINTEXT(32)] [CIPHERTEXT(32)]
func parseVector(fields []string) (*Vector, error) {
	if len(fields) != 3 {
		return nil, fmt.Errorf("expected 3 fields (key plaintext ciphertext), got %d", len(fields))
	}

	v := &Vector{}
	targets := []struct {
		name string
		dst  *[16]byte
	}{
		{"key", &v.Key},
		{"plaintext", &v.Plaintext},
		{"ciphertext", &v.Ciphertext},
	}

	for i, target := range targets {
		if err := decodeField(fields[i], target.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", target.name, err)
		}
	}

	return v, nil
}

func decodeField(s string, dst *[16]byte) error {
	if len(s) != FieldLength {
		return fmt.Errorf("invalid length: got %d characters, expected %d", len(s), FieldLength)
	}
	if _, err := hex.Decode(dst[:], []byte(s)); err != nil {
		return fmt.Errorf("invalid hex data: %w", err)
	}
	return nil
}
