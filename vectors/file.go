package vectors

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/moffa90/go-simpleserial/primitive"
	"github.com/moffa90/go-simpleserial/victim"
)

// File is a parsed vector file.
type File struct {
	// Mode is the block mode set by the last mode directive
	Mode primitive.Mode

	// HasMode reports whether the file contains a mode directive
	HasMode bool

	// Vectors holds the vectors in file order
	Vectors []*Vector
}

// Vector is one known-answer triple.
type Vector struct {
	// Line is the 1-based line number the vector was read from
	Line int

	// Key is the key in wire order
	Key [16]byte

	// Plaintext is the input block in wire order
	Plaintext [16]byte

	// Ciphertext is the expected victim output in wire order
	Ciphertext [16]byte
}

// Write encodes f in the vector file format.
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)

	if f.HasMode {
		fmt.Fprintf(bw, "mode %s\n", f.Mode)
	}
	for _, v := range f.Vectors {
		fmt.Fprintf(bw, "%s %s %s\n",
			hex.EncodeToString(v.Key[:]),
			hex.EncodeToString(v.Plaintext[:]),
			hex.EncodeToString(v.Ciphertext[:]))
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write vectors: %w", err)
	}
	return nil
}

// Compute returns what a victim running p in mode answers for text under
// key.
func Compute(p primitive.Primitive, mode primitive.Mode, key, text [16]byte) [16]byte {
	s := victim.NewSession(p, mode, key)

	b := text
	victim.Reorder(&b)
	s.Encrypt(&b, nopTrigger{})
	victim.Reorder(&b)
	return b
}

// Generate builds a vector file of n vectors computed with p in mode. next
// supplies the key and plaintext of each vector.
func Generate(p primitive.Primitive, mode primitive.Mode, n int, next func() (key, text [16]byte)) *File {
	f := &File{
		Mode:    mode,
		HasMode: true,
		Vectors: make([]*Vector, 0, n),
	}

	for i := 0; i < n; i++ {
		key, text := next()
		f.Vectors = append(f.Vectors, &Vector{
			Line:       i + 2,
			Key:        key,
			Plaintext:  text,
			Ciphertext: Compute(p, mode, key, text),
		})
	}
	return f
}

type nopTrigger struct{}

func (nopTrigger) High() {}
func (nopTrigger) Low()  {}
