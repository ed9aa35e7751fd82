// Package ktp generates the key/text pairs sent to a victim during capture.
//
// Patterns are not safe for concurrent use. They draw from the *rand.Rand
// they are given so a capture can be replayed from its seed.
package ktp

import (
	"fmt"
	"math/rand"
	"strings"
)

// Pattern produces the next key and plaintext to capture.
type Pattern interface {
	Next() (key, text [16]byte)
}

// Group identifies which half of a fixed-vs-random set a pair belongs to.
type Group int

const (
	// GroupRandom pairs carry a fresh random plaintext
	GroupRandom Group = iota

	// GroupFixed pairs carry the fixed plaintext
	GroupFixed
)

func (g Group) String() string {
	if g == GroupFixed {
		return "fixed"
	}
	return "random"
}

// New returns the pattern with the given name: "basic" or "tvla".
func New(name string, key [16]byte, traces int, rng *rand.Rand) (Pattern, error) {
	switch strings.ToLower(name) {
	case "basic":
		return NewBasic(key, rng), nil
	case "tvla":
		return NewTVLABase3(traces, rng), nil
	default:
		return nil, fmt.Errorf("unknown pattern %q: expected basic or tvla", name)
	}
}

// Basic uses a fixed key and a random plaintext for every pair. With
// RandomKey set the key is random too.
type Basic struct {
	// RandomKey draws a new key for every pair
	RandomKey bool

	// FixedText repeats Text instead of drawing a random plaintext
	FixedText bool

	// Text is the plaintext used when FixedText is set
	Text [16]byte

	key [16]byte
	rng *rand.Rand
}

// NewBasic returns a fixed-key, random-text pattern.
func NewBasic(key [16]byte, rng *rand.Rand) *Basic {
	if rng == nil {
		panic("rng cannot be nil")
	}
	return &Basic{key: key, rng: rng}
}

// Next implements Pattern.
func (b *Basic) Next() (key, text [16]byte) {
	if b.RandomKey {
		b.rng.Read(b.key[:])
	}
	key = b.key

	if b.FixedText {
		return key, b.Text
	}
	b.rng.Read(text[:])
	return key, text
}
