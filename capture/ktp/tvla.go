package ktp

import (
	"encoding/hex"
	"math/rand"
	"strings"
)

// Base3Digits are the hex digits allowed in a base-3 plaintext.
const Base3Digits = "01245689a"

// TVLAKey is the fixed key used by TVLABase3.
var TVLAKey = [16]byte{
	0x00, 0x11, 0x22, 0x44, 0x55, 0x66, 0x88, 0x99,
	0xaa, 0x01, 0x24, 0x56, 0x89, 0xa0, 0x12, 0x45,
}

// TVLAFixedText is the plaintext of the fixed group.
var TVLAFixedText = [16]byte{
	0x11, 0x01, 0x21, 0x08, 0x99, 0xa4, 0x55, 0x46,
	0xaa, 0xa1, 0x00, 0x21, 0x45, 0x64, 0x45, 0x46,
}

// TVLABase3 is a fixed-key, fixed-vs-random plaintext pattern for Welch
// t-tests. Random plaintexts are restricted to hex digits in Base3Digits.
// For a planned trace count the two groups are balanced: each pair picks a
// group with probability proportional to the traces that group still needs.
//
// The first random-group pair carries an all-zero plaintext.
type TVLABase3 struct {
	rng       *rand.Rand
	pending   [16]byte
	remaining [2]int
	last      Group
}

// NewTVLABase3 returns a pattern planned for traces pairs.
func NewTVLABase3(traces int, rng *rand.Rand) *TVLABase3 {
	if rng == nil {
		panic("rng cannot be nil")
	}
	if traces < 0 {
		traces = 0
	}

	p := &TVLABase3{rng: rng}
	p.remaining[GroupRandom] = traces / 2
	p.remaining[GroupFixed] = traces - traces/2
	return p
}

// Next implements Pattern.
func (p *TVLABase3) Next() (key, text [16]byte) {
	group := p.pickGroup()
	p.last = group
	if p.remaining[group] > 0 {
		p.remaining[group]--
	}

	if group == GroupFixed {
		return TVLAKey, TVLAFixedText
	}

	text = p.pending
	p.pending = p.randomBase3()
	return TVLAKey, text
}

// LastGroup returns the group of the pair most recently returned by Next.
func (p *TVLABase3) LastGroup() Group {
	return p.last
}

// Remaining returns how many pairs of each group the plan still needs.
func (p *TVLABase3) Remaining() (random, fixed int) {
	return p.remaining[GroupRandom], p.remaining[GroupFixed]
}

func (p *TVLABase3) pickGroup() Group {
	r := p.rng.Float64()

	total := p.remaining[GroupRandom] + p.remaining[GroupFixed]
	if total == 0 {
		if r < 0.5 {
			return GroupRandom
		}
		return GroupFixed
	}

	if r < float64(p.remaining[GroupRandom])/float64(total) {
		return GroupRandom
	}
	return GroupFixed
}

func (p *TVLABase3) randomBase3() [16]byte {
	var digits [32]byte
	for i := range digits {
		digits[i] = Base3Digits[p.rng.Intn(len(Base3Digits))]
	}

	var text [16]byte
	// Every digit is valid hex, so decoding cannot fail.
	_, _ = hex.Decode(text[:], digits[:])
	return text
}

// IsBase3 reports whether every hex digit of text is in Base3Digits.
func IsBase3(text [16]byte) bool {
	for _, c := range hex.EncodeToString(text[:]) {
		if !strings.ContainsRune(Base3Digits, c) {
			return false
		}
	}
	return true
}
