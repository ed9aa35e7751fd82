package victim

import (
	"bytes"
	"encoding/hex"
	"math/bits"
	"strings"
	"testing"

	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/primitive"
)

type stubKeys struct {
	mode   primitive.Mode
	hi, lo uint64
	rounds int
}

// stubPrimitive is a cheap reversible stand-in for a block cipher. Every call
// is marked on the recorder so tests can see where it ran.
type stubPrimitive struct {
	rec       *hal.Recorder
	schedules []stubKeys
}

func (s *stubPrimitive) mark(label string) {
	if s.rec != nil {
		s.rec.Mark(label)
	}
}

func (s *stubPrimitive) Schedule(mode primitive.Mode, hi, lo uint64, rounds int) primitive.RoundKeys {
	s.mark("schedule")
	k := stubKeys{mode: mode, hi: hi, lo: lo, rounds: rounds}
	s.schedules = append(s.schedules, k)
	return k
}

func (s *stubPrimitive) Encrypt64(block uint64, rk primitive.RoundKeys, rounds int) uint64 {
	s.mark("encrypt64")
	k := rk.(stubKeys)
	return bits.RotateLeft64(block^k.hi, rounds) ^ k.lo
}

func (s *stubPrimitive) Encrypt128(block [2]uint64, rk primitive.RoundKeys, rounds int) [2]uint64 {
	s.mark("encrypt128")
	k := rk.(stubKeys)
	return [2]uint64{
		bits.RotateLeft64(block[1]^k.lo, rounds),
		bits.RotateLeft64(block[0]^k.hi, rounds),
	}
}

// link is an in-memory serial link: reads come from in, writes go to out.
type link struct {
	in  *strings.Reader
	out bytes.Buffer
}

func newLink(input string) *link {
	return &link{in: strings.NewReader(input)}
}

func (l *link) Read(p []byte) (int, error)  { return l.in.Read(p) }
func (l *link) Write(p []byte) (int, error) { return l.out.Write(p) }

func mustBlock(t testing.TB, s string) [16]byte {
	t.Helper()
	var b [16]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 16 {
		t.Fatalf("bad block %q: %v", s, err)
	}
	copy(b[:], raw)
	return b
}
