package victim

import (
	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/primitive"
)

// Session holds the key state of a running target: the round keys derived
// from the last loaded key, the key words they came from and the active
// block mode.
//
// A Session is owned by a single Target and is not safe for concurrent use.
type Session struct {
	prim primitive.Primitive
	mode primitive.Mode
	rk   primitive.RoundKeys

	// key words of the last loaded key, kept to re-derive on mode change
	hi, lo uint64
}

// NewSession creates a session in the given mode with key loaded.
func NewSession(p primitive.Primitive, mode primitive.Mode, key [16]byte) *Session {
	if p == nil {
		panic("primitive cannot be nil")
	}

	s := &Session{prim: p, mode: mode}
	s.LoadKey(key)
	return s
}

// LoadKey replaces the round keys with ones derived from key, given in wire
// order, under the current mode.
func (s *Session) LoadKey(key [16]byte) {
	Reorder(&key)
	s.hi, s.lo = Words(&key)
	s.schedule()
}

// SelectMode switches to LargeBlock when flag is nonzero and to SmallBlock
// otherwise. A change of mode re-derives the round keys from the last loaded
// key.
func (s *Session) SelectMode(flag byte) {
	mode := primitive.SmallBlock
	if flag != 0 {
		mode = primitive.LargeBlock
	}
	if mode == s.mode {
		return
	}

	s.mode = mode
	s.schedule()
}

// Current returns the active round keys and mode.
func (s *Session) Current() (primitive.RoundKeys, primitive.Mode) {
	return s.rk, s.mode
}

// Mode returns the active block mode.
func (s *Session) Mode() primitive.Mode {
	return s.mode
}

// KeyWords returns the native words of the last loaded key.
func (s *Session) KeyWords() (hi, lo uint64) {
	return s.hi, s.lo
}

func (s *Session) schedule() {
	s.rk = s.prim.Schedule(s.mode, s.hi, s.lo, s.mode.ScheduleRounds())
}

// Encrypt encrypts b, which must already be in native word order, under the
// session key. The trigger is high for exactly the duration of the primitive
// call: once around both 64-bit blocks in SmallBlock mode, once around the
// 128-bit block in LargeBlock mode.
func (s *Session) Encrypt(b *[16]byte, t hal.Trigger) {
	hi, lo := Words(b)
	rounds := s.mode.Rounds()

	if s.mode == primitive.LargeBlock {
		t.High()
		out := s.prim.Encrypt128([2]uint64{hi, lo}, s.rk, rounds)
		t.Low()
		hi, lo = out[0], out[1]
	} else {
		t.High()
		hi = s.prim.Encrypt64(hi, s.rk, rounds)
		lo = s.prim.Encrypt64(lo, s.rk, rounds)
		t.Low()
	}

	PutWords(b, hi, lo)
}
