package primitive

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/twofish"
	"golang.org/x/crypto/xtea"
)

// Library adapts ciphers from golang.org/x/crypto to the Primitive interface:
// XTEA for the 64-bit block and Twofish for the 128-bit block. Both take a
// 128-bit key.
//
// The library ciphers run their standard round counts; the rounds argument
// is accepted for interface compatibility and only checked to be positive.
type Library struct{}

type libraryKeys struct {
	mode  Mode
	small *xtea.Cipher
	large *twofish.Cipher
}

// Schedule implements Primitive.
func (Library) Schedule(mode Mode, hi, lo uint64, rounds int) RoundKeys {
	checkRounds(rounds)

	var key [16]byte
	binary.BigEndian.PutUint64(key[:8], hi)
	binary.BigEndian.PutUint64(key[8:], lo)

	// Both ciphers accept 16-byte keys, so NewCipher cannot fail here.
	if mode == LargeBlock {
		c, err := twofish.NewCipher(key[:])
		if err != nil {
			panic(fmt.Sprintf("primitive: twofish key schedule: %v", err))
		}
		return &libraryKeys{mode: mode, large: c}
	}

	c, err := xtea.NewCipher(key[:])
	if err != nil {
		panic(fmt.Sprintf("primitive: xtea key schedule: %v", err))
	}
	return &libraryKeys{mode: mode, small: c}
}

// Encrypt64 implements Primitive.
func (Library) Encrypt64(block uint64, rk RoundKeys, rounds int) uint64 {
	c := keysFor(rk, SmallBlock).small

	var b [8]byte
	binary.BigEndian.PutUint64(b[:], block)
	c.Encrypt(b[:], b[:])
	return binary.BigEndian.Uint64(b[:])
}

// Encrypt128 implements Primitive.
func (Library) Encrypt128(block [2]uint64, rk RoundKeys, rounds int) [2]uint64 {
	c := keysFor(rk, LargeBlock).large

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], block[0])
	binary.BigEndian.PutUint64(b[8:], block[1])
	c.Encrypt(b[:], b[:])
	return [2]uint64{binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])}
}

// Decrypt64 implements Inverse.
func (Library) Decrypt64(block uint64, rk RoundKeys, rounds int) uint64 {
	c := keysFor(rk, SmallBlock).small

	var b [8]byte
	binary.BigEndian.PutUint64(b[:], block)
	c.Decrypt(b[:], b[:])
	return binary.BigEndian.Uint64(b[:])
}

// Decrypt128 implements Inverse.
func (Library) Decrypt128(block [2]uint64, rk RoundKeys, rounds int) [2]uint64 {
	c := keysFor(rk, LargeBlock).large

	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], block[0])
	binary.BigEndian.PutUint64(b[8:], block[1])
	c.Decrypt(b[:], b[:])
	return [2]uint64{binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])}
}

func keysFor(rk RoundKeys, want Mode) *libraryKeys {
	k, ok := rk.(*libraryKeys)
	if !ok || k == nil {
		panic(fmt.Sprintf("primitive: round keys of type %T were not derived by Library", rk))
	}
	if k.mode != want {
		panic(fmt.Sprintf("primitive: round keys derived for %s block used for %s block", k.mode, want))
	}
	return k
}

func checkRounds(rounds int) {
	if rounds <= 0 {
		panic(fmt.Sprintf("primitive: invalid round count %d", rounds))
	}
}
