// Package primitive defines the block cipher capability consumed by the victim
// core and ships adapters for ciphers from golang.org/x/crypto.
//
// # Overview
//
// The victim never looks inside a cipher. It derives round keys once per
// key-load and then encrypts native 64-bit words:
//
//	rk := p.Schedule(primitive.SmallBlock, hi, lo, primitive.SmallBlock.ScheduleRounds())
//	ct := p.Encrypt64(word, rk, primitive.SmallBlock.Rounds())
//
// In large-block mode both words are encrypted together:
//
//	out := p.Encrypt128([2]uint64{hi, lo}, rk, primitive.LargeBlock.Rounds())
//
// # Word Order
//
// Words are plain integers. A word built from the wire bytes
// 01 02 03 04 05 06 07 08 has the value 0x0102030405060708; adapters that
// wrap byte-oriented ciphers serialize words big-endian so that the cipher sees
// the bytes exactly as they were sent.
//
// # Registry
//
// Primitives are looked up by name from configuration:
//
//	p, err := primitive.Lookup("xcrypto")
package primitive
