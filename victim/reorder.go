package victim

import "encoding/binary"

// Reorder reverses the byte order of each 8-byte half of b in place. It
// converts between wire order and native word order in both directions.
func Reorder(b *[16]byte) {
	for i := 0; i < 4; i++ {
		b[i], b[7-i] = b[7-i], b[i]
		b[8+i], b[15-i] = b[15-i], b[8+i]
	}
}

// Words returns the two native 64-bit words held in b.
func Words(b *[16]byte) (hi, lo uint64) {
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])
}

// PutWords stores two native 64-bit words into b.
func PutWords(b *[16]byte, hi, lo uint64) {
	binary.LittleEndian.PutUint64(b[:8], hi)
	binary.LittleEndian.PutUint64(b[8:], lo)
}
