// Package vectors reads and writes known-answer vector files for victim
// verification.
//
// # File Format
//
// A vector file is line oriented. Blank lines and lines starting with '#'
// are ignored. An optional mode directive selects the block mode the
// vectors after it were computed for:
//
//	mode small
//	mode large
//
// Every other line holds three 16-byte values in hex, separated by
// whitespace, all in wire order:
//
//	[KEY(32)] [PLAINTEXT(32)] [CIPHERTEXT(32)]
//
// Example:
//
//	# Twofish, zero key
//	mode large
//	00000000000000000000000000000000 00000000000000000000000000000000 9f589f5cf6122c32b6bfec2f2ae8c35a
//
// # Usage
//
//	f, err := vectors.Parse("kat.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	n, err := capturer.Verify(ctx, f)
package vectors
