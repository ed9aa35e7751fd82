package vectors

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moffa90/go-simpleserial/primitive"
)

const (
	zero = "00000000000000000000000000000000"
	kat  = "9f589f5cf6122c32b6bfec2f2ae8c35a"
)

func TestParseReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *File
		wantErr bool
		errMsg  string
	}{
		{
			name:  "single vector without mode",
			input: zero + " " + zero + " " + kat + "\n",
			want: &File{
				Mode: primitive.SmallBlock,
				Vectors: []*Vector{{
					Line:       1,
					Ciphertext: [16]byte{0x9f, 0x58, 0x9f, 0x5c, 0xf6, 0x12, 0x2c, 0x32, 0xb6, 0xbf, 0xec, 0x2f, 0x2a, 0xe8, 0xc3, 0x5a},
				}},
			},
		},
		{
			name: "comments, blank lines and mode",
			input: "# Twofish, zero key\n" +
				"\n" +
				"mode large\n" +
				"  " + zero + "\t" + zero + "   " + strings.ToUpper(kat) + "  \n",
			want: &File{
				Mode:    primitive.LargeBlock,
				HasMode: true,
				Vectors: []*Vector{{
					Line:       4,
					Ciphertext: [16]byte{0x9f, 0x58, 0x9f, 0x5c, 0xf6, 0x12, 0x2c, 0x32, 0xb6, 0xbf, 0xec, 0x2f, 0x2a, 0xe8, 0xc3, 0x5a},
				}},
			},
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
			errMsg:  "no vectors found",
		},
		{
			name:    "only comments",
			input:   "# nothing\nmode small\n",
			wantErr: true,
			errMsg:  "no vectors found",
		},
		{
			name:    "missing field",
			input:   zero + " " + zero + "\n",
			wantErr: true,
			errMsg:  "line 1: expected 3 fields",
		},
		{
			name:    "short key",
			input:   "# header\n0011 " + zero + " " + zero + "\n",
			wantErr: true,
			errMsg:  "line 2: key: invalid length",
		},
		{
			name:    "bad ciphertext hex",
			input:   zero + " " + zero + " " + strings.Repeat("zz", 16) + "\n",
			wantErr: true,
			errMsg:  "ciphertext: invalid hex data",
		},
		{
			name:    "unknown mode",
			input:   "mode medium\n",
			wantErr: true,
			errMsg:  "line 1: unknown block mode",
		},
		{
			name:    "mode without argument",
			input:   "mode\n",
			wantErr: true,
			errMsg:  "exactly one argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReader(strings.NewReader(tt.input))

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseReader() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kat.txt")
	if err := os.WriteFile(path, []byte("mode large\n"+zero+" "+zero+" "+kat+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := Parse(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Vectors) != 1 || f.Mode != primitive.LargeBlock {
		t.Errorf("Parse() = %+v", f)
	}

	if _, err := Parse(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCompute(t *testing.T) {
	got := Compute(primitive.Library{}, primitive.LargeBlock, [16]byte{}, [16]byte{})
	want := [16]byte{0x9f, 0x58, 0x9f, 0x5c, 0xf6, 0x12, 0x2c, 0x32, 0xb6, 0xbf, 0xec, 0x2f, 0x2a, 0xe8, 0xc3, 0x5a}
	if got != want {
		t.Errorf("Compute() = %x, want %x", got, want)
	}
}

func TestGenerateWriteParse(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	next := func() (key, text [16]byte) {
		rng.Read(key[:])
		rng.Read(text[:])
		return key, text
	}

	for _, mode := range []primitive.Mode{primitive.SmallBlock, primitive.LargeBlock} {
		t.Run(mode.String(), func(t *testing.T) {
			f := Generate(primitive.Library{}, mode, 8, next)

			var buf bytes.Buffer
			if err := Write(&buf, f); err != nil {
				t.Fatalf("Write() error: %v", err)
			}

			parsed, err := ParseReader(&buf)
			if err != nil {
				t.Fatalf("ParseReader() error: %v", err)
			}
			if diff := cmp.Diff(f, parsed); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}

			for _, v := range parsed.Vectors {
				if got := Compute(primitive.Library{}, mode, v.Key, v.Plaintext); got != v.Ciphertext {
					t.Errorf("line %d: Compute() = %x, want %x", v.Line, got, v.Ciphertext)
				}
			}
		})
	}
}
