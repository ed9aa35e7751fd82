package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func TestBuildKeyCmd(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		want    string
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid 16-byte key",
			key: []byte{0x2b, 0x7e, 0x15, 0x16, 0x28, 0xae, 0xd2, 0xa6,
				0xab, 0xf7, 0x15, 0x88, 0x09, 0xcf, 0x4f, 0x3c},
			want: "k2b7e151628aed2a6abf7158809cf4f3c\n",
		},
		{
			name:    "invalid 8-byte key",
			key:     make([]byte, 8),
			wantErr: true,
			errMsg:  "key must be exactly 16 bytes",
		},
		{
			name:    "nil key",
			key:     nil,
			wantErr: true,
			errMsg:  "key must be exactly 16 bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildKeyCmd(tt.key)

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
			if string(frame) != tt.want {
				t.Errorf("frame = %q, want %q", frame, tt.want)
			}
		})
	}
}

func TestBuildPlaintextCmd(t *testing.T) {
	text := []byte{0xba, 0xdc, 0x0f, 0xfe, 0xeb, 0xad, 0xf0, 0x0d,
		0xba, 0xdc, 0x0f, 0xfe, 0xeb, 0xad, 0xf0, 0x0d}

	frame, err := BuildPlaintextCmd(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if frame[0] != CmdPlaintext {
		t.Errorf("CODE = %q, want %q", frame[0], CmdPlaintext)
	}
	if frame[len(frame)-1] != Terminator {
		t.Errorf("terminator = 0x%02X, want 0x%02X", frame[len(frame)-1], Terminator)
	}
	if got, want := string(frame[1:len(frame)-1]), "badc0ffeebadf00dbadc0ffeebadf00d"; got != want {
		t.Errorf("payload = %q, want %q", got, want)
	}

	if _, err := BuildPlaintextCmd(text[:15]); err == nil {
		t.Error("expected error for 15-byte plaintext")
	}
}

func TestBuildModeCmd(t *testing.T) {
	tests := []struct {
		name  string
		large bool
		want  string
	}{
		{name: "small block", large: false, want: "m0000\n"},
		{name: "large block", large: true, want: "m0100\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := BuildModeCmd(tt.large)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(frame) != tt.want {
				t.Errorf("frame = %q, want %q", frame, tt.want)
			}
		})
	}
}

func TestBuildMaskCmd(t *testing.T) {
	frame, err := BuildMaskCmd(make([]byte, MaskSize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := 1 + 2*MaskSize + 1; len(frame) != want {
		t.Errorf("frame length = %d, want %d", len(frame), want)
	}

	if _, err := BuildMaskCmd(make([]byte, ModeSize)); err == nil {
		t.Error("expected error for 2-byte mask")
	}
}

func TestBuildResetCmd(t *testing.T) {
	frame, err := BuildResetCmd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(frame, []byte("x\n")) {
		t.Errorf("frame = %q, want %q", frame, "x\n")
	}
}

func TestBuildCommand(t *testing.T) {
	tests := []struct {
		name    string
		code    byte
		payload []byte
		wantErr bool
		errMsg  string
	}{
		{
			name:    "max payload",
			code:    'p',
			payload: make([]byte, MaxPayloadSize),
		},
		{
			name:    "payload too large",
			code:    'p',
			payload: make([]byte, MaxPayloadSize+1),
			wantErr: true,
			errMsg:  "exceeds maximum",
		},
		{
			name:    "newline code",
			code:    '\n',
			wantErr: true,
			errMsg:  "invalid command code",
		},
		{
			name:    "space code",
			code:    ' ',
			wantErr: true,
			errMsg:  "invalid command code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildCommand(tt.code, tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildCommand() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %v, want substring %q", err, tt.errMsg)
			}
		})
	}
}

func BenchmarkBuildPlaintextCmd(b *testing.B) {
	text := make([]byte, BlockSize)
	for i := range text {
		text[i] = byte(i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = BuildPlaintextCmd(text)
	}
}
