package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/moffa90/go-simpleserial/capture"
	"github.com/moffa90/go-simpleserial/config"
	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/primitive"
	"github.com/moffa90/go-simpleserial/protocol"
	"github.com/moffa90/go-simpleserial/vectors"
	"github.com/moffa90/go-simpleserial/victim"
)

// withVictim makes every port opened by the CLI a link to a fresh
// in-process victim, and captures standard output.
func withVictim(t *testing.T, opts ...victim.Option) *bytes.Buffer {
	t.Helper()

	var wg sync.WaitGroup
	savedOpen, savedOut := openPort, output
	out := &bytes.Buffer{}
	output = out

	openPort = func(config.Capture) (io.ReadWriteCloser, error) {
		host, device := net.Pipe()
		target, err := victim.New(hal.NewHost(nil), protocol.NewDevice(device), opts...)
		if err != nil {
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = target.Serve(context.Background())
			_ = device.Close()
		}()
		return host, nil
	}

	t.Cleanup(func() {
		wg.Wait()
		openPort, output = savedOpen, savedOut
	})
	return out
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return CLI().Run(append([]string{"capture", "--port", "pipe", "--timeout", "5s"}, args...))
}

func TestEncryptCommand(t *testing.T) {
	out := withVictim(t)

	text := "00112233445566778899aabbccddeeff"
	require.NoError(t, run(t, "encrypt", text))

	p, err := primitive.Lookup(primitive.DefaultName)
	require.NoError(t, err)
	raw, _ := config.ParseKey(text)
	want := vectors.Compute(p, primitive.SmallBlock, victim.DefaultKey, raw)
	require.Equal(t, hex.EncodeToString(want[:])+"\n", out.String())
}

func TestControlCommands(t *testing.T) {
	withVictim(t, victim.WithRuntimeMode(true))

	require.NoError(t, run(t, "key", "000102030405060708090a0b0c0d0e0f"))
	require.NoError(t, run(t, "mode", "large"))
	require.NoError(t, run(t, "reset"))
}

func TestCommandArguments(t *testing.T) {
	withVictim(t)

	tests := []struct {
		name   string
		args   []string
		errMsg string
	}{
		{
			name:   "missing key",
			args:   []string{"key"},
			errMsg: "expected one argument",
		},
		{
			name:   "short plaintext",
			args:   []string{"encrypt", "0011"},
			errMsg: "exactly 16 bytes",
		},
		{
			name:   "bad mode",
			args:   []string{"mode", "huge"},
			errMsg: "unknown block mode",
		},
		{
			name:   "bad mask",
			args:   []string{"mask", "zz"},
			errMsg: "invalid mask",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, tt.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMaskOnFixedModeBuild(t *testing.T) {
	withVictim(t)
	require.NoError(t, run(t, "mask", strings.Repeat("ab", protocol.MaskSize)))
}

func TestRunMatchesGenerate(t *testing.T) {
	withVictim(t, victim.WithRuntimeMode(true))
	dir := t.TempDir()
	captured := filepath.Join(dir, "captured.txt")
	generated := filepath.Join(dir, "generated.txt")

	require.NoError(t, run(t, "run", "--pattern", "tvla", "--traces", "20", "--seed", "7", "--mode", "large", "--out", captured))
	require.NoError(t, run(t, "generate", "--pattern", "tvla", "--traces", "20", "--seed", "7", "--mode", "large", "--out", generated))

	a, err := os.ReadFile(captured)
	require.NoError(t, err)
	b, err := os.ReadFile(generated)
	require.NoError(t, err)
	require.Equal(t, string(b), string(a))

	f, err := vectors.Parse(captured)
	require.NoError(t, err)
	require.Len(t, f.Vectors, 20)
	require.Equal(t, primitive.LargeBlock, f.Mode)
}

func TestVerifyCommand(t *testing.T) {
	out := withVictim(t, victim.WithRuntimeMode(true))
	path := filepath.Join(t.TempDir(), "kat.txt")

	require.NoError(t, run(t, "generate", "--traces", "8", "--seed", "1", "--mode", "large", "--out", path))
	require.NoError(t, run(t, "verify", path))
	require.Equal(t, "8 vectors passed\n", out.String())
}

func TestRunWithoutModeVerifiesOnLargeVictim(t *testing.T) {
	withVictim(t, victim.WithMode(primitive.LargeBlock), victim.WithRuntimeMode(true))
	path := filepath.Join(t.TempDir(), "captured.txt")

	require.NoError(t, run(t, "run", "--traces", "4", "--seed", "3", "--out", path))

	f, err := vectors.Parse(path)
	require.NoError(t, err)
	require.False(t, f.HasMode)
	require.Len(t, f.Vectors, 4)

	require.NoError(t, run(t, "verify", path))
}

func TestVerifyMismatch(t *testing.T) {
	withVictim(t)
	path := filepath.Join(t.TempDir(), "kat.txt")

	// The victim stays in small mode, so large-mode answers cannot match.
	require.NoError(t, run(t, "generate", "--traces", "4", "--seed", "1", "--mode", "large", "--out", path))
	err := run(t, "verify", "--skip-mode", path)
	require.Error(t, err)

	var mismatch *capture.MismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Contains(t, err.Error(), "0 of 4 vectors passed")
}

func TestContextToConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[capture]
port = "/dev/ttyACM1"
timeout = "250ms"
pattern = "tvla"
traces = 50
`), 0o600))

	app := CLI()
	var cc config.Capture
	app.Commands[0].Action = func(c *cli.Context) error {
		var err error
		cc, err = contextToConfig(c)
		return err
	}
	require.NoError(t, app.Run([]string{"capture", "--config", path, "--delay", "1ms", "key"}))

	require.Equal(t, "/dev/ttyACM1", cc.Port)
	require.Equal(t, 250*time.Millisecond, cc.Timeout.Duration)
	require.Equal(t, time.Millisecond, cc.CommandDelay.Duration)
	require.Equal(t, "tvla", cc.Pattern)
	require.Equal(t, 50, cc.Traces)
	require.NoError(t, cc.Validate())
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	pb := newProgressBar(&buf, 10)

	require.Equal(t, "[#####.....]  50.0%", pb.render(50))
	require.Equal(t, "[##########] 100.0%", pb.render(100))

	pb.update(capture.Progress{Phase: capture.PhaseCapturing, Current: 1, Total: 200, Percentage: 0.5})
	pb.update(capture.Progress{Phase: capture.PhaseCapturing, Current: 2, Total: 200, Percentage: 1.0})
	pb.update(capture.Progress{Phase: capture.PhaseCapturing, Current: 3, Total: 200, Percentage: 1.5})
	require.Equal(t, 2, strings.Count(buf.String(), "\r"))

	pb.update(capture.Progress{Phase: capture.PhaseComplete, Total: 200, ElapsedTime: time.Second})
	require.True(t, strings.HasSuffix(buf.String(), "200/200 in 1s\n"))
}
