package capture

import (
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/moffa90/go-simpleserial/capture/ktp"
	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/primitive"
	"github.com/moffa90/go-simpleserial/protocol"
	"github.com/moffa90/go-simpleserial/vectors"
	"github.com/moffa90/go-simpleserial/victim"
)

// startVictim serves a victim on one end of an in-memory link and returns a
// capturer on the other end. The returned function closes the link and
// waits for the victim to stop.
func startVictim(t *testing.T, opts ...victim.Option) (*Capturer, *hal.Host, func()) {
	t.Helper()

	host, device := net.Pipe()
	platform := hal.NewHost(nil)

	target, err := victim.New(platform, protocol.NewDevice(device), opts...)
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return target.Serve(ctx)
	})

	stop := func() {
		require.NoError(t, host.Close())
		require.NoError(t, g.Wait())
	}
	return New(host, WithReadTimeout(5*time.Second)), platform, stop
}

func TestCaptureAgainstVictim(t *testing.T) {
	c, platform, stop := startVictim(t, victim.WithRuntimeMode(true))
	defer stop()
	ctx := context.Background()

	require.NoError(t, c.SelectMode(ctx, primitive.LargeBlock))
	require.NoError(t, c.SetKey(ctx, [16]byte{}))
	out, err := c.Encrypt(ctx, [16]byte{})
	require.NoError(t, err)
	require.Equal(t, [16]byte{
		0x9f, 0x58, 0x9f, 0x5c, 0xf6, 0x12, 0x2c, 0x32,
		0xb6, 0xbf, 0xec, 0x2f, 0x2a, 0xe8, 0xc3, 0x5a,
	}, out)

	require.NoError(t, c.Reset(ctx))
	again, err := c.Encrypt(ctx, [16]byte{})
	require.NoError(t, err)
	require.Equal(t, out, again)

	require.Equal(t, uint64(2), platform.Windows())
}

func TestRunAndVerifyAgainstVictim(t *testing.T) {
	for _, mode := range []primitive.Mode{primitive.SmallBlock, primitive.LargeBlock} {
		t.Run(mode.String(), func(t *testing.T) {
			c, _, stop := startVictim(t, victim.WithRuntimeMode(true), victim.WithJitter(true))
			defer stop()
			ctx := context.Background()

			require.NoError(t, c.SelectMode(ctx, mode))

			const n = 40
			pattern := ktp.NewTVLABase3(n, rand.New(rand.NewSource(9)))
			traces, err := c.Run(ctx, pattern, n)
			require.NoError(t, err)
			require.Len(t, traces, n)

			for _, tr := range traces {
				require.Equal(t, vectors.Compute(primitive.Library{}, mode, tr.Key, tr.Text), tr.Output)
			}

			verified, err := c.Verify(ctx, Vectors(mode, traces))
			require.NoError(t, err)
			require.Equal(t, n, verified)
		})
	}
}

func TestVerifyDetectsWrongMode(t *testing.T) {
	c, _, stop := startVictim(t, victim.WithRuntimeMode(true))
	defer stop()
	ctx := context.Background()

	rng := rand.New(rand.NewSource(1))
	f := vectors.Generate(primitive.Library{}, primitive.LargeBlock, 3, ktp.NewBasic(victim.DefaultKey, rng).Next)
	f.HasMode = false

	_, err := c.Verify(ctx, f)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 2, mismatch.Line)
}

func TestFixedModeVictimRejectsModeSelect(t *testing.T) {
	c, _, stop := startVictim(t, victim.WithMode(primitive.LargeBlock))
	defer stop()
	ctx := context.Background()

	err := c.SelectMode(ctx, primitive.SmallBlock)
	require.True(t, protocol.IsProtocolError(err), "error = %v", err)

	require.NoError(t, c.SendMask(ctx, make([]byte, protocol.MaskSize)))

	out, err := c.Encrypt(ctx, [16]byte{})
	require.NoError(t, err)
	require.Equal(t, vectors.Compute(primitive.Library{}, primitive.LargeBlock, victim.DefaultKey, [16]byte{}), out)
}

func TestReadDeadlineIgnoresFakeClock(t *testing.T) {
	host, device := net.Pipe()
	target, err := victim.New(hal.NewHost(nil), protocol.NewDevice(device))
	require.NoError(t, err)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		return target.Serve(ctx)
	})

	// A clock far in the past would expire every deadline if it were used.
	fake := clockwork.NewFakeClockAt(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC))
	c := New(host, WithClock(fake), WithReadTimeout(5*time.Second))

	_, err = c.Encrypt(context.Background(), [16]byte{})
	require.NoError(t, err)

	require.NoError(t, host.Close())
	require.NoError(t, g.Wait())
}
