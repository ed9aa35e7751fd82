package victim

import (
	"github.com/moffa90/go-simpleserial/hal"
	"github.com/moffa90/go-simpleserial/protocol"
)

// Context is passed to every handler. It carries the session and trigger and
// collects the response frames a handler wants sent ahead of its status.
type Context struct {
	// Session is the live key state
	Session *Session

	// Trigger is raised around the cipher call
	Trigger hal.Trigger

	// Jitter enables the data-dependent delay before encryption
	Jitter bool

	responses []response
}

type response struct {
	tag  byte
	data []byte
}

// Respond queues a tagged response frame. Queued frames are sent in order
// before the command's status.
func (c *Context) Respond(tag byte, data []byte) {
	c.responses = append(c.responses, response{tag: tag, data: data})
}

func (c *Context) reset() {
	c.responses = c.responses[:0]
}

// handleKey loads a new key.
func handleKey(c *Context, payload []byte) byte {
	c.Session.LoadKey(*(*[protocol.KeySize]byte)(payload))
	return protocol.StatusSuccess
}

// handlePlaintext encrypts the payload in place and responds with it.
func handlePlaintext(c *Context, payload []byte) byte {
	b := (*[protocol.BlockSize]byte)(payload)

	Reorder(b)
	if c.Jitter {
		jitter(b)
	}
	c.Session.Encrypt(b, c.Trigger)
	Reorder(b)

	c.Respond(protocol.RespResult, payload)
	return protocol.StatusSuccess
}

// handleMode selects the block mode from the first payload byte.
func handleMode(c *Context, payload []byte) byte {
	c.Session.SelectMode(payload[0])
	return protocol.StatusSuccess
}

// handleMask accepts a mask and ignores it. No masked primitive is wired.
func handleMask(c *Context, payload []byte) byte {
	return protocol.StatusSuccess
}

// handleReset does nothing; the key and mode survive a reset.
func handleReset(c *Context, payload []byte) byte {
	return protocol.StatusSuccess
}

var jitterSink uint32

// jitter spins for as many iterations as the low nibble of the first byte
// of b, which is already in native order. Returns the iteration count.
func jitter(b *[16]byte) int {
	n := int(b[0] & 0x0F)
	for i := 0; i < n; i++ {
		jitterSink++
	}
	return n
}
