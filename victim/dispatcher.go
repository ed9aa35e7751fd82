package victim

import (
	"fmt"

	"github.com/moffa90/go-simpleserial/protocol"
)

// Handler runs a command. payload has exactly the registered length and may
// be modified in place. The returned byte is the status acknowledged to the
// host.
type Handler func(c *Context, payload []byte) byte

// Command describes one entry of the command table.
type Command struct {
	// Code is the single-character command code
	Code byte

	// Len is the exact payload length in bytes
	Len int

	// Handler runs the command
	Handler Handler
}

// Dispatcher is a fixed-capacity command table. Commands are registered once
// at startup and looked up by exact code on every frame.
type Dispatcher struct {
	cmds [protocol.MaxCommands]Command
	n    int
}

// Register adds cmd to the table. It fails when the table is full, the code
// is already taken, the length is out of range or the handler is nil.
func (d *Dispatcher) Register(cmd Command) error {
	if cmd.Handler == nil {
		return fmt.Errorf("command %q: handler cannot be nil", cmd.Code)
	}
	if cmd.Len < 0 || cmd.Len > protocol.MaxPayloadSize {
		return fmt.Errorf("command %q: payload length %d outside 0-%d", cmd.Code, cmd.Len, protocol.MaxPayloadSize)
	}
	if _, ok := d.Lookup(cmd.Code); ok {
		return fmt.Errorf("command %q already registered", cmd.Code)
	}
	if d.n == len(d.cmds) {
		return fmt.Errorf("command table full: at most %d commands", len(d.cmds))
	}

	d.cmds[d.n] = cmd
	d.n++
	return nil
}

// Lookup returns the command registered for code.
func (d *Dispatcher) Lookup(code byte) (Command, bool) {
	for i := 0; i < d.n; i++ {
		if d.cmds[i].Code == code {
			return d.cmds[i], true
		}
	}
	return Command{}, false
}

// Commands returns the registered commands in registration order.
func (d *Dispatcher) Commands() []Command {
	return append([]Command(nil), d.cmds[:d.n]...)
}

// Len returns the number of registered commands.
func (d *Dispatcher) Len() int {
	return d.n
}
