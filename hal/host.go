package hal

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// WindowObserver receives the duration of every completed trigger window.
type WindowObserver func(d time.Duration)

// Host is a Platform for running the victim as an ordinary process. The
// trigger line is virtual: edges are timestamped and each completed window is
// reported to an optional observer.
//
// Host is used from the victim's single thread of control only; Windows may
// be read concurrently.
type Host struct {
	out      io.Writer
	clock    clockwork.Clock
	observer WindowObserver

	high     bool
	raisedAt time.Time
	windows  atomic.Uint64
	err      error
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithClock sets the clock used to time trigger windows.
func WithClock(c clockwork.Clock) HostOption {
	return func(h *Host) {
		if c != nil {
			h.clock = c
		}
	}
}

// WithWindowObserver registers a callback for completed trigger windows. It is
// called after the trigger is already low.
func WithWindowObserver(o WindowObserver) HostOption {
	return func(h *Host) {
		h.observer = o
	}
}

// NewHost creates a host platform whose console output goes to out.
func NewHost(out io.Writer, opts ...HostOption) *Host {
	if out == nil {
		out = io.Discard
	}

	h := &Host{
		out:   out,
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Init implements Platform.
func (h *Host) Init() {}

// InitUART implements Platform.
func (h *Host) InitUART() {}

// TriggerSetup implements Platform.
func (h *Host) TriggerSetup() {
	h.high = false
}

// High implements Trigger.
func (h *Host) High() {
	h.raisedAt = h.clock.Now()
	h.high = true
}

// Low implements Trigger.
func (h *Host) Low() {
	if !h.high {
		return
	}
	h.high = false
	d := h.clock.Since(h.raisedAt)
	h.windows.Add(1)

	if h.observer != nil {
		h.observer(d)
	}
}

// Putch implements Platform. Write errors are kept and reported by Err.
func (h *Host) Putch(c byte) {
	if _, err := h.out.Write([]byte{c}); err != nil && h.err == nil {
		h.err = err
	}
}

// Windows returns the number of completed trigger windows.
func (h *Host) Windows() uint64 {
	return h.windows.Load()
}

// Err returns the first console write error, if any.
func (h *Host) Err() error {
	return h.err
}
