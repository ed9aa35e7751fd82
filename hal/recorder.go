package hal

import (
	"fmt"
	"sync"
)

// EventKind identifies a recorded platform call.
type EventKind int

const (
	EventInit EventKind = iota
	EventInitUART
	EventTriggerSetup
	EventHigh
	EventLow
	EventPutch
	EventMark
)

func (k EventKind) String() string {
	switch k {
	case EventInit:
		return "init"
	case EventInitUART:
		return "init_uart"
	case EventTriggerSetup:
		return "trigger_setup"
	case EventHigh:
		return "high"
	case EventLow:
		return "low"
	case EventPutch:
		return "putch"
	case EventMark:
		return "mark"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one recorded call.
type Event struct {
	Kind EventKind

	// Char is the character written by Putch.
	Char byte

	// Label is set for events added with Mark.
	Label string
}

func (e Event) String() string {
	switch e.Kind {
	case EventPutch:
		return fmt.Sprintf("putch(%q)", e.Char)
	case EventMark:
		return e.Label
	default:
		return e.Kind.String()
	}
}

// Recorder is a Platform that records every call in order. Test doubles for
// other collaborators can interleave their own events with Mark, which makes
// it possible to check what ran inside the trigger window.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Init implements Platform.
func (r *Recorder) Init() { r.add(Event{Kind: EventInit}) }

// InitUART implements Platform.
func (r *Recorder) InitUART() { r.add(Event{Kind: EventInitUART}) }

// TriggerSetup implements Platform.
func (r *Recorder) TriggerSetup() { r.add(Event{Kind: EventTriggerSetup}) }

// High implements Trigger.
func (r *Recorder) High() { r.add(Event{Kind: EventHigh}) }

// Low implements Trigger.
func (r *Recorder) Low() { r.add(Event{Kind: EventLow}) }

// Putch implements Platform.
func (r *Recorder) Putch(c byte) { r.add(Event{Kind: EventPutch, Char: c}) }

// Mark records a labelled event.
func (r *Recorder) Mark(label string) { r.add(Event{Kind: EventMark, Label: label}) }

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Trace returns the recorded events as strings, omitting Putch calls.
func (r *Recorder) Trace() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Kind == EventPutch {
			continue
		}
		out = append(out, e.String())
	}
	return out
}

// Console returns everything written with Putch.
func (r *Recorder) Console() string {
	var b []byte
	for _, e := range r.Events() {
		if e.Kind == EventPutch {
			b = append(b, e.Char)
		}
	}
	return string(b)
}

// Count returns how many events of the given kind were recorded.
func (r *Recorder) Count(kind EventKind) int {
	n := 0
	for _, e := range r.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Reset discards all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
