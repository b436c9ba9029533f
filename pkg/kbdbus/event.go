package kbdbus

import (
	"fmt"

	"akbd/pkg/keymap"
)

// Event is a decoded keyboard event: KeyEvent, CapsLockEvent or SpecialEvent.
type Event interface {
	fmt.Stringer
	event()
}

// KeyEvent is a key transition of an ordinary key.
type KeyEvent struct {
	// Code is the key code (0x00..keymap.LastKey).
	Code uint8
	// Down is true for key down, false for key up.
	Down bool
}

// CapsLockEvent reports the state of the caps lock lamp.
type CapsLockEvent struct {
	On bool
}

// SpecialEvent is a status code of the keyboard controller, e.g. keymap.LostSync.
type SpecialEvent struct {
	Code uint8
}

func (KeyEvent) event()      {}
func (CapsLockEvent) event() {}
func (SpecialEvent) event()  {}

// Name returns the key name.
func (e KeyEvent) Name() string { return keymap.KeyName(e.Code) }

// Name returns the name of the status code.
func (e SpecialEvent) Name() string { return keymap.SpecialName(e.Code) }

func (e KeyEvent) String() string {
	if e.Down {
		return fmt.Sprintf("key down 0x%02x %s", e.Code, e.Name())
	}
	return fmt.Sprintf("key up 0x%02x %s", e.Code, e.Name())
}

func (e CapsLockEvent) String() string {
	if e.On {
		return "caps lock on"
	}
	return "caps lock off"
}

func (e SpecialEvent) String() string {
	return fmt.Sprintf("special 0x%02x %s", e.Code, e.Name())
}

// Sink receives the decoded events.
// Dispatch is called from the decoding loop and must not block.
type Sink interface {
	Dispatch(Event)
}

// SinkFunc is an adapter to use an ordinary function as Sink.
type SinkFunc func(Event)

// Dispatch calls f(e).
func (f SinkFunc) Dispatch(e Event) { f(e) }

// Sinks fans out each event to all sinks in order.
type Sinks []Sink

// Dispatch sends e to all sinks.
func (s Sinks) Dispatch(e Event) {
	for _, sink := range s {
		sink.Dispatch(e)
	}
}
