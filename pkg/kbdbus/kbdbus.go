// Package kbdbus is the decoder of the amiga keyboard protocol.
//
// The keyboard clocks out each code as 8 bits on the data line (active low),
// sampled on the rising edge of the clock line. The bits are sent in the order
// 6-5-4-3-2-1-0-7, the 7 bit key code first and the up/down flag last.
// After each code the receiver must pulse the data line low (handshake) for at
// least 85µs, otherwise the keyboard doesn't send the next code.
package kbdbus

import (
	"errors"
	"math"
	"time"

	"akbd/pkg/keymap"
	"akbd/pkg/port"

	"github.com/womat/debug"
)

const (
	// MinPulse is the minimal width of the handshake pulse required by the keyboard.
	MinPulse = 85 * time.Microsecond
	// DefaultPulse is the width of the handshake pulse if none is configured.
	DefaultPulse = 100 * time.Microsecond
	// MaxPulse is the longest handshake pulse the wrapping microsecond timer can measure.
	MaxPulse = math.MaxUint32 / 2 * time.Microsecond

	// codeBits is the count of bits received before the 8th (flag) bit.
	codeBits = 7
)

var (
	ErrInvalidParam  = errors.New("invalid parameters")
	ErrPulseTooShort = errors.New("handshake pulse shorter than 85µs")
)

// State represents the state of the decoding process.
type State int

const (
	// SynchHi waits for the falling clock edge to synchronize to a clock cycle.
	SynchHi State = iota
	// SynchLo waits for the rising clock edge before the handshake.
	SynchLo
	// Handshake drives the data line low until the pulse width is reached.
	Handshake
	// WaitLo waits for the falling clock edge of the next bit.
	WaitLo
	// Read waits for the rising clock edge and samples the data line.
	Read
	// WaitRst waits until the reset line is released.
	WaitRst
)

var stateNames = [...]string{
	SynchHi:   "STATE_SYNCH_HI",
	SynchLo:   "STATE_SYNCH_LO",
	Handshake: "STATE_HANDSHAKE",
	WaitLo:    "STATE_WAIT_LO",
	Read:      "STATE_READ",
	WaitRst:   "STATE_WAIT_RST",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "STATE_INVALID"
	}
	return stateNames[s]
}

// Decoder is the protocol state machine. It is driven by Tick and
// not safe for concurrent use.
type Decoder struct {
	lines port.Lines
	timer port.Timer
	sink  Sink

	// pulse is the handshake pulse width in µs.
	pulse uint32

	// state contains the current decoding state.
	state State
	// code is the buffer of the currently received code.
	code uint8
	// remaining is the count of code bits still to be received.
	remaining uint8
	// pulsing is set while the data line is driven low.
	pulsing bool
	// pulseStart is the timestamp of the begin of the handshake pulse.
	pulseStart uint32
}

// New initials a new decoder.
// A pulse of 0 selects DefaultPulse, pulses shorter than MinPulse are rejected,
// pulses longer than MaxPulse are invalid.
func New(lines port.Lines, timer port.Timer, sink Sink, pulse time.Duration) (*Decoder, error) {
	if lines == nil || timer == nil || sink == nil {
		return nil, ErrInvalidParam
	}

	if pulse == 0 {
		pulse = DefaultPulse
	}
	if pulse < MinPulse {
		return nil, ErrPulseTooShort
	}
	if pulse > MaxPulse {
		return nil, ErrInvalidParam
	}

	return &Decoder{
		lines: lines,
		timer: timer,
		sink:  sink,
		pulse: uint32(pulse / time.Microsecond),
		state: SynchHi,
	}, nil
}

// State returns the current decoding state.
func (d *Decoder) State() State {
	return d.state
}

// Reset restarts synchronizing with the keyboard and discards the current code.
func (d *Decoder) Reset() {
	d.release()
	d.setState(SynchHi)
}

// Tick samples the lines once and performs at most one state transition.
func (d *Decoder) Tick() {
	// an asserted (low) reset line aborts everything
	if !d.lines.Reset() && d.state != WaitRst {
		debug.InfoLog.Print("RESET: start")
		d.release()
		d.setState(WaitRst)
		return
	}

	switch d.state {
	case WaitRst:
		if d.lines.Reset() {
			debug.InfoLog.Print("RESET: end")
			d.setState(SynchHi)
		}

	case SynchHi:
		// the keyboard clocks out 1 bits until it receives a handshake
		if !d.lines.Clock() {
			d.setState(SynchLo)
		}

	case SynchLo:
		if d.lines.Clock() {
			d.setState(Handshake)
		}

	case Handshake:
		d.handshake()

	case WaitLo:
		if !d.lines.Clock() {
			d.setState(Read)
		}

	case Read:
		if d.lines.Clock() {
			d.read()
		}
	}
}

// handshake starts the pulse on the first call and finishes it after the pulse width.
func (d *Decoder) handshake() {
	if !d.pulsing {
		d.lines.SetData(port.Output, false)
		d.pulseStart = d.timer.Micros()
		d.pulsing = true
		return
	}

	if elapsed := d.timer.Micros() - d.pulseStart; elapsed <= d.pulse {
		return
	}

	d.release()
	d.code = 0
	d.remaining = codeBits
	d.setState(WaitLo)
}

// release returns the data line to the keyboard.
func (d *Decoder) release() {
	if d.pulsing {
		d.lines.SetData(port.Input, true)
		d.pulsing = false
	}
	d.code = 0
	d.remaining = 0
}

// read samples a bit at the rising clock edge.
// The first 7 bits fill the code from bit 6 down to bit 0, the 8th bit is classified.
func (d *Decoder) read() {
	var bit uint8
	if !d.lines.Data() {
		bit = 1
	}

	if d.remaining > 0 {
		d.remaining--
		d.code |= bit << d.remaining
		d.setState(WaitLo)
		return
	}

	d.sink.Dispatch(classify(d.code, bit))
	d.setState(Handshake)
}

// classify builds the event of the 7 bit code and the 8th bit.
func classify(code, bit uint8) Event {
	switch {
	case code == keymap.CapsLock:
		// the 8th bit is the lamp state on(0)/off(1), not up/down
		return CapsLockEvent{On: bit == 0}
	case code <= keymap.LastKey:
		// the 8th bit is up(1)/down(0)
		return KeyEvent{Code: code, Down: bit == 0}
	default:
		// status codes are not rotated, the 8th bit is the msb
		return SpecialEvent{Code: code | bit<<codeBits}
	}
}

func (d *Decoder) setState(s State) {
	if s == d.state {
		return
	}
	debug.TraceLog.Printf("state %v -> %v", d.state, s)
	d.state = s
}
