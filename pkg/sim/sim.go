// Package sim emulates the keyboard side of the amiga keyboard protocol.
//
// The Keyboard runs on a virtual microsecond clock which is advanced by Step.
// It implements port.Lines, port.Timer and port.Stepper, so a decoder can be
// tested without hardware: call Step and Tick alternately.
package sim

import (
	"akbd/pkg/keymap"
	"akbd/pkg/port"
)

const (
	// DefaultStep is the virtual time in µs of one Step.
	DefaultStep = 5
	// phaseMicros is the duration of the setup, low and high phase of a bit.
	phaseMicros = 20
	// minPulse is the minimal handshake pulse width the keyboard accepts.
	minPulse = 85
	// syncWindow is the time the keyboard waits for a handshake after a sync bit.
	syncWindow = 500
	// byteGap is the pause between a handshake and the next code.
	byteGap = 60
)

// modeType represents the state of the emulated keyboard.
type modeType int

const (
	// syncing clocks out a single 1 bit.
	syncing modeType = iota
	// syncWait waits for a handshake after a sync bit.
	syncWait
	// sending clocks out a code.
	sending
	// waiting waits for the handshake after a code or for the next code.
	waiting
)

// Keyboard is an emulated amiga keyboard.
type Keyboard struct {
	step uint32
	now  uint32

	// line levels driven by the keyboard
	clk    bool
	kbData bool
	rst    bool

	// data line drive of the host
	hostOut   bool
	hostLevel bool

	mode  modeType
	queue []byte
	cur   byte
	// bits is the count of bits of the current transfer (1 for sync, 8 for a code).
	bits  int
	bit   int
	phase int
	left  int
	// hold is the time the last bit is still driven after the rising edge.
	hold int
	// wait is the remaining sync window or the remaining gap to the next code.
	wait int
	// ready is set after a handshake until the next code starts.
	ready bool

	pulsing    bool
	pulseStart uint32

	// Sent is the count of codes clocked out.
	Sent int
	// Handshakes is the count of accepted handshake pulses.
	Handshakes int
	// Violations is the count of handshake pulses shorter than 85µs.
	Violations int
	// Contentions is the count of host drives while the keyboard clocks out a code.
	Contentions int
}

const (
	phaseSetup = iota
	phaseLow
	phaseHigh
)

// New returns a keyboard which starts synchronizing with the host.
// A step of 0 selects DefaultStep.
func New(step uint32) *Keyboard {
	if step == 0 {
		step = DefaultStep
	}

	k := &Keyboard{step: step, clk: true, kbData: true, rst: true}
	k.startSync()
	return k
}

// Send enqueues raw codes. Each code is clocked out as bits 6..0 followed by bit 7.
func (k *Keyboard) Send(raw ...byte) {
	k.queue = append(k.queue, raw...)
}

// Key enqueues a key transition.
func (k *Keyboard) Key(code uint8, down bool) {
	raw := code & 0x7f
	if !down {
		raw |= 0x80
	}
	k.Send(raw)
}

// Caps enqueues a caps lock code with the lamp state.
func (k *Keyboard) Caps(on bool) {
	k.Key(keymap.CapsLock, on)
}

// Special enqueues a controller status code.
func (k *Keyboard) Special(code uint8) {
	k.Send(code)
}

// SetReset asserts (pulls low) or releases the reset line.
// Releasing the reset line restarts the keyboard, the current code is lost.
func (k *Keyboard) SetReset(asserted bool) {
	if asserted == !k.rst {
		return
	}

	k.rst = !asserted
	k.pulsing = false
	if k.rst {
		k.clk, k.kbData = true, true
		k.startSync()
	}
}

// Idle reports whether all codes are sent and acknowledged.
func (k *Keyboard) Idle() bool {
	return k.mode == waiting && k.ready && len(k.queue) == 0
}

// Micros returns the virtual time.
func (k *Keyboard) Micros() uint32 { return k.now }

// Clock reads the clock line.
func (k *Keyboard) Clock() bool { return k.clk }

// Reset reads the reset line.
func (k *Keyboard) Reset() bool { return k.rst }

// Data reads the data line, which is low if any side pulls it low.
func (k *Keyboard) Data() bool {
	return k.kbData && !k.hostLow()
}

// SetData sets the host drive of the data line.
func (k *Keyboard) SetData(dir port.Direction, level bool) {
	k.hostOut = dir == port.Output
	k.hostLevel = level
}

func (k *Keyboard) hostLow() bool {
	return k.hostOut && !k.hostLevel
}

// Step advances the virtual time by one step.
func (k *Keyboard) Step() {
	k.now += k.step

	if !k.rst {
		return
	}

	k.watchHost()

	if k.hold > 0 {
		if k.hold -= int(k.step); k.hold <= 0 {
			k.kbData = true
		}
	}

	switch k.mode {
	case syncing, sending:
		k.clockOut()

	case syncWait:
		if k.pulsing {
			return
		}
		if k.wait -= int(k.step); k.wait <= 0 {
			k.startSync()
		}

	case waiting:
		if !k.ready || len(k.queue) == 0 {
			return
		}
		if k.wait -= int(k.step); k.wait <= 0 {
			k.cur, k.queue = k.queue[0], k.queue[1:]
			k.start(8, sending)
		}
	}
}

// watchHost measures the handshake pulses of the host.
func (k *Keyboard) watchHost() {
	low := k.hostLow()

	switch {
	case low && !k.pulsing:
		k.pulsing = true
		k.pulseStart = k.now
		if k.mode == sending {
			k.Contentions++
		}

	case !low && k.pulsing:
		k.pulsing = false
		if k.mode == sending {
			return
		}
		if k.now-k.pulseStart < minPulse {
			k.Violations++
			return
		}

		k.Handshakes++
		k.ready = true
		k.mode = waiting
		k.wait = byteGap
	}
}

func (k *Keyboard) startSync() {
	k.cur = 0xff
	k.ready = false
	k.start(1, syncing)
}

func (k *Keyboard) start(bits int, mode modeType) {
	k.mode = mode
	k.bits = bits
	k.bit = 0
	k.phase = phaseSetup
	k.left = phaseMicros
	k.hold = 0
	k.kbData = !k.bitValue()
}

// bitValue returns the current bit in wire order 6..0, 7.
func (k *Keyboard) bitValue() bool {
	if k.bits == 1 {
		return k.cur&0x80 != 0
	}
	if k.bit < 7 {
		return k.cur>>uint(6-k.bit)&1 == 1
	}
	return k.cur&0x80 != 0
}

// clockOut runs the setup, low and high phase of each bit.
func (k *Keyboard) clockOut() {
	if k.left -= int(k.step); k.left > 0 {
		return
	}
	k.left = phaseMicros

	switch k.phase {
	case phaseSetup:
		k.clk = false
		k.phase = phaseLow

	case phaseLow:
		// the host samples the data line at the rising edge
		k.clk = true
		k.phase = phaseHigh
		if k.bit == k.bits-1 {
			k.finish()
		}

	case phaseHigh:
		k.bit++
		k.kbData = !k.bitValue()
		k.phase = phaseSetup
	}
}

// finish ends a transfer after the rising edge of the last bit.
// The host may start its handshake from now on.
func (k *Keyboard) finish() {
	k.hold = phaseMicros
	k.ready = false

	if k.mode == syncing {
		k.mode = syncWait
		k.wait = syncWindow
		return
	}

	k.Sent++
	k.mode = waiting
}
