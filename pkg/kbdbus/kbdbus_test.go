package kbdbus

import (
	"io/ioutil"
	"os"
	"testing"
	"time"

	"akbd/pkg/keymap"
	"akbd/pkg/port"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"
	"github.com/womat/debug"
)

func TestMain(m *testing.M) {
	debug.SetDebug(ioutil.Discard, debug.Standard)
	os.Exit(m.Run())
}

// lines is a scripted line source. The data line reads low while the decoder drives it low.
type lines struct {
	clock, data, reset bool
	dir                port.Direction
	level              bool
	writes             int
}

func newLines() *lines {
	return &lines{clock: true, data: true, reset: true}
}

func (l *lines) Clock() bool { return l.clock }
func (l *lines) Reset() bool { return l.reset }
func (l *lines) Data() bool {
	if l.dir == port.Output && !l.level {
		return false
	}
	return l.data
}
func (l *lines) SetData(dir port.Direction, level bool) {
	l.dir, l.level = dir, level
	l.writes++
}

type timer struct{ now uint32 }

func (t *timer) Micros() uint32 { return t.now }

type recorder struct{ events []Event }

func (r *recorder) Dispatch(e Event) { r.events = append(r.events, e) }

type harness struct {
	t   *testing.T
	l   *lines
	tm  *timer
	rec *recorder
	d   *Decoder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t, l: newLines(), tm: &timer{}, rec: &recorder{}}
	d, err := New(h.l, h.tm, h.rec, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.d = d
	return h
}

func (h *harness) tick(want State) {
	h.t.Helper()
	h.d.Tick()
	if got := h.d.State(); got != want {
		h.t.Fatalf("state %v, want %v\n%s", got, want, spew.Sdump(h.d))
	}
}

// synch runs the idle synchronization up to the handshake state.
func (h *harness) synch() {
	h.t.Helper()
	h.l.clock = false
	h.tick(SynchLo)
	h.l.clock = true
	h.tick(Handshake)
}

// handshake performs a full handshake pulse.
func (h *harness) handshake() {
	h.t.Helper()
	h.tick(Handshake)
	if h.l.dir != port.Output || h.l.level {
		h.t.Fatalf("data line not driven low during handshake")
	}
	h.tm.now += 101
	h.tick(WaitLo)
	if h.l.dir != port.Input {
		h.t.Fatalf("data line not released after handshake")
	}
}

// bit clocks one bit, b is the logical (active low) value.
func (h *harness) bit(b bool, after State) {
	h.t.Helper()
	h.l.data = !b
	h.l.clock = false
	h.tick(Read)
	h.l.clock = true
	h.tick(after)
}

// send clocks raw in wire order 6..0, 7 and expects the decoder back in Handshake.
func (h *harness) send(raw uint8) {
	h.t.Helper()
	for i := 6; i >= 0; i-- {
		h.bit(raw>>uint(i)&1 == 1, WaitLo)
	}
	h.bit(raw&0x80 != 0, Handshake)
}

func (h *harness) cycle(raw uint8) {
	h.t.Helper()
	h.handshake()
	h.send(raw)
}

func TestNew(t *testing.T) {
	l, tm, rec := newLines(), &timer{}, &recorder{}

	tests := []struct {
		name  string
		lines port.Lines
		timer port.Timer
		sink  Sink
		pulse time.Duration
		err   error
	}{
		{"default pulse", l, tm, rec, 0, nil},
		{"minimum pulse", l, tm, rec, MinPulse, nil},
		{"too short", l, tm, rec, MinPulse - time.Microsecond, ErrPulseTooShort},
		{"maximum pulse", l, tm, rec, MaxPulse, nil},
		{"too long", l, tm, rec, MaxPulse + time.Microsecond, ErrInvalidParam},
		{"truncated to 10µs", l, tm, rec, (1<<32 + 10) * time.Microsecond, ErrInvalidParam},
		{"no lines", nil, tm, rec, 0, ErrInvalidParam},
		{"no timer", l, nil, rec, 0, ErrInvalidParam},
		{"no sink", l, tm, nil, 0, ErrInvalidParam},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := New(tc.lines, tc.timer, tc.sink, tc.pulse)
			if err != tc.err {
				t.Fatalf("got error %v, want %v", err, tc.err)
			}
			if err == nil && d.State() != SynchHi {
				t.Errorf("initial state %v, want %v", d.State(), SynchHi)
			}
		})
	}
}

func TestKeyEvents(t *testing.T) {
	for code := uint8(0); code <= keymap.LastKey; code++ {
		if code == keymap.CapsLock {
			continue
		}

		h := newHarness(t)
		h.synch()
		h.cycle(code)        // 8th bit low
		h.cycle(code | 0x80) // 8th bit high

		want := []Event{KeyEvent{Code: code, Down: true}, KeyEvent{Code: code, Down: false}}
		if diff := deep.Equal(h.rec.events, want); diff != nil {
			t.Errorf("code 0x%02x: %v", code, diff)
		}
	}
}

func TestCapsLock(t *testing.T) {
	h := newHarness(t)
	h.synch()
	h.cycle(keymap.CapsLock)
	h.cycle(keymap.CapsLock)
	h.cycle(keymap.CapsLock | 0x80)
	h.cycle(keymap.CapsLock | 0x80)

	want := []Event{
		CapsLockEvent{On: true},
		CapsLockEvent{On: true},
		CapsLockEvent{On: false},
		CapsLockEvent{On: false},
	}
	if diff := deep.Equal(h.rec.events, want); diff != nil {
		t.Error(diff)
	}
}

func TestSpecialEvents(t *testing.T) {
	for base := uint8(keymap.LastKey + 1); base <= 0x7f; base++ {
		for _, last := range []uint8{0, 1} {
			h := newHarness(t)
			h.synch()
			h.cycle(base | last<<7)

			want := []Event{SpecialEvent{Code: base | last<<7}}
			if diff := deep.Equal(h.rec.events, want); diff != nil {
				t.Errorf("base 0x%02x last %d: %v", base, last, diff)
			}
		}
	}
}

func TestLostSync(t *testing.T) {
	h := newHarness(t)
	h.synch()
	h.cycle(0x79 | 0x80)

	if diff := deep.Equal(h.rec.events, []Event{SpecialEvent{Code: keymap.LostSync}}); diff != nil {
		t.Fatal(diff)
	}
	if got, want := h.rec.events[0].(SpecialEvent).Name(), "LOST SYNC"; got != want {
		t.Errorf("name %q, want %q", got, want)
	}
}

func TestBitRotation(t *testing.T) {
	tests := []struct {
		name string
		bits [8]bool // logical bits in wire order
		want Event
	}{
		{"first bit is msb of key code", [8]bool{true, false, false, false, false, false, false, false}, KeyEvent{Code: 0x40, Down: true}},
		{"seventh bit is lsb of key code", [8]bool{false, false, false, false, false, false, true, true}, KeyEvent{Code: 0x01, Down: false}},
		{"pattern", [8]bool{false, true, false, true, false, false, true, false}, KeyEvent{Code: 0x29, Down: true}},
		{"special gets 8th bit as msb", [8]bool{true, true, true, true, false, true, true, true}, SpecialEvent{Code: 0xfb}},
		{"special without msb", [8]bool{true, true, true, true, false, false, false, false}, SpecialEvent{Code: 0x78}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.synch()
			h.handshake()
			for i, b := range tc.bits {
				after := WaitLo
				if i == 7 {
					after = Handshake
				}
				h.bit(b, after)
			}

			if diff := deep.Equal(h.rec.events, []Event{tc.want}); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestRepeatedCycles(t *testing.T) {
	const n = 50

	h := newHarness(t)
	h.synch()
	for i := 0; i < n; i++ {
		h.cycle(0x10)
	}

	want := make([]Event, n)
	for i := range want {
		want[i] = KeyEvent{Code: 0x10, Down: true}
	}
	if diff := deep.Equal(h.rec.events, want); diff != nil {
		t.Error(diff)
	}
}

func TestReset(t *testing.T) {
	tests := []struct {
		name string
		// prepare brings the decoder into the state under test.
		prepare func(h *harness)
		state   State
	}{
		{"synch hi", func(h *harness) {}, SynchHi},
		{"synch lo", func(h *harness) { h.l.clock = false; h.tick(SynchLo) }, SynchLo},
		{"handshake", func(h *harness) { h.synch(); h.tick(Handshake) }, Handshake},
		{"wait lo", func(h *harness) { h.synch(); h.handshake(); h.bit(true, WaitLo); h.bit(true, WaitLo) }, WaitLo},
		{"read", func(h *harness) {
			h.synch()
			h.handshake()
			h.bit(true, WaitLo)
			h.l.clock = false
			h.tick(Read)
		}, Read},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			tc.prepare(h)
			if h.d.State() != tc.state {
				t.Fatalf("prepared state %v, want %v", h.d.State(), tc.state)
			}

			h.l.reset = false
			h.tick(WaitRst)
			if h.l.dir != port.Input {
				t.Fatal("data line still driven during reset")
			}

			// nothing but the reset line leaves WaitRst
			h.l.clock = false
			h.tick(WaitRst)
			h.l.clock = true
			h.tick(WaitRst)

			h.l.reset = true
			h.tick(SynchHi)

			// no bits of the aborted code survive
			h.synch()
			h.cycle(0x00)
			if diff := deep.Equal(h.rec.events, []Event{KeyEvent{Code: 0x00, Down: true}}); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestHandshakeMinimumPulse(t *testing.T) {
	starts := []uint32{0, 1, 1000, 0xffffffff - 150, 0xffffffff - 50, 0xffffffff}

	for _, start := range starts {
		h := newHarness(t)
		h.synch()
		h.tm.now = start
		h.tick(Handshake)

		for elapsed := uint32(0); elapsed <= 100; elapsed++ {
			h.tm.now = start + elapsed
			h.tick(Handshake)
			if h.l.dir != port.Output || h.l.level {
				t.Fatalf("start %d: data line released after %dµs", start, elapsed)
			}
		}

		h.tm.now = start + 101
		h.tick(WaitLo)
		if h.l.dir != port.Input {
			t.Errorf("start %d: data line not released", start)
		}
	}
}

func TestConfiguredPulse(t *testing.T) {
	l, tm, rec := newLines(), &timer{}, &recorder{}
	d, err := New(l, tm, rec, 250*time.Microsecond)
	if err != nil {
		t.Fatal(err)
	}

	l.clock = false
	d.Tick()
	l.clock = true
	d.Tick()
	d.Tick()

	tm.now = 250
	d.Tick()
	if d.State() != Handshake {
		t.Fatalf("state %v after 250µs, want %v", d.State(), Handshake)
	}
	tm.now = 251
	d.Tick()
	if d.State() != WaitLo {
		t.Fatalf("state %v after 251µs, want %v", d.State(), WaitLo)
	}
}

func TestDataLineOnlyWrittenInHandshake(t *testing.T) {
	h := newHarness(t)
	h.synch()
	if h.l.writes != 0 {
		t.Fatalf("%d writes before handshake", h.l.writes)
	}

	h.cycle(0x20)
	// one drive and one release per handshake
	if h.l.writes != 2 {
		t.Errorf("%d writes after one cycle, want 2", h.l.writes)
	}
}

func TestStalledClock(t *testing.T) {
	h := newHarness(t)
	h.synch()
	h.handshake()

	for i := 0; i < 10000; i++ {
		h.tm.now += 10
		h.tick(WaitLo)
	}
	if len(h.rec.events) != 0 {
		t.Errorf("unexpected events %v", h.rec.events)
	}
}

func TestDecoderReset(t *testing.T) {
	h := newHarness(t)
	h.synch()
	h.tick(Handshake)

	h.d.Reset()
	if h.d.State() != SynchHi {
		t.Fatalf("state %v, want %v", h.d.State(), SynchHi)
	}
	if h.l.dir != port.Input {
		t.Error("data line still driven after Reset")
	}
}

func TestStateString(t *testing.T) {
	if got, want := WaitRst.String(), "STATE_WAIT_RST"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := State(42).String(), "STATE_INVALID"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSinks(t *testing.T) {
	var a, b []Event
	s := Sinks{
		SinkFunc(func(e Event) { a = append(a, e) }),
		SinkFunc(func(e Event) { b = append(b, e) }),
	}
	s.Dispatch(CapsLockEvent{On: true})

	if diff := deep.Equal(a, b); diff != nil || len(a) != 1 {
		t.Errorf("fan out failed: %v %v", a, b)
	}
}
