package sim

import (
	"io/ioutil"
	"os"
	"testing"

	"akbd/pkg/kbdbus"
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

const maxSteps = 1000000

type bench struct {
	t      *testing.T
	kb     *Keyboard
	d      *kbdbus.Decoder
	events []kbdbus.Event
}

func newBench(t *testing.T) *bench {
	t.Helper()
	b := &bench{t: t, kb: New(0)}
	d, err := kbdbus.New(b.kb, b.kb, kbdbus.SinkFunc(func(e kbdbus.Event) { b.events = append(b.events, e) }), 0)
	if err != nil {
		t.Fatal(err)
	}
	b.d = d
	return b
}

func (b *bench) run(steps int) {
	for i := 0; i < steps; i++ {
		b.kb.Step()
		b.d.Tick()
	}
}

// drain runs until the keyboard has sent all codes.
func (b *bench) drain() {
	b.t.Helper()
	for i := 0; i < maxSteps; i++ {
		b.kb.Step()
		b.d.Tick()
		if b.kb.Idle() {
			return
		}
	}
	b.t.Fatalf("keyboard not idle after %d steps\n%s", maxSteps, spew.Sdump(b.kb))
}

func (b *bench) checkProtocol() {
	b.t.Helper()
	if b.kb.Violations != 0 {
		b.t.Errorf("%d handshake pulses shorter than %dµs", b.kb.Violations, minPulse)
	}
	if b.kb.Contentions != 0 {
		b.t.Errorf("%d host drives while the keyboard was sending", b.kb.Contentions)
	}
}

func TestDecodeEmulated(t *testing.T) {
	b := newBench(t)
	b.kb.Special(keymap.BeginPowerUpStream)
	b.kb.Special(keymap.EndPowerUpStream)
	b.kb.Key(0x10, true)
	b.kb.Key(0x10, false)
	b.kb.Caps(true)
	b.kb.Caps(false)
	b.kb.Special(keymap.LostSync)
	b.drain()

	want := []kbdbus.Event{
		kbdbus.SpecialEvent{Code: 0xfd},
		kbdbus.SpecialEvent{Code: 0xfe},
		kbdbus.KeyEvent{Code: 0x10, Down: true},
		kbdbus.KeyEvent{Code: 0x10, Down: false},
		kbdbus.CapsLockEvent{On: true},
		kbdbus.CapsLockEvent{On: false},
		kbdbus.SpecialEvent{Code: 0xf9},
	}
	if diff := deep.Equal(b.events, want); diff != nil {
		t.Error(diff)
	}
	if got, want := b.kb.Sent, 7; got != want {
		t.Errorf("sent %d codes, want %d", got, want)
	}
	// one handshake to synchronize plus one per code
	if got, want := b.kb.Handshakes, 8; got != want {
		t.Errorf("%d handshakes, want %d", got, want)
	}
	b.checkProtocol()
}

func TestDecodeAllKeys(t *testing.T) {
	b := newBench(t)
	var want []kbdbus.Event
	for code := uint8(0); code <= keymap.LastKey; code++ {
		b.kb.Key(code, true)
		b.kb.Key(code, false)
		if code == keymap.CapsLock {
			want = append(want, kbdbus.CapsLockEvent{On: true}, kbdbus.CapsLockEvent{On: false})
			continue
		}
		want = append(want, kbdbus.KeyEvent{Code: code, Down: true}, kbdbus.KeyEvent{Code: code, Down: false})
	}
	b.drain()

	if diff := deep.Equal(b.events, want); diff != nil {
		t.Error(diff)
	}
	b.checkProtocol()
}

func TestResetDuringCode(t *testing.T) {
	b := newBench(t)
	b.kb.Key(0x20, true)
	b.drain()

	// abort the next code in the middle of the transfer
	b.kb.Key(0x21, true)
	for b.kb.mode != sending || b.kb.bit < 3 {
		b.kb.Step()
		b.d.Tick()
	}
	b.kb.SetReset(true)
	b.run(10)
	if b.d.State() != kbdbus.WaitRst {
		t.Fatalf("state %v, want %v", b.d.State(), kbdbus.WaitRst)
	}

	b.kb.SetReset(false)
	b.kb.Key(0x22, false)
	b.drain()

	want := []kbdbus.Event{
		kbdbus.KeyEvent{Code: 0x20, Down: true},
		kbdbus.KeyEvent{Code: 0x22, Down: false},
	}
	if diff := deep.Equal(b.events, want); diff != nil {
		t.Error(diff)
	}
	b.checkProtocol()
}

func TestShortPulse(t *testing.T) {
	kb := New(0)
	// let the sync bit pass
	for kb.mode != syncWait {
		kb.Step()
	}

	kb.SetData(port.Output, false)
	for i := 0; i < 10; i++ {
		kb.Step()
	}
	kb.SetData(port.Input, true)
	kb.Step()

	if kb.Violations != 1 || kb.Handshakes != 0 {
		t.Errorf("violations %d handshakes %d, want 1 and 0", kb.Violations, kb.Handshakes)
	}
}

func TestSyncRepeatsWithoutHandshake(t *testing.T) {
	kb := New(0)
	falls := 0
	last := kb.Clock()
	for i := 0; i < 3*syncWindow/DefaultStep; i++ {
		kb.Step()
		if last && !kb.Clock() {
			falls++
		}
		last = kb.Clock()
	}

	if falls < 2 {
		t.Errorf("%d sync bits, want at least 2", falls)
	}
	if kb.Handshakes != 0 {
		t.Errorf("%d handshakes without host", kb.Handshakes)
	}
}

func TestWiredAnd(t *testing.T) {
	kb := New(0)
	kb.kbData = true
	kb.SetData(port.Output, false)
	if kb.Data() {
		t.Error("data high while host drives low")
	}
	kb.SetData(port.Input, true)
	if !kb.Data() {
		t.Error("data low after host released")
	}
}
