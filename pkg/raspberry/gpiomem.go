//go:build linux
// +build linux

package raspberry

import (
	"akbd/pkg/port"

	"github.com/warthog618/gpio"
)

// MemLines are the keyboard lines accessed through the gpio memory range of /dev/gpiomem.
type MemLines struct {
	clock *gpio.Pin
	data  *gpio.Pin
	reset *gpio.Pin
}

// MemLED is a lamp on a memory mapped gpio pin.
type MemLED struct {
	pin *gpio.Pin
}

// OpenMem maps the gpio memory and configures the keyboard pins as inputs with pull-up.
func OpenMem(pins Pins) (*MemLines, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}

	if err := gpio.Open(); err != nil {
		return nil, err
	}

	l := &MemLines{
		clock: gpio.NewPin(pins.Clock),
		data:  gpio.NewPin(pins.Data),
		reset: gpio.NewPin(pins.Reset),
	}

	for _, p := range []*gpio.Pin{l.clock, l.data, l.reset} {
		p.Input()
		p.PullUp()
	}

	return l, nil
}

// Clock reads the clock line.
func (l *MemLines) Clock() bool { return bool(l.clock.Read()) }

// Data reads the data line.
func (l *MemLines) Data() bool { return bool(l.data.Read()) }

// Reset reads the reset line.
func (l *MemLines) Reset() bool { return bool(l.reset.Read()) }

// SetData switches the data line between output and input with pull-up.
func (l *MemLines) SetData(dir port.Direction, level bool) {
	switch dir {
	case port.Output:
		// set the level before the direction to avoid a glitch
		l.data.Write(gpio.Level(level))
		l.data.Output()
	default:
		l.data.Input()
		l.data.PullUp()
	}
}

// NewLED configures pin as output for a lamp, initially off.
func (l *MemLines) NewLED(pin int) (*MemLED, error) {
	p := gpio.NewPin(pin)
	p.Low()
	p.Output()
	return &MemLED{pin: p}, nil
}

// Close unmaps the gpio memory.
func (l *MemLines) Close() error {
	l.data.Input()
	return gpio.Close()
}

// Set switches the lamp.
func (l *MemLED) Set(on bool) {
	l.pin.Write(gpio.Level(on))
}

// Close switches the lamp off.
func (l *MemLED) Close() error {
	l.pin.Low()
	return nil
}
