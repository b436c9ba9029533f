//go:build linux
// +build linux

package raspberry

import (
	"fmt"

	"akbd/pkg/port"

	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
)

// ChipLines are the keyboard lines requested from a gpio character device.
type ChipLines struct {
	chip  *gpiod.Chip
	clock *gpiod.Line
	data  *gpiod.Line
	reset *gpiod.Line
}

// ChipLED is a lamp on a line of a gpio character device.
type ChipLED struct {
	line *gpiod.Line
}

// OpenChip opens the gpio character device (e.g. gpiochip0) and requests the
// keyboard lines as inputs with pull-up.
func OpenChip(name string, pins Pins) (*ChipLines, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}

	c, err := gpiod.NewChip(name, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	l := &ChipLines{chip: c}
	for _, r := range []struct {
		line   **gpiod.Line
		offset int
		name   string
	}{{&l.clock, pins.Clock, "clock"}, {&l.data, pins.Data, "data"}, {&l.reset, pins.Reset, "reset"}} {
		if *r.line, err = c.RequestLine(r.offset, gpiod.AsInput, gpiod.WithPullUp); err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("request %s line %d: %w", r.name, r.offset, err)
		}
	}

	return l, nil
}

// Clock reads the clock line.
func (l *ChipLines) Clock() bool { return value(l.clock) }

// Data reads the data line.
func (l *ChipLines) Data() bool { return value(l.data) }

// Reset reads the reset line.
func (l *ChipLines) Reset() bool { return value(l.reset) }

// SetData switches the data line between output and input.
// The pull-up requested with the line is kept while the line is an input.
func (l *ChipLines) SetData(dir port.Direction, level bool) {
	var err error

	switch dir {
	case port.Output:
		err = l.data.Reconfigure(gpiod.AsOutput(btoi(level)))
	default:
		err = l.data.Reconfigure(gpiod.AsInput)
	}

	if err != nil {
		debug.ErrorLog.Printf("set data line %v: %v", dir, err)
	}
}

// NewLED requests the line offset as output for a lamp, initially off.
func (l *ChipLines) NewLED(offset int) (*ChipLED, error) {
	line, err := l.chip.RequestLine(offset, gpiod.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request led line %d: %w", offset, err)
	}
	return &ChipLED{line: line}, nil
}

// Close releases the lines and the chip.
func (l *ChipLines) Close() error {
	for _, line := range []*gpiod.Line{l.clock, l.data, l.reset} {
		if line != nil {
			_ = line.Close()
		}
	}
	return l.chip.Close()
}

// Set switches the lamp.
func (l *ChipLED) Set(on bool) {
	if err := l.line.SetValue(btoi(on)); err != nil {
		debug.ErrorLog.Printf("set led: %v", err)
	}
}

// Close releases the line.
func (l *ChipLED) Close() error {
	return l.line.Close()
}

// value reads a line, a failed read is reported as high (idle) level.
func value(line *gpiod.Line) bool {
	v, err := line.Value()
	if err != nil {
		debug.ErrorLog.Printf("read line: %v", err)
		return true
	}
	return v != 0
}
