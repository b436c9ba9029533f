// Package raspberry gives access to the keyboard lines on the gpio header.
//
// Two drivers are available: the gpio character device (gpiod) and the
// memory mapped gpio registers (/dev/gpiomem). The latter is faster to poll
// but needs exclusive access to the gpio block.
package raspberry

import (
	"errors"
	"fmt"

	"akbd/pkg/port"
)

// consumer is the label of the requested lines in the kernel.
const consumer = "akbd"

var (
	ErrInvalidParam = errors.New("invalid parameters")
	ErrNotSupported = errors.New("gpio not supported on this platform")
)

// Pins defines the BCM gpio numbers of the keyboard lines.
type Pins struct {
	Clock int
	Data  int
	Reset int
}

// Validate checks that the pins are valid and distinct.
func (p Pins) Validate() error {
	seen := map[int]string{}
	for _, l := range []struct {
		name string
		pin  int
	}{{"clock", p.Clock}, {"data", p.Data}, {"reset", p.Reset}} {
		if l.pin < 0 {
			return fmt.Errorf("%s pin %d: %w", l.name, l.pin, ErrInvalidParam)
		}
		if other, ok := seen[l.pin]; ok {
			return fmt.Errorf("pin %d used for %s and %s: %w", l.pin, other, l.name, ErrInvalidParam)
		}
		seen[l.pin] = l.name
	}
	return nil
}

// Lines are the keyboard lines of a driver.
type Lines interface {
	port.Lines
	Close() error
}

// LED is an output line driving a lamp.
type LED interface {
	Set(on bool)
	Close() error
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
