// Package port holds the definition of the physical lines between keyboard and receiver
package port

import "time"

// Direction is the io direction of a line.
type Direction int

const (
	// Input releases the line, the pull-up resistor keeps it high.
	Input Direction = iota
	// Output drives the line with the given level.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Lines gives access to the clock, data and reset line of the keyboard.
// All levels are the electrical levels, true is high.
type Lines interface {
	// Clock reads the level of the clock line.
	Clock() bool
	// Data reads the level of the data line.
	Data() bool
	// Reset reads the level of the reset line.
	Reset() bool
	// SetData sets the direction of the data line.
	// For Output the line is driven with level, for Input level is ignored
	// and the line is pulled up.
	SetData(dir Direction, level bool)
}

// Timer is a monotonic microsecond clock. The value wraps around after 2^32 µs,
// callers must compare timestamps by subtraction.
type Timer interface {
	Micros() uint32
}

// Stepper is implemented by emulated line sources which must be advanced once per decoder tick.
type Stepper interface {
	Step()
}

// SystemTimer is a Timer based on the monotonic clock of the go runtime.
type SystemTimer struct {
	start time.Time
}

// NewSystemTimer returns a Timer starting at zero.
func NewSystemTimer() *SystemTimer {
	return &SystemTimer{start: time.Now()}
}

// Micros returns the microseconds since the timer was created.
func (t *SystemTimer) Micros() uint32 {
	return uint32(time.Since(t.start).Microseconds())
}
