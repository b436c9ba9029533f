// Package report renders decoded keyboard events for humans and machines.
package report

import (
	"fmt"
	"sync"
	"time"

	"akbd/pkg/kbdbus"
)

// event kinds of a Record
const (
	KindKey     = "key"
	KindCaps    = "caps"
	KindSpecial = "special"
)

// DefaultHistory is the default count of events kept by a History.
const DefaultHistory = 64

// Format returns the console line of an event, e.g. "KEY DOWN: (0x10) Q".
func Format(e kbdbus.Event) string {
	switch e := e.(type) {
	case kbdbus.KeyEvent:
		dir := "  UP"
		if e.Down {
			dir = "DOWN"
		}
		return fmt.Sprintf("KEY %s: (0x%02x) %s", dir, e.Code, e.Name())
	case kbdbus.CapsLockEvent:
		if e.On {
			return "CAPS LOCK: ON"
		}
		return "CAPS LOCK: OFF"
	case kbdbus.SpecialEvent:
		return fmt.Sprintf("SPECIAL: (0x%02x) %s", e.Code, e.Name())
	default:
		return fmt.Sprintf("UNKNOWN EVENT: %v", e)
	}
}

// Record is the json representation of a decoded event.
type Record struct {
	Time time.Time `json:"time"`
	Kind string    `json:"kind"`
	Code uint8     `json:"code"`
	Name string    `json:"name,omitempty"`
	Down bool      `json:"down,omitempty"`
	On   bool      `json:"on,omitempty"`
	Text string    `json:"text"`
}

// NewRecord converts event e received at t to a Record.
func NewRecord(t time.Time, e kbdbus.Event) Record {
	r := Record{Time: t, Text: Format(e)}

	switch e := e.(type) {
	case kbdbus.KeyEvent:
		r.Kind = KindKey
		r.Code = e.Code
		r.Name = e.Name()
		r.Down = e.Down
	case kbdbus.CapsLockEvent:
		r.Kind = KindCaps
		r.On = e.On
	case kbdbus.SpecialEvent:
		r.Kind = KindSpecial
		r.Code = e.Code
		r.Name = e.Name()
	}

	return r
}

// History keeps the last received records.
// It is safe for concurrent use.
type History struct {
	sync.Mutex
	records []Record
	next    int
	full    bool
	total   uint64
}

// NewHistory returns a History for size records. Sizes below 1 are set to 1.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{records: make([]Record, size)}
}

// Add appends r and drops the oldest record if the history is full.
func (h *History) Add(r Record) {
	h.Lock()
	defer h.Unlock()

	h.records[h.next] = r
	h.next = (h.next + 1) % len(h.records)
	if h.next == 0 {
		h.full = true
	}
	h.total++
}

// Records returns a copy of the kept records, oldest first.
func (h *History) Records() []Record {
	h.Lock()
	defer h.Unlock()

	if !h.full {
		return append([]Record{}, h.records[:h.next]...)
	}
	return append(append([]Record{}, h.records[h.next:]...), h.records[:h.next]...)
}

// Len returns the count of kept records.
func (h *History) Len() int {
	h.Lock()
	defer h.Unlock()

	if h.full {
		return len(h.records)
	}
	return h.next
}

// Total returns the count of all records ever added.
func (h *History) Total() uint64 {
	h.Lock()
	defer h.Unlock()
	return h.total
}
