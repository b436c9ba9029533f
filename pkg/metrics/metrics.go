// Package metrics exports the decoder counters to prometheus.
package metrics

import (
	"sync"

	"akbd/pkg/kbdbus"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "akbd",
			Subsystem: "decoder",
			Name:      "events_total",
			Help:      "Decoded keyboard events.",
		},
		[]string{"kind"},
	)
	handshakes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "akbd",
			Subsystem: "decoder",
			Name:      "handshakes_total",
			Help:      "Completed handshake pulses.",
		},
	)
	resets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "akbd",
			Subsystem: "decoder",
			Name:      "resets_total",
			Help:      "Keyboard resets.",
		},
	)
	state = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "akbd",
			Subsystem: "decoder",
			Name:      "state",
			Help:      "Current decoder state.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(events, handshakes, resets, state)
	})
}

// RecordEvent counts a decoded event of the report kind.
func RecordEvent(kind string) {
	RegisterMetrics()
	events.WithLabelValues(kind).Inc()
}

// RecordTransition counts handshakes and resets from the state changes of the decoder.
func RecordTransition(from, to kbdbus.State) {
	RegisterMetrics()
	state.Set(float64(to))

	switch {
	case from == kbdbus.Handshake && to == kbdbus.WaitLo:
		handshakes.Inc()
	case to == kbdbus.WaitRst:
		resets.Inc()
	}
}
