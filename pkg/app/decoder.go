package app

import (
	"sync/atomic"
	"time"

	"akbd/pkg/kbdbus"
	"akbd/pkg/metrics"
	"akbd/pkg/port"
	"akbd/pkg/report"

	"github.com/womat/debug"
)

// runDecoder polls the keyboard lines in an endless loop until Close is called.
// It's designed to run in a separate go function, the decoder is used by this function only.
func (app *App) runDecoder() {
	defer close(app.done)

	step, _ := app.lines.(port.Stepper)
	last := app.decoder.State()
	debug.InfoLog.Printf("decoding keyboard on %s lines", app.config.Driver)

	for {
		select {
		case <-app.quit:
			app.decoder.Reset()
			return
		default:
		}

		if step != nil {
			step.Step()
		}
		app.decoder.Tick()

		if s := app.decoder.State(); s != last {
			atomic.StoreInt32(&app.state, int32(s))
			metrics.RecordTransition(last, s)
			last = s
		}
	}
}

// State returns the last state of the decoder.
func (app *App) State() kbdbus.State {
	return kbdbus.State(atomic.LoadInt32(&app.state))
}

// sinks returns the receivers of the decoded events.
func (app *App) sinks() kbdbus.Sink {
	s := kbdbus.Sinks{
		kbdbus.SinkFunc(app.logEvent),
		kbdbus.SinkFunc(app.recordEvent),
	}

	if app.led != nil {
		s = append(s, kbdbus.SinkFunc(app.capsLamp))
	}
	return s
}

// logEvent writes the event to the info log.
func (app *App) logEvent(e kbdbus.Event) {
	debug.InfoLog.Print(report.Format(e))
}

// recordEvent saves the event to the history and sends it to the mqtt broker.
func (app *App) recordEvent(e kbdbus.Event) {
	r := report.NewRecord(time.Now(), e)
	app.history.Add(r)
	metrics.RecordEvent(r.Kind)

	if !app.mqtt.Enabled() {
		return
	}
	if err := app.mqtt.SendJSON(app.config.MQTT.Topic, r); err != nil {
		debug.ErrorLog.Printf("sendMQTT: %v", err)
	}
}

// capsLamp switches the caps lock lamp.
func (app *App) capsLamp(e kbdbus.Event) {
	if c, ok := e.(kbdbus.CapsLockEvent); ok {
		app.led.Set(c.On)
	}
}
