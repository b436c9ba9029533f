package app

import (
	"fmt"

	"akbd/pkg/app/config"
	"akbd/pkg/port"
	"akbd/pkg/raspberry"
	"akbd/pkg/sim"

	"github.com/womat/debug"
)

// emuLines runs the decoder against an emulated keyboard, only for testing without hardware.
type emuLines struct {
	*sim.Keyboard
}

func (emuLines) Close() error { return nil }

// emuLED logs the lamp state of the emulated keyboard.
type emuLED struct{}

func (emuLED) Set(on bool)  { debug.DebugLog.Printf("caps lock led %v", on) }
func (emuLED) Close() error { return nil }

func (app *App) pins() raspberry.Pins {
	return raspberry.Pins{
		Clock: app.config.Gpio.Clock,
		Data:  app.config.Gpio.Data,
		Reset: app.config.Gpio.Reset,
	}
}

// openLines opens the lines of the configured driver.
func (app *App) openLines() (raspberry.Lines, error) {
	switch app.config.Driver {
	case config.DriverGpiod:
		l, err := raspberry.OpenChip(app.config.Chip, app.pins())
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.DriverGpiomem:
		l, err := raspberry.OpenMem(app.pins())
		if err != nil {
			return nil, err
		}
		return l, nil
	case config.DriverEmu:
		kb := sim.New(uint32(app.config.Emu.Step))
		for _, c := range app.config.Emu.Codes {
			kb.Send(byte(c))
		}
		debug.InfoLog.Printf("emulated keyboard replays %d codes", len(app.config.Emu.Codes))
		return emuLines{kb}, nil
	default:
		return nil, fmt.Errorf("driver %q: %w", app.config.Driver, raspberry.ErrInvalidParam)
	}
}

// openLED opens the caps lock lamp on the line of the configured driver.
func (app *App) openLED() (raspberry.LED, error) {
	switch l := app.lines.(type) {
	case *raspberry.ChipLines:
		led, err := l.NewLED(app.config.Gpio.Led)
		if err != nil {
			return nil, err
		}
		return led, nil
	case *raspberry.MemLines:
		led, err := l.NewLED(app.config.Gpio.Led)
		if err != nil {
			return nil, err
		}
		return led, nil
	default:
		return emuLED{}, nil
	}
}

// timer returns the microsecond clock of the decoder.
// The emulated keyboard runs on its own virtual time.
func (app *App) timer() port.Timer {
	if t, ok := app.lines.(port.Timer); ok {
		return t
	}
	return port.NewSystemTimer()
}
