package app

import (
	"net/url"
	"sync"
	"time"

	"akbd/pkg/app/config"
	"akbd/pkg/kbdbus"
	"akbd/pkg/mqtt"
	"akbd/pkg/raspberry"
	"akbd/pkg/report"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Url parameter
	// and makes it easier to get params out of e.g.
	// url: https://0.0.0.0:7844/?minTls=1.2&bodyLimit=50MB
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// lines are the keyboard lines of the configured driver
	lines raspberry.Lines
	// led is the optional caps lock lamp
	led raspberry.LED

	// decoder is the keyboard protocol decoder, only used by runDecoder
	decoder *kbdbus.Decoder
	// state is the last decoder state, written by runDecoder (atomic)
	state int32

	// history holds the last decoded events
	history *report.History

	started time.Time

	// quit stops the decoder loop
	quit chan struct{}
	// done signals that the decoder loop is stopped
	done      chan struct{}
	closeOnce sync.Once

	// shutdown signals application shutdown
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return &App{}, err
	}

	return &App{
		config:    config,
		urlParsed: u,

		web:     fiber.New(fiber.Config{DisableStartupMessage: true}),
		mqtt:    mqtt.New(),
		history: report.NewHistory(config.History),
		state:   int32(kbdbus.SynchHi),

		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		shutdown: make(chan struct{}),
	}, err
}

// Run starts the application.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	app.started = time.Now()

	go app.mqtt.Service()
	go app.runWebServer()
	go app.runDecoder()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.lines, err = app.openLines(); err != nil {
		debug.ErrorLog.Printf("can't open %s lines: %v", app.config.Driver, err)
		return err
	}

	if app.config.Gpio.Led != 0 {
		if app.led, err = app.openLED(); err != nil {
			debug.ErrorLog.Printf("can't open caps lock led: %v", err)
			return err
		}
	}

	if app.decoder, err = kbdbus.New(app.lines, app.timer(), app.sinks(), app.config.Handshake); err != nil {
		debug.ErrorLog.Printf("can't create decoder: %v", err)
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, app.config.MQTT.ClientID); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	// initDefaultRoutes should be always called last because it may access things like app.decoder
	// which must be initialized before
	app.initDefaultRoutes()

	return nil
}

// Shutdown returns the read only shutdown channel.
// It is closed when the application can't continue, e.g. the web server can't listen.
func (app *App) Shutdown() <-chan struct{} {
	return app.shutdown
}

// stop requests the application shutdown.
func (app *App) stop() {
	app.shutdownOnce.Do(func() { close(app.shutdown) })
}

// Close stops the decoder and releases the lines, the mqtt connection and the web server.
// Close may be called more than once.
func (app *App) Close() error {
	app.closeOnce.Do(app.close)
	return nil
}

func (app *App) close() {
	if app.decoder != nil && !app.started.IsZero() {
		close(app.quit)
		<-app.done
	}

	if app.led != nil {
		app.led.Set(false)
		_ = app.led.Close()
	}

	if app.lines != nil {
		_ = app.lines.Close()
	}

	if app.mqtt != nil {
		_ = app.mqtt.Disconnect()
	}

	if app.web != nil && !app.started.IsZero() {
		_ = app.web.Shutdown()
	}
}
