package app

import (
	"akbd/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
//  It's designed to run in a separate go function to not block the main go function.
//  e.g.: go runWebServer()
//  See app.Run()
func (app *App) runWebServer() {
	if err := app.web.Listen(app.urlParsed.Host); err != nil {
		debug.ErrorLog.Printf("web server: %v", err)
		app.stop()
	}
}

// HandleEvents returns the last decoded keyboard events, oldest first.
func (app *App) HandleEvents() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request events")

		return ctx.JSON(app.history.Records())
	}
}

// HandleState returns the state of the decoder.
func (app *App) HandleState() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request state")

		return ctx.JSON(fiber.Map{
			"driver":    app.config.Driver,
			"state":     app.State().String(),
			"events":    app.history.Total(),
			"handshake": app.config.Handshake.Microseconds(),
		})
	}
}

// HandleMetrics exports the decoder counters in the prometheus text format.
func (app *App) HandleMetrics() fiber.Handler {
	metrics.RegisterMetrics()
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

	return func(ctx *fiber.Ctx) error {
		h(ctx.Context())
		return nil
	}
}
