package app

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// HandleHealth returns data about the health of the process and the keyboard decoder.
// output example:
//  {"NumGoroutines":7,"HeapAllocatedMB":0,"SysMemoryMB":6,"Version":"1.0.10+20241001",
//   "ProgLang":"go1.16.15","HostName":"amiga","Uptime":"1h2m3s",
//   "Driver":"gpiod","DecoderState":"STATE_WAIT_LO","Events":42,"MQTT":true}
func (app *App) HandleHealth() fiber.Handler {
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}

	host, _ := os.Hostname()

	return func(ctx *fiber.Ctx) error {
		debug.DebugLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		healthData := struct {
			NumGoroutines   int
			HeapAllocatedMB uint64
			SysMemoryMB     uint64
			Version         string
			ProgLang        string
			HostName        string
			Uptime          string
			Driver          string
			DecoderState    string
			Events          uint64
			MQTT            bool
		}{
			NumGoroutines:   runtime.NumGoroutine(),
			HeapAllocatedMB: bToMb(m.Alloc),
			SysMemoryMB:     bToMb(m.Sys),
			ProgLang:        runtime.Version(),
			Version:         VERSION,
			HostName:        host,
			Uptime:          time.Since(app.started).Round(time.Second).String(),
			Driver:          app.config.Driver,
			DecoderState:    app.State().String(),
			Events:          app.history.Total(),
			MQTT:            app.mqtt.Enabled(),
		}
		ctx.Status(http.StatusOK)
		return ctx.JSON(healthData)
	}
}
