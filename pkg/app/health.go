package app

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// HandleHealth returns data about the health of myself and the remote.
// output example:
//
//	{"NumGoroutines":11,"HeapAllocatedBytes":332256360,"HeapAllocatedMB":316,
//	 "SysMemoryBytes":360290312,"SysMemoryMB":343,"Version":"1.0.00+20261001","ProgLang":"go1.21.3",
//	 "Channel":3,"RemoteBusy":false,"QueuedCommands":0,"GpioBackend":"cdev","MQTTEnabled":true}
func (app *App) HandleHealth() fiber.Handler {
	bToMb := func(b uint64) uint64 {
		return b / 1024 / 1024
	}

	host, _ := os.Hostname()

	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request health")

		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		hab := m.Alloc
		smb := m.Sys

		healthData := struct {
			NumGoroutines      int
			NumCPU             int
			HeapAllocatedBytes uint64
			HeapAllocatedMB    uint64
			SysMemoryBytes     uint64
			SysMemoryMB        uint64
			Version            string
			ProgLang           string
			HostName           string
			Time               string
			Channel            int
			RemoteBusy         bool
			QueuedCommands     int
			GpioBackend        string
			MQTTEnabled        bool
		}{
			NumGoroutines:      runtime.NumGoroutine(),
			NumCPU:             runtime.NumCPU(),
			HeapAllocatedBytes: hab,
			HeapAllocatedMB:    bToMb(hab),
			SysMemoryBytes:     smb,
			SysMemoryMB:        bToMb(smb),
			ProgLang:           runtime.Version(),
			Version:            VERSION,
			HostName:           host,
			Time:               time.Now().Format(time.RFC3339),
			Channel:            app.blinds.Channel(),
			RemoteBusy:         app.gate.Busy(),
			QueuedCommands:     app.gate.Waiting(),
			GpioBackend:        app.config.Gpio.Backend,
			MQTTEnabled:        app.mqtt.Enabled(),
		}
		ctx.Status(http.StatusOK)
		return ctx.JSON(healthData)
	}
}
