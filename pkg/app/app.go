package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"blinds/pkg/app/config"
	"blinds/pkg/command"
	"blinds/pkg/gate"
	"blinds/pkg/mqtt"
	"blinds/pkg/raspberry"
	"blinds/pkg/remote"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"github.com/womat/debug"
)

// App is the main application struct.
// App is where the application is wired up.
type App struct {
	// web is the fiber web framework instance
	web *fiber.App

	// config is the application configuration
	config *config.Config

	// urlParsed contains the parsed Config.Webserver.URL parameter
	urlParsed *url.URL

	// mqtt is the handler to the mqtt broker
	mqtt *mqtt.Handler

	// gpio is the handler to the rpi gpio lines
	gpio raspberry.GPIO

	// remote is the driver of the physical remote control, nil until init
	remote *remote.DD2702H

	// gate serializes every button press of the process
	gate *gate.Gate

	// blinds forwards commands to the remote through the gate
	blinds *command.Facade

	// cron runs the configured schedules
	cron *cron.Cron

	// ctx is cancelled on Close, releasing callers still waiting for the gate
	ctx    context.Context
	cancel context.CancelFunc
}

// New checks the Web server URL and initialize the main app structure
func New(config *config.Config) (*App, error) {
	u, err := url.Parse(config.Webserver.URL)
	if err != nil {
		debug.ErrorLog.Printf("Error parsing url %q: %s", config.Webserver.URL, err.Error())
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &App{
		config:    config,
		urlParsed: u,

		web:  fiber.New(fiber.Config{ErrorHandler: errorHandler, DisableStartupMessage: true}),
		mqtt: mqtt.New(),
		gate: gate.New(),
		cron: cron.New(),

		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Run starts the application.
// The remote is reset before the web server accepts requests.
func (app *App) Run() error {
	if err := app.init(); err != nil {
		return err
	}

	go app.mqtt.Service()
	go app.runWebServer()
	app.cron.Start()

	return nil
}

// init initializes the application.
func (app *App) init() (err error) {
	if app.gpio, err = raspberry.Open(app.config.Gpio.Backend, app.config.Gpio.Chip); err != nil {
		debug.ErrorLog.Printf("can't open gpio: %v", err)
		return err
	}

	if app.remote, err = remote.New(app.gpio, app.config.Gpio.Pins, remote.SystemClock{}); err != nil {
		debug.ErrorLog.Printf("can't open remote: %v", err)
		return err
	}

	if err = app.mqtt.Connect(app.config.MQTT.Connection, app.config.MQTT.ClientID); err != nil {
		debug.ErrorLog.Printf("can't open mqtt broker %v", err)
		return err
	}

	app.attach(app.remote)

	debug.InfoLog.Print("resetting remote")
	if err = app.blinds.Reset(app.ctx); err != nil {
		debug.ErrorLog.Printf("can't reset remote: %v", err)
		return err
	}

	if err = app.initSchedules(); err != nil {
		return err
	}

	// initDefaultRoutes should be always called last because it needs app.blinds
	app.initDefaultRoutes()

	return nil
}

// attach puts r behind the gate and publishes every finished command.
func (app *App) attach(r remote.Remote) {
	app.blinds = command.New(r, app.gate, app.config.BlindChannelMappings)
	app.blinds.OnEvent(app.publishEvent)
}

func (app *App) publishEvent(ev command.Event) {
	if !app.mqtt.Enabled() {
		return
	}
	msg, err := mqtt.NewMessage(app.config.MQTT.Topic, ev, true)
	if err != nil {
		debug.ErrorLog.Printf("mqtt message: %v", err)
		return
	}
	app.mqtt.Send(msg)
}

// Close stops accepting commands, waits for the running press sequence and
// releases the hardware.
func (app *App) Close() error {
	app.cancel()

	<-app.cron.Stop().Done()

	if err := app.web.Shutdown(); err != nil {
		debug.ErrorLog.Printf("web server shutdown: %v", err)
	}

	if app.remote != nil {
		release := func() error {
			app.remote.Shutdown()
			return nil
		}
		if ok, _ := app.gate.TryDo(release); !ok {
			debug.InfoLog.Printf("waiting up to %v for the running command", app.config.ShutdownTimeout)
			ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
			err := app.gate.Do(ctx, release)
			cancel()
			if err != nil {
				debug.ErrorLog.Printf("remote still busy, lines not released: %v", err)
			}
		}
	}

	var errs []error
	if app.gpio != nil {
		if err := app.gpio.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gpio: %w", err))
		}
	}
	app.mqtt.Close()
	_ = app.mqtt.Disconnect()

	return errors.Join(errs...)
}
