package app

import "github.com/womat/debug"

// initDefaultRoutes initializes the applications routes.
// Each group can be switched off in the webservices section of the config.
func (app *App) initDefaultRoutes() {
	app.web.Use(logRequest)

	api := app.web.Group("/")
	if app.config.Webserver.Webservices["version"] {
		api.Get("/version", app.HandleVersion())
	}
	if app.config.Webserver.Webservices["health"] {
		api.Get("/health", app.HandleHealth())
	}
	if app.config.Webserver.Webservices["blinds"] {
		app.initBlindsRoutes()
	}
}

func (app *App) initBlindsRoutes() {
	b := app.web.Group("/api/blinds")

	b.Get("/", app.HandleIndex())
	b.Get("/configuration", app.HandleConfiguration())
	b.Get("/channel", app.HandleGetChannel())

	// fixed channel routes before channel/:id
	b.Post("/channel/up", app.HandleOperation(app.blinds.ChannelUp))
	b.Post("/channel/down", app.HandleOperation(app.blinds.ChannelDown))
	b.Post("/channel/limit", app.HandleOperation(app.blinds.ChannelLimit))
	b.Post("/channel/:id", app.HandleSetChannel())

	b.Post("/reset", app.HandleOperation(app.blinds.Reset))
	b.Post("/open", app.HandleOperation(app.blinds.Open))
	b.Post("/close", app.HandleOperation(app.blinds.Close))
	b.Post("/stop", app.HandleOperation(app.blinds.Stop))
	b.Post("/pair", app.HandleOperation(app.blinds.Pair))

	debug.DebugLog.Print("blinds routes registered")
}
