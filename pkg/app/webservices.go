package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"blinds/pkg/command"
	"blinds/pkg/remote"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// runWebServer starts the applications web server and listens for web requests.
// It's designed to run in a separate go function to not block the main go function,
// e.g. go runWebServer(). See app.Run()
func (app *App) runWebServer() {
	debug.InfoLog.Printf("listening on %s", app.urlParsed.Host)
	if err := app.web.Listen(app.urlParsed.Host); err != nil {
		debug.ErrorLog.Print(err)
	}
}

// logRequest logs every request before it is handled.
func logRequest(ctx *fiber.Ctx) error {
	debug.InfoLog.Printf("request: %s %s [%s]", ctx.Method(), ctx.Path(), ctx.IP())
	return ctx.Next()
}

// errorHandler maps errors of the remote to http status codes.
func errorHandler(ctx *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError

	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, remote.ErrInvalidArgument):
		code = http.StatusBadRequest
	case errors.Is(err, command.ErrUnknownOperation):
		code = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}

	if code >= http.StatusInternalServerError {
		debug.ErrorLog.Printf("%s %s: %v", ctx.Method(), ctx.Path(), err)
	}
	return ctx.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// HandleIndex answers with no content, used as liveness probe of the blinds api.
func (app *App) HandleIndex() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.SendStatus(http.StatusNoContent)
	}
}

// HandleConfiguration returns the blind name to channel mappings.
// output example:
//
//	{"BlindChannelMappings":{"Kitchen":2,"Lounge":3}}
func (app *App) HandleConfiguration() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{"BlindChannelMappings": app.blinds.Configuration()})
	}
}

// HandleGetChannel returns the selected channel as a bare number.
func (app *App) HandleGetChannel() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		return ctx.JSON(app.blinds.Channel())
	}
}

// HandleSetChannel selects the channel given by the id route parameter.
func (app *App) HandleSetChannel() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		id, err := strconv.Atoi(ctx.Params("id"))
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, fmt.Sprintf("invalid channel %q", ctx.Params("id")))
		}
		if err := app.blinds.SetChannel(app.ctx, id); err != nil {
			return err
		}
		return ctx.SendStatus(http.StatusOK)
	}
}

// HandleOperation runs a single gated remote operation.
func (app *App) HandleOperation(op func(context.Context) error) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := op(app.ctx); err != nil {
			return err
		}
		return ctx.SendStatus(http.StatusOK)
	}
}
