package app

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/womat/debug"
)

// VERSION holds the version information with the following logic in mind
//
//	1 ... fixed
//	0 ... year 2026, 1->year 2027, etc.
//	10 ... month of year (10=October)
//	the date format after the + is always the first of the month
//
// VERSION differs from semantic versioning as described in https://semver.org/
// but we keep the correct syntax.
const (
	VERSION = "1.0.10+20261001"
	MODULE  = "blinds"
)

// HandleVersion is the get application version web handler.
func (app *App) HandleVersion() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		debug.InfoLog.Print("web request version")

		return ctx.JSON(fiber.Map{
			"version":     VERSION,
			"description": MODULE,
			"about":       Version(),
		})
	}
}

// Version is the get application version as string.
func Version() string {
	return strings.TrimSpace(MODULE + " V" + strings.Split(VERSION, "+")[0])
}
