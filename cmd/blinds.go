package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"blinds/pkg/app"
	"blinds/pkg/app/config"
	"blinds/pkg/blindsapi"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Roller blind service for the Doya DD2702H remote control",
		Version: app.VERSION,
		Description: "Press the buttons of a DD2702H 15 channel remote control wired to the gpio lines of a raspberry pi" +
			"\n and offer the remote as web service under /api/blinds." +
			"\n Every command is published to mqtt and blinds can be opened or closed by cron schedules.",
		UsageText: "blinds [--config <file>] [--log error|info|debug|trace] [command]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the service and use the configuration file blinds.yaml" +
			"\n\t\tblinds --config /opt/womat/config/blinds.yaml" +
			"\n\tclose the blind on channel 3 of a running service" +
			"\n\t\tblinds send channel 3 && blinds send close",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Value: "standard", Usage: "`LEVEL` defines the log level (standard|error|info|debug|trace)"},
			&cli.StringFlag{Name: "url", Aliases: []string{"u"}, Destination: &cfg.Flag.APIURL, Usage: "`URL` of a running blinds api, used by the client commands"},
		},
		Action: func(ctx *cli.Context) error {
			return serve(cfg)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "reset the remote and serve the blinds api (default)",
				Action: func(ctx *cli.Context) error { return serve(cfg) },
			},
			{
				Name:   "config",
				Usage:  "print the blind channel mappings of a running service",
				Action: func(ctx *cli.Context) error { return fetchConfiguration(ctx, cfg) },
			},
			{
				Name:      "send",
				Usage:     "forward a single operation to a running service",
				ArgsUsage: "<reset|open|close|stop|pair|channel|channel/up|channel/down|channel/limit> [channel]",
				Action:    func(ctx *cli.Context) error { return send(ctx, cfg) },
			},
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
}

func serve(cfg *config.Config) error {
	if err := cfg.LoadConfig(); err != nil {
		return err
	}

	debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
	defer func() {
		debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
		_ = cfg.Debug.File.Close()
	}()

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		debug.InfoLog.Printf("closing app %s", app.Version())
		if err := a.Close(); err != nil {
			debug.ErrorLog.Printf("closing app: %v", err)
		}
	}()

	debug.InfoLog.Printf("starting app %s", app.Version())
	if err = a.Run(); err != nil {
		return err
	}

	// capture exit signals to ensure resources are released on exit.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	// wait for am os.Interrupt signal (CTRL C)
	sig := <-quit
	debug.InfoLog.Printf("Got %s signal. Aborting...", sig)

	return nil
}

// client loads the config for the client commands. A missing default
// config file is fine, the api url then comes from --url or the defaults.
func client(ctx *cli.Context, cfg *config.Config) (*blindsapi.Client, error) {
	if !ctx.IsSet("config") {
		if _, err := os.Stat(cfg.Flag.ConfigFile); err != nil {
			cfg.Flag.ConfigFile = ""
		}
	}
	if err := cfg.LoadConfig(); err != nil {
		return nil, err
	}
	debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)

	return blindsapi.New(cfg.API.URL)
}

func fetchConfiguration(ctx *cli.Context, cfg *config.Config) error {
	c, err := client(ctx, cfg)
	if err != nil {
		return err
	}

	body, err := c.FetchConfiguration(context.Background())
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if _, err = io.Copy(os.Stdout, body); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

func send(ctx *cli.Context, cfg *config.Config) error {
	operation := ctx.Args().First()
	if operation == "" {
		return fmt.Errorf("missing operation, usage: %s send %s", app.MODULE, ctx.Command.ArgsUsage)
	}

	var channel *int
	if arg := ctx.Args().Get(1); arg != "" {
		ch, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid channel %q: %w", arg, err)
		}
		channel = &ch
	}

	c, err := client(ctx, cfg)
	if err != nil {
		return err
	}

	if err = c.Forward(context.Background(), operation, channel); err != nil {
		return err
	}
	debug.InfoLog.Printf("%s sent", operation)
	return nil
}
