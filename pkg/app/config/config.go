package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"blinds/pkg/raspberry"
	"blinds/pkg/remote"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// Actions a schedule may run after selecting its channel.
var scheduleActions = map[string]bool{"open": true, "close": true, "stop": true}

// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Flag                 FlagConfig       `yaml:"-"`
	Debug                DebugConfig      `yaml:"debug"`
	Webserver            WebserverConfig  `yaml:"webserver"`
	Gpio                 GpioConfig       `yaml:"gpio"`
	BlindChannelMappings map[string]int   `yaml:"blindchannelmappings"`
	MQTT                 MQTTConfig       `yaml:"mqtt"`
	Schedules            []ScheduleConfig `yaml:"schedules"`
	API                  APIConfig        `yaml:"api"`
	ShutdownTimeoutInt   int              `yaml:"shutdowntimeout"`
	ShutdownTimeout      time.Duration    `yaml:"-"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	ConfigFile string
	LogLevel   string
	APIURL     string
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// GpioConfig selects the gpio backend and the wiring of the remote.
type GpioConfig struct {
	// Backend is one of auto, cdev, gpiomem or stub.
	Backend string      `yaml:"backend"`
	Chip    string      `yaml:"chip"`
	Pins    remote.Pins `yaml:"pins"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection"`
	Topic      string `yaml:"topic"`
	ClientID   string `yaml:"clientid"`
}

// ScheduleConfig runs Action on Channel whenever Cron fires.
type ScheduleConfig struct {
	Name    string `yaml:"name"`
	Cron    string `yaml:"cron"`
	Channel int    `yaml:"channel"`
	Action  string `yaml:"action"`
}

// APIConfig is used by the client commands to reach a running service.
type APIConfig struct {
	URL string `yaml:"url"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Flag: FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"blinds":  true,
			},
		},
		Gpio: GpioConfig{
			Backend: raspberry.BackendAuto,
			Chip:    raspberry.DefaultChip,
			Pins:    remote.DefaultPins,
		},
		BlindChannelMappings: map[string]int{},
		MQTT: MQTTConfig{
			Topic:    "blinds/remote",
			ClientID: "blinds",
		},
		API:                APIConfig{URL: "http://127.0.0.1:4000/api/blinds/"},
		ShutdownTimeoutInt: 30,
	}
}

func (c *Config) LoadConfig() error {
	if c.Flag.ConfigFile != "" {
		if err := c.readConfigFile(); err != nil {
			return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
		}
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if c.Flag.APIURL != "" {
		c.API.URL = c.Flag.APIURL
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.ShutdownTimeout = time.Duration(c.ShutdownTimeoutInt) * time.Second

	return c.validate()
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	return nil
}

func (c *Config) validate() error {
	if c.ShutdownTimeoutInt <= 0 {
		return fmt.Errorf("shutdowntimeout must be at least 1 second, got %d", c.ShutdownTimeoutInt)
	}

	if err := c.Gpio.Pins.Validate(); err != nil {
		return fmt.Errorf("gpio pins: %w", err)
	}

	for name, ch := range c.BlindChannelMappings {
		if ch < remote.MinChannel || ch > remote.MaxChannel {
			return fmt.Errorf("blind %q: channel %d not in range %d..%d", name, ch, remote.MinChannel, remote.MaxChannel)
		}
	}

	for i, s := range c.Schedules {
		if s.Cron == "" {
			return fmt.Errorf("schedule %d (%s): missing cron", i, s.Name)
		}
		if !scheduleActions[s.Action] {
			return fmt.Errorf("schedule %d (%s): unsupported action %q", i, s.Name, s.Action)
		}
		if s.Channel < remote.MinChannel || s.Channel > remote.MaxChannel {
			return fmt.Errorf("schedule %d (%s): channel %d not in range", i, s.Name, s.Channel)
		}
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	// defines Debug section of global.Config
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "info":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal
	case "error":
		c.Debug.Flag = debug.Error | debug.Fatal
	case "standard":
		c.Debug.Flag = debug.Standard
	default:
		return fmt.Errorf("unknown log level %q", c.Debug.FlagString)
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}
