package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
)

// line drivers
const (
	DriverGpiod   = "gpiod"
	DriverGpiomem = "gpiomem"
	DriverEmu     = "emu"
)

const (
	// minHandshake is the minimal handshake pulse (µs) accepted by the keyboard.
	minHandshake = 85
	// maxHandshake is the longest handshake pulse (µs) the decoder can measure.
	maxHandshake = math.MaxUint32 / 2
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the application configuration. Attention!
// Each of the struct fields must be in the format
// first letter uppercase -> followed by CamelCase as in the config file.
// Config defines the struct of global config and the struct of the configuration file
type Config struct {
	Driver       string          `yaml:"driver" toml:"driver"`
	Chip         string          `yaml:"chip" toml:"chip"`
	Gpio         GpioConfig      `yaml:"gpio" toml:"gpio"`
	HandshakeInt int             `yaml:"handshake" toml:"handshake"`
	Handshake    time.Duration   `yaml:"-" toml:"-"`
	History      int             `yaml:"history" toml:"history"`
	Emu          EmuConfig       `yaml:"emu" toml:"emu"`
	Flag         FlagConfig      `yaml:"-" toml:"-"`
	Debug        DebugConfig     `yaml:"debug" toml:"debug"`
	Webserver    WebserverConfig `yaml:"webserver" toml:"webserver"`
	MQTT         MQTTConfig      `yaml:"mqtt" toml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	Version    bool
	Debug      string
	ConfigFile string
}

// GpioConfig defines the BCM numbers of the keyboard lines.
// Led is the optional caps lock lamp, 0 disables it.
type GpioConfig struct {
	Clock int `yaml:"clock" toml:"clock"`
	Data  int `yaml:"data" toml:"data"`
	Reset int `yaml:"reset" toml:"reset"`
	Led   int `yaml:"led" toml:"led"`
}

// EmuConfig defines the codes replayed by the emulated keyboard (driver emu).
type EmuConfig struct {
	Codes []int `yaml:"codes" toml:"codes"`
	Step  int   `yaml:"step" toml:"step"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration and configuration file
type WebserverConfig struct {
	URL         string          `yaml:"url" toml:"url"`
	Webservices map[string]bool `yaml:"webservices" toml:"webservices"`
}

// MQTTConfig defines the struct of the mqtt client configuration and configuration file
type MQTTConfig struct {
	Connection string `yaml:"connection" toml:"connection"`
	Topic      string `yaml:"topic" toml:"topic"`
	ClientID   string `yaml:"clientid" toml:"clientid"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-" toml:"-"`
	Flag       int            `yaml:"-" toml:"-"`
	FlagString string         `yaml:"flag" toml:"flag"`
	FileString string         `yaml:"file" toml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Driver:       DriverGpiod,
		Chip:         "gpiochip0",
		Gpio:         GpioConfig{Clock: 17, Data: 27, Reset: 22},
		HandshakeInt: 100,
		History:      64,
		Flag:         FlagConfig{},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"events":  true,
				"state":   true,
				"metrics": true,
			},
		},
		MQTT: MQTTConfig{
			Topic:    "/akbd/event",
			ClientID: "akbd",
		},
	}
}

func (c *Config) LoadConfig() error {
	if err := c.readConfigFile(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
	}

	if c.Flag.Debug != "" {
		c.Debug.FlagString = c.Flag.Debug
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	return c.validate()
}

// validate checks the values of the configuration and converts the time values.
func (c *Config) validate() error {
	switch c.Driver {
	case DriverGpiod, DriverGpiomem, DriverEmu:
	default:
		return fmt.Errorf("driver %q: %w", c.Driver, ErrInvalidConfig)
	}

	// the keyboard ignores shorter handshakes and stops sending
	if c.HandshakeInt < minHandshake {
		return fmt.Errorf("handshake %dµs shorter than %dµs: %w", c.HandshakeInt, minHandshake, ErrInvalidConfig)
	}
	if c.HandshakeInt > maxHandshake {
		return fmt.Errorf("handshake %dµs longer than %dµs: %w", c.HandshakeInt, maxHandshake, ErrInvalidConfig)
	}
	c.Handshake = time.Duration(c.HandshakeInt) * time.Microsecond

	if c.Emu.Step < 0 {
		return fmt.Errorf("emu step %dµs: %w", c.Emu.Step, ErrInvalidConfig)
	}

	for _, code := range c.Emu.Codes {
		if code < 0 || code > 0xff {
			return fmt.Errorf("emu code %d: %w", code, ErrInvalidConfig)
		}
	}

	if c.History < 1 {
		c.History = 1
	}

	return nil
}

// readConfigFile decodes a yaml file, or a toml file if the file name ends with .toml.
func (c *Config) readConfigFile() error {
	if strings.HasSuffix(strings.ToLower(c.Flag.ConfigFile), ".toml") {
		_, err := toml.DecodeFile(c.Flag.ConfigFile, c)
		return err
	}

	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
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
	default:
		c.Debug.Flag = debug.Standard
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
