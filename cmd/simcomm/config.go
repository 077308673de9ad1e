package main

import (
	"os"
	"strconv"

	"github.com/jessevdk/go-flags"
)

// Options are the command-line flags. Only flags given explicitly override
// the environment.
type Options struct {
	SerialPort  string `long:"serial-port" description:"Serial port to connect to the modem"`
	BaudRate    int    `long:"baud-rate" description:"Baud rate for serial communication"`
	BindAddress string `long:"bind-address" description:"Bind address for the HTTP server"`
	LogLevel    string `long:"log-level" description:"Log level (debug, info, warn, error)"`
	APN         string `long:"apn" description:"Access point name"`
	APNUser     string `long:"apn-user" description:"Access point user"`
	APNPassword string `long:"apn-password" description:"Access point password"`
	Host        string `long:"host" description:"Remote host to connect to on startup"`
	Port        uint16 `long:"port" description:"Remote TCP port"`
	Emulate     bool   `long:"emulate" description:"Use a built-in SIM800 emulator on a pseudo terminal"`
}

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the server listens on (e.g. "0.0.0.0:8080")
	BindAddress string
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// APN, APNUser and APNPassword configure the packet data context
	APN         string
	APNUser     string
	APNPassword string
	// Host and Port select a remote endpoint to connect to on startup
	Host string
	Port uint16
	// Emulate replaces the serial port with a pseudo terminal driven by an emulator
	Emulate bool
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr, ok := os.LookupEnv("BIND_ADDRESS"); ok {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if apn := os.Getenv("APN"); apn != "" {
			c.APN = apn
		}
		if user := os.Getenv("APN_USER"); user != "" {
			c.APNUser = user
		}
		if password := os.Getenv("APN_PASSWORD"); password != "" {
			c.APNPassword = password
		}

		if host := os.Getenv("REMOTE_HOST"); host != "" {
			c.Host = host
		}
		if port := os.Getenv("REMOTE_PORT"); port != "" {
			if p, err := strconv.ParseUint(port, 10, 16); err == nil {
				c.Port = uint16(p)
			}
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
func WithFlags(parser *flags.Parser, opts *Options) ConfigOption {
	return func(c *Config) error {
		isSet := func(name string) bool {
			opt := parser.FindOptionByLongName(name)
			return opt != nil && opt.IsSet()
		}

		if isSet("bind-address") {
			c.BindAddress = opts.BindAddress
		}
		if isSet("serial-port") {
			c.SerialPort = opts.SerialPort
		}
		if isSet("baud-rate") {
			c.BaudRate = opts.BaudRate
		}
		if isSet("log-level") {
			c.LogLevel = opts.LogLevel
		}
		if isSet("apn") {
			c.APN = opts.APN
		}
		if isSet("apn-user") {
			c.APNUser = opts.APNUser
		}
		if isSet("apn-password") {
			c.APNPassword = opts.APNPassword
		}
		if isSet("host") {
			c.Host = opts.Host
		}
		if isSet("port") {
			c.Port = opts.Port
		}
		if opts.Emulate {
			c.Emulate = true
		}
		return nil
	}
}
