package main

import (
	"testing"

	"github.com/jessevdk/go-flags"
)

func parse(t *testing.T, args ...string) (*flags.Parser, *Options) {
	t.Helper()
	var opts Options
	parser := flags.NewParser(&opts, flags.None)
	if _, err := parser.ParseArgs(args); err != nil {
		t.Fatalf("ParseArgs(%q): %v", args, err)
	}
	return parser, &opts
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		config, err := LoadConfig(WithDefaults())
		if err != nil {
			t.Fatal(err)
		}
		if config.SerialPort != "/dev/ttyUSB0" || config.BaudRate != 115200 ||
			config.BindAddress != "0.0.0.0:8080" || config.LogLevel != "info" {
			t.Errorf("unexpected defaults: %+v", config)
		}
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyS1")
		t.Setenv("BAUD_RATE", "9600")
		t.Setenv("APN", "web.provider")
		t.Setenv("REMOTE_HOST", "example.com")
		t.Setenv("REMOTE_PORT", "8080")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		if err != nil {
			t.Fatal(err)
		}
		if config.SerialPort != "/dev/ttyS1" || config.BaudRate != 9600 {
			t.Errorf("serial = %s @ %d", config.SerialPort, config.BaudRate)
		}
		if config.APN != "web.provider" || config.Host != "example.com" || config.Port != 8080 {
			t.Errorf("connection = %q %q %d", config.APN, config.Host, config.Port)
		}
	})

	t.Run("Invalid numbers in environment are ignored", func(t *testing.T) {
		t.Setenv("BAUD_RATE", "fast")
		t.Setenv("REMOTE_PORT", "70000")

		config, err := LoadConfig(WithDefaults(), WithEnv())
		if err != nil {
			t.Fatal(err)
		}
		if config.BaudRate != 115200 || config.Port != 0 {
			t.Errorf("baud=%d port=%d", config.BaudRate, config.Port)
		}
	})

	t.Run("Flags override environment", func(t *testing.T) {
		t.Setenv("SERIAL_PORT", "/dev/ttyS1")
		t.Setenv("LOG_LEVEL", "warn")
		parser, opts := parse(t, "--serial-port", "/dev/ttyACM0", "--port", "443", "--emulate")

		config, err := LoadConfig(WithDefaults(), WithEnv(), WithFlags(parser, opts))
		if err != nil {
			t.Fatal(err)
		}
		if config.SerialPort != "/dev/ttyACM0" {
			t.Errorf("SerialPort = %q", config.SerialPort)
		}
		if config.LogLevel != "warn" {
			t.Errorf("unset flag must not override environment, LogLevel = %q", config.LogLevel)
		}
		if config.Port != 443 || !config.Emulate {
			t.Errorf("Port = %d Emulate = %v", config.Port, config.Emulate)
		}
	})
}
