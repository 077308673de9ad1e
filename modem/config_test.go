package modem_test

import (
	"context"
	"testing"
	"time"

	"i4.energy/across/simcomm/modem"
)

func TestConfig(t *testing.T) {
	t.Run("ErrNoDialer when no dialer provided", func(t *testing.T) {
		_, err := modem.NewConfigBuilder().Build()

		if err != modem.ErrNoDialer {
			t.Errorf("expected ErrNoDialer, got: %v", err)
		}
	})

	t.Run("Defaults are applied", func(t *testing.T) {
		config, err := modem.NewConfigBuilder().
			WithDialer(modem.SerialDialer{PortName: "/dev/ttyUSB0"}).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		if config.Profile.Name != modem.SIM800.Name {
			t.Errorf("Profile = %q", config.Profile.Name)
		}
		if config.ATTimeout != 5*time.Second {
			t.Errorf("ATTimeout = %v", config.ATTimeout)
		}
		if config.MaxRetries != 3 {
			t.Errorf("MaxRetries = %d", config.MaxRetries)
		}
		if config.RxBufferSize != 256 || config.TxBufferSize != 256 {
			t.Errorf("serial buffers = %d/%d", config.RxBufferSize, config.TxBufferSize)
		}
		if config.Logger == nil {
			t.Error("Logger not defaulted")
		}
	})

	t.Run("Explicit settings are kept", func(t *testing.T) {
		config, err := modem.NewConfigBuilder().
			WithDialer(modem.SerialDialer{PortName: "/dev/ttyUSB0"}).
			WithAPN("internet", "user", "secret").
			WithATTimeout(time.Second).
			WithMaxRetries(7).
			WithTickInterval(time.Millisecond).
			WithBufferSizes(512, 128, 64, 32).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		if config.APN != "internet" || config.APNUser != "user" || config.APNPassword != "secret" {
			t.Errorf("APN settings = %q %q %q", config.APN, config.APNUser, config.APNPassword)
		}
		if config.ATTimeout != time.Second || config.MaxRetries != 7 || config.TickInterval != time.Millisecond {
			t.Errorf("timing = %v %d %v", config.ATTimeout, config.MaxRetries, config.TickInterval)
		}
		if config.RxBufferSize != 512 || config.TxBufferSize != 128 ||
			config.ReadBufferSize != 64 || config.WriteBufferSize != 32 {
			t.Errorf("buffers = %d %d %d %d", config.RxBufferSize, config.TxBufferSize,
				config.ReadBufferSize, config.WriteBufferSize)
		}
	})

	t.Run("ErrInvalidBufferSizes when receive ring is smaller", func(t *testing.T) {
		tests := []struct {
			name   string
			rx, tx int
		}{
			{"both explicit", 64, 128},
			{"default transmit ring", 100, 0},
			{"default receive ring", 0, 512},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := modem.NewConfigBuilder().
					WithDialer(modem.SerialDialer{PortName: "/dev/ttyUSB0"}).
					WithBufferSizes(tt.rx, tt.tx, 0, 0).
					Build()

				if err != modem.ErrInvalidBufferSizes {
					t.Errorf("expected ErrInvalidBufferSizes, got: %v", err)
				}
			})
		}
	})

	t.Run("New rejects a receive ring smaller than the default transmit ring", func(t *testing.T) {
		config := modem.Config{
			Dialer:       modem.SerialDialer{PortName: "/dev/ttyUSB0"},
			RxBufferSize: 100,
		}
		if _, err := modem.New(context.Background(), config); err != modem.ErrInvalidBufferSizes {
			t.Errorf("expected ErrInvalidBufferSizes, got: %v", err)
		}
	})
}
