package modem

import (
	"log/slog"
	"time"
)

// Config holds everything New needs to bring up a Modem. Use
// ConfigBuilder to assemble one.
type Config struct {
	Dialer Dialer

	APN         string
	APNUser     string
	APNPassword string

	Profile Profile

	// ATTimeout bounds the wait for any single reply.
	ATTimeout time.Duration
	// MaxRetries is how many IP stack resets are attempted before the
	// connection is given up with GeneralError.
	MaxRetries int
	// TickInterval is the period of the engine step loop.
	TickInterval time.Duration
	// PumpIdle bounds how long the serial pump parks without a wake-up.
	PumpIdle time.Duration

	RxBufferSize    int
	TxBufferSize    int
	ReadBufferSize  int
	WriteBufferSize int
	FIFODepth       int

	Logger *slog.Logger
}

// validate checks a Config whose defaults have already been applied.
func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.RxBufferSize < c.TxBufferSize {
		return ErrInvalidBufferSizes
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Profile.Name == "" {
		c.Profile = SIM800
	}
	if c.ATTimeout == 0 {
		c.ATTimeout = 5 * time.Second
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.TickInterval == 0 {
		c.TickInterval = 5 * time.Millisecond
	}
	if c.PumpIdle == 0 {
		c.PumpIdle = time.Millisecond
	}
	if c.RxBufferSize == 0 {
		c.RxBufferSize = 256
	}
	if c.TxBufferSize == 0 {
		c.TxBufferSize = 256
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 1024
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

// NewConfigBuilder returns a builder with all settings at their defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.Dialer = d
	return b
}

// WithAPN sets the access point name and optional credentials.
func (b *ConfigBuilder) WithAPN(apn, user, password string) *ConfigBuilder {
	b.config.APN = apn
	b.config.APNUser = user
	b.config.APNPassword = password
	return b
}

func (b *ConfigBuilder) WithProfile(p Profile) *ConfigBuilder {
	b.config.Profile = p
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.ATTimeout = d
	return b
}

func (b *ConfigBuilder) WithMaxRetries(n int) *ConfigBuilder {
	b.config.MaxRetries = n
	return b
}

func (b *ConfigBuilder) WithTickInterval(d time.Duration) *ConfigBuilder {
	b.config.TickInterval = d
	return b
}

// WithBufferSizes sets the serial rings (rx, tx) and the application
// payload rings (read, write). Zero keeps a default.
func (b *ConfigBuilder) WithBufferSizes(rx, tx, read, write int) *ConfigBuilder {
	b.config.RxBufferSize = rx
	b.config.TxBufferSize = tx
	b.config.ReadBufferSize = read
	b.config.WriteBufferSize = write
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.Logger = l
	return b
}

// Build validates the configuration and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	c.setDefaults()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
