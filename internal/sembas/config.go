package sembas

import (
	"strings"
	"time"
)

// BackoffConfig defines the inter-attempt delay curve for connect retries.
// The reference engine contract is a flat pause, so the default multiplier
// is 1.0; raising it turns the curve exponential.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines how a client reaches the exploration engine.
type Config struct {
	// Address is the engine's TCP endpoint.
	Address string

	// Dimensions is the probe point dimensionality announced at
	// handshake, fixed for every session of the run. Callers must set it.
	Dimensions int

	// MaxConnectAttempts bounds the dial loop. Zero or negative retries
	// until the context is done, so WithDefaults never touches it.
	MaxConnectAttempts int

	// FailFast makes Connect attempt exactly one dial regardless of
	// MaxConnectAttempts.
	FailFast bool

	// ConnectTimeout bounds each individual dial.
	ConnectTimeout time.Duration

	// HandshakeTimeout bounds the announce/ack exchange on a fresh
	// connection. Streaming afterwards has no deadline.
	HandshakeTimeout time.Duration

	Backoff BackoffConfig
}

// DefaultConfig returns the reference engine contract: local loopback
// port 2000, ten dial attempts spaced a flat 100ms apart.
func DefaultConfig() Config {
	return Config{
		Address:            "127.0.0.1:2000",
		MaxConnectAttempts: 10,
		ConnectTimeout:     5 * time.Second,
		HandshakeTimeout:   5 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 100 * time.Millisecond,
			Multiplier:   1.0,
		},
	}
}

// WithDefaults fills unset fields from DefaultConfig. Dimensions and
// MaxConnectAttempts carry meaning at zero and are left alone.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Address) == "" {
		c.Address = def.Address
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff.InitialDelay = def.Backoff.InitialDelay
	}
	if c.Backoff.Multiplier < 1.0 {
		c.Backoff.Multiplier = def.Backoff.Multiplier
	}
	return c
}
