package rrship

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/rrship/internal/app"
	"github.com/bft-labs/rrship/internal/domain"
)

// Config holds the recorder configuration.
type Config struct {
	// ServiceURL is the base URL of the measurement service.
	ServiceURL string

	// AuthKey is sent as a bearer token.
	AuthKey string

	// SessionID tags every upload. Optional.
	SessionID string

	// HTTPTimeout bounds each upload request. Default: 15s
	HTTPTimeout time.Duration

	// SinkRetries is the number of extra attempts on transport errors and
	// 5xx responses. Default: 3. Negative disables retries.
	SinkRetries int

	// Workers is the number of concurrent uploads. Default: 4
	Workers int

	// QueueSize is the number of pending measurements before new ones are
	// dropped. Default: 256
	QueueSize int

	// ConnectionTestTimeout bounds TestConnection. Default: 30s
	ConnectionTestTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	c := Config{SinkRetries: 3}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	if c.Workers <= 0 {
		c.Workers = app.DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = app.DefaultQueueSize
	}
	if c.ConnectionTestTimeout <= 0 {
		c.ConnectionTestTimeout = app.DefaultConnectionTestTimeout
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
}

// Validate checks the configuration. A custom sink makes ServiceURL optional.
func (c *Config) Validate() error {
	return c.validate(false)
}

func (c *Config) validate(customSink bool) error {
	if c.ServiceURL == "" {
		if customSink {
			return nil
		}
		return fmt.Errorf("%w: service URL is required", domain.ErrInvalidConfig)
	}
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: service URL %q must be an absolute http(s) URL", domain.ErrInvalidConfig, c.ServiceURL)
	}
	return nil
}
