package cliconfig

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/rrship/internal/domain"
)

// DefaultServiceURL is the default endpoint of the measurement service.
const DefaultServiceURL = "http://localhost:8080"

// DefaultDeviceName matches the advertised name of Polar straps.
const DefaultDeviceName = "Polar"

// Config holds CLI configuration for rrship.
type Config struct {
	DeviceName    string
	DeviceAddress string

	ScanTimeout           time.Duration
	ConnectTimeout        time.Duration
	ConnectionTestTimeout time.Duration

	// Duration is the recording length. Zero records until interrupted.
	Duration time.Duration

	ServiceURL  string
	AuthKey     string
	SessionID   string
	HTTPTimeout time.Duration
	SinkRetries int

	Workers   int
	QueueSize int

	LogLevel string

	SkipConnectionTest bool
	WatchConfig        bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		DeviceName:            DefaultDeviceName,
		ScanTimeout:           30 * time.Second,
		ConnectTimeout:        10 * time.Second,
		ConnectionTestTimeout: 30 * time.Second,
		ServiceURL:            DefaultServiceURL,
		HTTPTimeout:           15 * time.Second,
		SinkRetries:           3,
		Workers:               4,
		QueueSize:             256,
		LogLevel:              "info",
	}
}

// Validate checks the configuration for errors and normalizes the service URL.
func (c *Config) Validate() error {
	if c.DeviceName == "" && c.DeviceAddress == "" {
		return invalid("device-name or device-address is required")
	}

	if c.ServiceURL == "" {
		c.ServiceURL = DefaultServiceURL
	}
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")
	u, err := url.Parse(c.ServiceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("service-url %q must be an absolute http(s) URL", c.ServiceURL)
	}

	if c.ScanTimeout <= 0 {
		return invalid("scan timeout must be positive")
	}
	if c.ConnectTimeout <= 0 {
		return invalid("connect timeout must be positive")
	}
	if c.ConnectionTestTimeout <= 0 {
		return invalid("connection test timeout must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return invalid("http timeout must be positive")
	}
	if c.Duration < 0 {
		return invalid("duration must not be negative")
	}
	if c.SinkRetries < 0 {
		return invalid("sink retries must not be negative")
	}
	if c.Workers <= 0 {
		return invalid("workers must be positive")
	}
	if c.QueueSize <= 0 {
		return invalid("queue size must be positive")
	}

	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer, zero included.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// With allowZero false, zero and negative values are ignored.
func (s *configSetter) setIntFromString(flag, value string, allowZero bool, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 || (i == 0 && !allowZero) {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
