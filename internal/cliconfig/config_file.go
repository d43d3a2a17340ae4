package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	DeviceName            string `toml:"device_name"`
	DeviceAddress         string `toml:"device_address"`
	ScanTimeout           string `toml:"scan_timeout"`
	ConnectTimeout        string `toml:"connect_timeout"`
	ConnectionTestTimeout string `toml:"connection_test_timeout"`
	Duration              string `toml:"duration"`
	ServiceURL            string `toml:"service_url"`
	AuthKey               string `toml:"auth_key"`
	SessionID             string `toml:"session_id"`
	HTTPTimeout           string `toml:"http_timeout"`
	SinkRetries           *int   `toml:"sink_retries"`
	Workers               int    `toml:"workers"`
	QueueSize             int    `toml:"queue_size"`
	LogLevel              string `toml:"log_level"`
	SkipConnectionTest    *bool  `toml:"skip_connection_test"`
	WatchConfig           *bool  `toml:"watch_config"`
}

// NewFileConfig renders cfg in file form. Zero durations are written as
// "0s" so that a round trip through ApplyFileConfig keeps them.
func NewFileConfig(cfg Config) FileConfig {
	retries := cfg.SinkRetries
	skip := cfg.SkipConnectionTest
	watch := cfg.WatchConfig
	return FileConfig{
		DeviceName:            cfg.DeviceName,
		DeviceAddress:         cfg.DeviceAddress,
		ScanTimeout:           cfg.ScanTimeout.String(),
		ConnectTimeout:        cfg.ConnectTimeout.String(),
		ConnectionTestTimeout: cfg.ConnectionTestTimeout.String(),
		Duration:              cfg.Duration.String(),
		ServiceURL:            cfg.ServiceURL,
		AuthKey:               cfg.AuthKey,
		SessionID:             cfg.SessionID,
		HTTPTimeout:           cfg.HTTPTimeout.String(),
		SinkRetries:           &retries,
		Workers:               cfg.Workers,
		QueueSize:             cfg.QueueSize,
		LogLevel:              cfg.LogLevel,
		SkipConnectionTest:    &skip,
		WatchConfig:           &watch,
	}
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.rrship/config.toml, or "" if the home
// directory cannot be determined.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rrship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("device-name", fc.DeviceName, &cfg.DeviceName)
	s.setString("device-address", fc.DeviceAddress, &cfg.DeviceAddress)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("session-id", fc.SessionID, &cfg.SessionID)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	durations := []struct {
		flag  string
		value string
		dst   *time.Duration
	}{
		{"scan-timeout", fc.ScanTimeout, &cfg.ScanTimeout},
		{"connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout},
		{"connection-test-timeout", fc.ConnectionTestTimeout, &cfg.ConnectionTestTimeout},
		{"duration", fc.Duration, &cfg.Duration},
		{"timeout", fc.HTTPTimeout, &cfg.HTTPTimeout},
	}
	for _, d := range durations {
		if err := s.setDuration(d.flag, d.value, d.dst); err != nil {
			return err
		}
	}

	s.setIntPtr("sink-retries", fc.SinkRetries, &cfg.SinkRetries)
	s.setInt("workers", fc.Workers, &cfg.Workers)
	s.setInt("queue-size", fc.QueueSize, &cfg.QueueSize)

	s.setBool("skip-connection-test", fc.SkipConnectionTest, &cfg.SkipConnectionTest)
	s.setBool("watch-config", fc.WatchConfig, &cfg.WatchConfig)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
