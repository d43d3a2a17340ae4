package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "RRSHIP_"

// ApplyEnvConfig applies RRSHIP_* environment variables to cfg.
// It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("device-name", env("DEVICE_NAME"), &cfg.DeviceName)
	s.setString("device-address", env("DEVICE_ADDRESS"), &cfg.DeviceAddress)
	s.setString("service-url", env("SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", env("AUTH_KEY"), &cfg.AuthKey)
	s.setString("session-id", env("SESSION_ID"), &cfg.SessionID)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("scan-timeout", env("SCAN_TIMEOUT"), &cfg.ScanTimeout); err != nil {
		return err
	}
	if err := s.setDuration("connect-timeout", env("CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("connection-test-timeout", env("CONNECTION_TEST_TIMEOUT"), &cfg.ConnectionTestTimeout); err != nil {
		return err
	}
	if err := s.setDuration("duration", env("DURATION"), &cfg.Duration); err != nil {
		return err
	}
	if err := s.setDuration("timeout", env("HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("sink-retries", env("SINK_RETRIES"), true, &cfg.SinkRetries); err != nil {
		return err
	}
	if err := s.setIntFromString("workers", env("WORKERS"), false, &cfg.Workers); err != nil {
		return err
	}
	if err := s.setIntFromString("queue-size", env("QUEUE_SIZE"), false, &cfg.QueueSize); err != nil {
		return err
	}

	s.setBoolFromString("skip-connection-test", env("SKIP_CONNECTION_TEST"), &cfg.SkipConnectionTest)
	s.setBoolFromString("watch-config", env("WATCH_CONFIG"), &cfg.WatchConfig)

	return nil
}
