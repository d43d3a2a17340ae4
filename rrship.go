// Package rrship records RR intervals from a Bluetooth heart rate strap and
// uploads them to a measurement service.
//
// Example usage:
//
//	cfg := rrship.DefaultConfig()
//	cfg.ServiceURL = "https://rr.example.com"
//	cfg.AuthKey = "your-api-key"
//	rec, err := rrship.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// See package github.com/bft-labs/rrship/pkg/rrship for the full API and
// cmd/rrship for the command line recorder.
package rrship

import "github.com/bft-labs/rrship/pkg/rrship"

// Config holds the recorder configuration.
type Config = rrship.Config

// Recorder decodes strap notifications and ships them to a measurement sink.
type Recorder = rrship.Recorder

// Option configures optional behavior of a Recorder.
type Option = rrship.Option

// DefaultConfig returns a Config with sensible defaults.
// ServiceURL must be set before calling New.
func DefaultConfig() Config {
	return rrship.DefaultConfig()
}

// New creates a Recorder.
func New(cfg Config, opts ...Option) (*Recorder, error) {
	return rrship.New(cfg, opts...)
}
