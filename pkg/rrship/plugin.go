package rrship

import "context"

// Plugin extends a Recorder with optional behavior.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called by Start. ctx is canceled when the recorder stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown is called by Stop in reverse registration order.
	Shutdown(ctx context.Context) error
}

// PluginConfig is the recorder context handed to plugins.
type PluginConfig struct {
	ServiceURL string
	AuthKey    string
	SessionID  string
	Logger     Logger

	// SetAuthKey rotates the bearer token used by the recorder's sink.
	SetAuthKey func(key string)
}
