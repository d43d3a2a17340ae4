package rrship

import (
	"github.com/bft-labs/rrship/internal/ports"
	"github.com/bft-labs/rrship/pkg/log"
)

// Re-exported port types, so callers can implement them outside this module.
type (
	// Logger is the structured logging interface from pkg/log.
	Logger = log.Logger

	// LogField is a structured log field.
	LogField = log.Field

	// HTTPClient is satisfied by *http.Client.
	HTTPClient = ports.HTTPClient

	// MeasurementSink stores RR intervals and heart rates.
	MeasurementSink = ports.MeasurementSink

	// Notifier shows user-facing strap messages.
	Notifier = ports.Notifier

	// SensorControl arms notifications and reads the strap battery.
	SensorControl = ports.SensorControl

	// SensorEvents receives strap traffic from a transport.
	SensorEvents = ports.SensorEvents
)

// Option configures optional behavior of a Recorder.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	sink         ports.MeasurementSink
	notifier     ports.Notifier
	eventHandler EventHandler
	plugins      []Plugin
	hostname     string
}

// WithHTTPClient sets the HTTP client used by the default sink.
// If not provided, an HTTP/2 capable client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger. If not provided, nothing is logged.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSink replaces the HTTP sink. Config.ServiceURL becomes optional.
func WithSink(sink MeasurementSink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithNotifier sets where strap contact messages are shown.
func WithNotifier(notifier Notifier) Option {
	return func(o *options) {
		o.notifier = notifier
	}
}

// WithEventHandler sets a handler for recorder events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the recorder starts.
// Plugins are initialized in registration order and shutdown in reverse order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithHostname overrides the hostname reported to the measurement service.
func WithHostname(hostname string) Option {
	return func(o *options) {
		o.hostname = hostname
	}
}
