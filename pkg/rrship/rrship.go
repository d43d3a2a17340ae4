package rrship

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	httpAdapter "github.com/bft-labs/rrship/internal/adapters/http"
	"github.com/bft-labs/rrship/internal/app"
	"github.com/bft-labs/rrship/internal/ports"
	"github.com/bft-labs/rrship/pkg/log"
)

// authKeySetter is implemented by sinks that support token rotation.
type authKeySetter interface {
	SetAuthKey(key string)
}

// Recorder decodes strap notifications and ships them to a measurement sink.
// Use New() to create an instance, then Start() before recording.
type Recorder struct {
	config   Config
	session  *app.Session
	pipeline *app.Pipeline
	sink     ports.MeasurementSink
	logger   ports.Logger
	plugins  []Plugin

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// New creates a Recorder in StateNew. Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Recorder, error) {
	cfg.SetDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.validate(o.sink != nil); err != nil {
		return nil, err
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	sink := o.sink
	if sink == nil {
		client := o.httpClient
		if client == nil {
			c, err := httpAdapter.NewClient(cfg.HTTPTimeout)
			if err != nil {
				return nil, err
			}
			client = c
		}
		host := o.hostname
		if host == "" {
			host = hostname()
		}
		sink = httpAdapter.NewSink(client, logger, httpAdapter.SinkConfig{
			ServiceURL: cfg.ServiceURL,
			AuthKey:    cfg.AuthKey,
			SessionID:  cfg.SessionID,
			Hostname:   host,
			Retries:    cfg.SinkRetries,
		})
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	pipeline := app.NewPipeline(app.PipelineConfig{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, sink, logger, emitter)

	session := app.NewSession(app.SessionConfig{
		ConnectionTestTimeout: cfg.ConnectionTestTimeout,
	}, pipeline, nil, o.notifier, logger, emitter)

	return &Recorder{
		config:   cfg,
		session:  session,
		pipeline: pipeline,
		sink:     sink,
		logger:   logger,
		plugins:  o.plugins,
	}, nil
}

// Attach binds the strap used to arm notifications and read the battery.
func (r *Recorder) Attach(sensor SensorControl) {
	r.session.Attach(sensor)
}

// Events returns the inbound port a transport feeds strap traffic into.
func (r *Recorder) Events() SensorEvents {
	return r.session
}

// Start launches the delivery workers and initializes plugins.
// Deliveries outlive ctx cancellation; use Stop to drain them.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateRunning:
		return ErrAlreadyRunning
	case StateStopped:
		return ErrStopped
	}

	runCtx, cancel := context.WithCancel(ctx)

	if err := r.pipeline.Start(runCtx); err != nil {
		cancel()
		return err
	}

	pluginCfg := PluginConfig{
		ServiceURL: r.config.ServiceURL,
		AuthKey:    r.config.AuthKey,
		SessionID:  r.config.SessionID,
		Logger:     r.logger,
		SetAuthKey: r.SetAuthKey,
	}
	for i, p := range r.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			r.shutdownPlugins(r.plugins[:i])
			_ = r.pipeline.Close(app.ShutdownTimeout)
			r.state = StateStopped
			return fmt.Errorf("initialize plugin %s: %w", p.Name(), err)
		}
		r.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	r.cancel = cancel
	r.state = StateRunning
	return nil
}

// TestConnection arms notifications and waits until the strap reports valid
// contact, ctx is done or the configured timeout elapses.
func (r *Recorder) TestConnection(ctx context.Context) error {
	return r.session.TestConnection(ctx, r.config.ConnectionTestTimeout)
}

// Record records until d elapses, StopRecording is called or ctx is done.
// A zero d records until stopped.
func (r *Recorder) Record(ctx context.Context, d time.Duration) error {
	if r.Status().State != StateRunning {
		return ErrNotRunning
	}
	return r.session.Record(ctx, d)
}

// StartRecording enters Recording without blocking. Notifications must
// already be armed by the caller's transport.
func (r *Recorder) StartRecording(d time.Duration) error {
	if r.Status().State != StateRunning {
		return ErrNotRunning
	}
	return r.session.StartRecording(d)
}

// StopRecording ends the current recording.
func (r *Recorder) StopRecording() {
	r.session.StopRecording()
}

// Intervals returns the RR intervals retained since the last recording started.
func (r *Recorder) Intervals() []float64 {
	return r.session.Intervals()
}

// ResetLog discards the retained intervals without touching the phase.
func (r *Recorder) ResetLog() {
	r.session.ResetLog()
}

// ReadBatteryLevel reads the battery percentage of the attached strap.
func (r *Recorder) ReadBatteryLevel() (int, error) {
	return r.session.ReadBatteryLevel()
}

// SetAuthKey rotates the bearer token if the sink supports it.
func (r *Recorder) SetAuthKey(key string) {
	s, ok := r.sink.(authKeySetter)
	if !ok {
		return
	}
	s.SetAuthKey(key)
	r.logger.Info("auth key updated")
}

// Stop ends any recording, drains pending uploads and shuts plugins down.
// Returns nil on graceful shutdown, ErrShutdownTimeout if uploads were abandoned.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != StateRunning {
		r.mu.Unlock()
		return ErrNotRunning
	}
	r.state = StateStopped
	cancel := r.cancel
	r.mu.Unlock()

	r.session.StopRecording()
	err := r.pipeline.Close(app.ShutdownTimeout)

	if cancel != nil {
		cancel()
	}
	r.shutdownPlugins(r.plugins)

	return err
}

func (r *Recorder) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			continue
		}
		r.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
	}
}

// Status returns a snapshot of the recorder.
// Safe to call concurrently from any goroutine.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	state := r.state
	r.mu.Unlock()

	return Status{
		State:     state,
		Phase:     r.session.Phase(),
		Intervals: len(r.session.Intervals()),
		Delivery:  r.pipeline.Stats(),
	}
}

func hostname() string {
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}
