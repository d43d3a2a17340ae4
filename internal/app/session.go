package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/rrship/internal/domain"
	"github.com/bft-labs/rrship/internal/ports"
	"github.com/bft-labs/rrship/internal/protocol"
)

// DefaultConnectionTestTimeout bounds TestConnection when no timeout is given.
const DefaultConnectionTestTimeout = 30 * time.Second

// User-facing strap messages.
const (
	msgPoorContact = "Chest strap is not tightened or the strap needs moisture."
	msgStrapValid  = "Strap is working!"
)

// SessionConfig contains configuration for a measurement session.
type SessionConfig struct {
	// InitialPhase is Idle unless the caller starts in ConnectionTest
	// or in a timed Recording.
	InitialPhase domain.Phase

	// ConnectionTestTimeout is used when TestConnection gets no timeout.
	ConnectionTestTimeout time.Duration
}

// Enqueuer accepts delivery tasks without blocking.
type Enqueuer interface {
	Enqueue(task domain.DeliveryTask) error
}

// SessionEventEmitter is called on phase and connection changes.
type SessionEventEmitter interface {
	PhaseEmitter
	OnConnectionChange(connected bool)
}

// Session decodes notifications and routes them according to the current phase.
// It implements ports.SensorEvents.
type Session struct {
	config   SessionConfig
	phases   *phaseMachine
	log      *domain.MeasurementLog
	pipeline Enqueuer
	notifier ports.Notifier
	logger   ports.Logger
	emitter  SessionEventEmitter

	// seq is only touched from the notification path.
	seq uint64
	now func() time.Time

	// armMu orders arming against Record's final disarm.
	armMu sync.Mutex

	mu        sync.Mutex
	sensor    ports.SensorControl
	connValid chan struct{}
	recStop   chan struct{}
}

var _ ports.SensorEvents = (*Session)(nil)

// NewSession creates a session with the given dependencies.
// sensor may be nil and attached later with Attach.
func NewSession(
	config SessionConfig,
	pipeline Enqueuer,
	sensor ports.SensorControl,
	notifier ports.Notifier,
	logger ports.Logger,
	emitter SessionEventEmitter,
) *Session {
	if config.ConnectionTestTimeout <= 0 {
		config.ConnectionTestTimeout = DefaultConnectionTestTimeout
	}

	var phaseEmitter PhaseEmitter
	if emitter != nil {
		phaseEmitter = emitter
	}

	s := &Session{
		config:   config,
		phases:   newPhaseMachine(config.InitialPhase, logger, phaseEmitter),
		log:      domain.NewMeasurementLog(),
		pipeline: pipeline,
		sensor:   sensor,
		notifier: notifier,
		logger:   logger,
		emitter:  emitter,
		now:      time.Now,
	}
	if config.InitialPhase.Kind == domain.PhaseConnectionTest {
		s.connValid = make(chan struct{})
	}
	if config.InitialPhase.Kind == domain.PhaseRecording {
		s.recStop = make(chan struct{})
	}
	return s
}

// Attach binds the sensor used to arm notifications and read the battery.
func (s *Session) Attach(sensor ports.SensorControl) {
	s.mu.Lock()
	s.sensor = sensor
	s.mu.Unlock()
}

// Phase returns the current session phase.
func (s *Session) Phase() domain.Phase {
	return s.phases.Current()
}

// Intervals returns the RR intervals retained since the last recording started.
func (s *Session) Intervals() []float64 {
	return s.log.Snapshot()
}

// ResetLog discards the retained RR intervals.
func (s *Session) ResetLog() {
	s.log.Reset()
}

// OnNotification handles one notification from the strap.
// It never blocks on delivery; malformed packets are logged and dropped.
func (s *Session) OnNotification(data []byte) {
	if s.phases.Current().Kind == domain.PhaseConnectionTest {
		s.handleConnectionTest(data)
		return
	}

	if s.phases.DeadlineElapsed() {
		s.finishRecording("deadline elapsed")
	}

	res, err := protocol.Decode(data)
	if err != nil {
		s.logger.Debug("discarding notification",
			ports.Err(err),
			ports.Int("bytes", len(data)),
		)
		return
	}
	if !res.IsMeasurement() {
		s.logger.Debug("poor sensor contact, notification discarded",
			ports.String("phase", s.phases.Current().String()),
		)
		return
	}
	if res.Dropped > 0 {
		s.logger.Debug("dropped incomplete trailing bytes",
			ports.Int("dropped", res.Dropped),
			ports.Int("bytes", len(data)),
		)
	}

	m := res.Measurement
	s.log.Append(m.RRIntervals()...)

	s.seq++
	task := domain.NewDeliveryTask(s.seq, m, s.now())

	s.logger.Debug("measurement",
		ports.Int("heart_rate", int(m.HeartRate())),
		ports.Any("rr_ms", task.RRIntervals),
	)

	if err := s.pipeline.Enqueue(task); err != nil {
		s.logger.Warn("delivery task dropped",
			ports.Err(err),
			ports.Uint64("seq", task.Seq),
		)
	}
}

func (s *Session) handleConnectionTest(data []byte) {
	sentinel, err := protocol.InspectStatus(data)
	if err != nil {
		s.logger.Debug("discarding notification during connection test", ports.Err(err))
		return
	}

	switch sentinel {
	case protocol.SentinelPoorContact:
		s.logger.Warn("poor sensor contact during connection test")
		s.notify(true, msgPoorContact)
	case protocol.SentinelConnectionValid:
		if !s.phases.TransitionFrom(domain.PhaseConnectionTest, domain.IdlePhase(), "strap reported valid data") {
			return
		}
		s.notify(false, msgStrapValid)
		s.mu.Lock()
		if s.connValid != nil {
			close(s.connValid)
			s.connValid = nil
		}
		s.mu.Unlock()
	default:
		s.logger.Debug("ignoring status byte during connection test",
			ports.Int("status", int(data[0])),
		)
	}
}

// TestConnection enters the connection-test phase, arms notifications and
// blocks until the strap reports valid data, ctx is done or timeout elapses.
// On timeout it returns ErrConnectionTestTimeout and the session goes back to Idle.
func (s *Session) TestConnection(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.config.ConnectionTestTimeout
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.connValid = done
	sensor := s.sensor
	s.mu.Unlock()

	if err := s.phases.TransitionTo(domain.ConnectionTestPhase(), "connection test started"); err != nil {
		s.clearConnectionTest(done)
		return err
	}

	if sensor != nil {
		if err := s.arm(sensor); err != nil {
			s.abortConnectionTest(done, "enable notifications failed")
			return fmt.Errorf("enable notifications: %w", err)
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		if s.abortConnectionTest(done, "connection test timed out") {
			return nil
		}
		return domain.ErrConnectionTestTimeout
	case <-ctx.Done():
		if s.abortConnectionTest(done, "connection test canceled") {
			return nil
		}
		return ctx.Err()
	}
}

// abortConnectionTest leaves ConnectionTest. It reports true if the strap
// became valid before the abort took effect.
func (s *Session) abortConnectionTest(done chan struct{}, reason string) bool {
	s.clearConnectionTest(done)
	// ConnectionTest is only left through a valid status byte or an abort.
	return !s.phases.TransitionFrom(domain.PhaseConnectionTest, domain.IdlePhase(), reason)
}

func (s *Session) clearConnectionTest(done chan struct{}) {
	s.mu.Lock()
	if s.connValid == done {
		s.connValid = nil
	}
	s.mu.Unlock()
}

// StartRecording clears the local log and enters Recording.
// A zero deadline records until StopRecording is called.
func (s *Session) StartRecording(deadline time.Duration) error {
	_, err := s.startRecording(deadline)
	return err
}

func (s *Session) startRecording(deadline time.Duration) (chan struct{}, error) {
	stop := make(chan struct{})
	s.mu.Lock()
	prevStop := s.recStop
	s.recStop = stop
	s.mu.Unlock()

	if err := s.phases.TransitionTo(domain.RecordingPhase(deadline), "recording started"); err != nil {
		s.mu.Lock()
		if s.recStop == stop {
			s.recStop = prevStop
		}
		s.mu.Unlock()
		return nil, err
	}
	if prevStop != nil {
		close(prevStop)
	}

	s.log.Reset()
	return stop, nil
}

// StopRecording requests the end of the current recording. It takes effect
// at the next notification boundary; in-flight notifications complete.
func (s *Session) StopRecording() {
	s.finishRecording("stop requested")
}

func (s *Session) finishRecording(reason string) {
	s.phases.TransitionFrom(domain.PhaseRecording, domain.IdlePhase(), reason)

	s.mu.Lock()
	if s.recStop != nil {
		close(s.recStop)
		s.recStop = nil
	}
	s.mu.Unlock()
}

// Record runs a recording: it enters Recording, arms notifications and blocks
// until the deadline elapses, StopRecording is called or ctx is done.
// Notifications are disarmed afterwards because the strap keeps sending them.
func (s *Session) Record(ctx context.Context, deadline time.Duration) error {
	stop, err := s.startRecording(deadline)
	if err != nil {
		return err
	}

	s.mu.Lock()
	sensor := s.sensor
	s.mu.Unlock()

	if sensor != nil {
		if err := s.arm(sensor); err != nil {
			s.finishRecording("enable notifications failed")
			return fmt.Errorf("enable notifications: %w", err)
		}
	}

	var expired <-chan time.Time
	if deadline > 0 {
		timer := time.NewTimer(deadline)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-expired:
		s.finishRecording("deadline elapsed")
	case <-stop:
	case <-ctx.Done():
		s.finishRecording("context canceled")
		err = ctx.Err()
	}

	if sensor != nil {
		s.disarmIfUnused(sensor)
	}

	s.logger.Info("recording finished", ports.Int("rr_intervals", s.log.Len()))
	return err
}

func (s *Session) arm(sensor ports.SensorControl) error {
	s.armMu.Lock()
	defer s.armMu.Unlock()
	return sensor.SetNotificationsEnabled(true)
}

// disarmIfUnused turns notifications off unless a newer recording or a
// connection test has taken over the session.
func (s *Session) disarmIfUnused(sensor ports.SensorControl) {
	s.armMu.Lock()
	defer s.armMu.Unlock()

	s.mu.Lock()
	recording := s.recStop != nil
	s.mu.Unlock()
	if recording || s.phases.Current().Kind != domain.PhaseIdle {
		s.logger.Debug("notifications still in use, leaving them armed",
			ports.String("phase", s.phases.Current().String()),
		)
		return
	}

	if err := sensor.SetNotificationsEnabled(false); err != nil {
		s.logger.Warn("failed to disable notifications", ports.Err(err))
	}
}

// ReadBatteryLevel reads the battery percentage of the attached sensor.
func (s *Session) ReadBatteryLevel() (int, error) {
	s.mu.Lock()
	sensor := s.sensor
	s.mu.Unlock()

	if sensor == nil {
		return 0, domain.ErrNoSensor
	}
	level, err := sensor.ReadBatteryLevel()
	if err != nil {
		return 0, fmt.Errorf("read battery level: %w", err)
	}
	s.logger.Info("battery level", ports.Int("percent", level))
	return level, nil
}

// OnConnect logs that the strap connected.
func (s *Session) OnConnect() {
	s.logger.Info("sensor connected")
	if s.emitter != nil {
		s.emitter.OnConnectionChange(true)
	}
}

// OnDisconnect logs that the strap disconnected. The phase is unchanged.
func (s *Session) OnDisconnect() {
	s.logger.Warn("sensor disconnected", ports.String("phase", s.phases.Current().String()))
	if s.emitter != nil {
		s.emitter.OnConnectionChange(false)
	}
}

// OnSignalStrength logs an RSSI update.
func (s *Session) OnSignalStrength(rssi int) {
	s.logger.Debug("signal strength", ports.Int("rssi", rssi))
}

func (s *Session) notify(warn bool, msg string) {
	if s.notifier == nil {
		return
	}
	if warn {
		s.notifier.Warn(msg)
		return
	}
	s.notifier.Info(msg)
}
