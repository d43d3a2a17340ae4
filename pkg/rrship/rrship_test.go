package rrship_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/rrship/pkg/rrship"
)

// =============================================================================
// Test Utilities
// =============================================================================

type sinkCall struct {
	kind  string
	value float64
}

type memorySink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (s *memorySink) SaveRRInterval(ctx context.Context, millis float64) error {
	s.add("rr", millis)
	return nil
}

func (s *memorySink) SaveHeartRate(ctx context.Context, bpm int) error {
	s.add("hr", float64(bpm))
	return nil
}

func (s *memorySink) add(kind string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{kind, v})
}

func (s *memorySink) Calls() []sinkCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sinkCall{}, s.calls...)
}

// fakeStrap answers notification arming by replaying packets into the recorder.
type fakeStrap struct {
	mu      sync.Mutex
	events  rrship.SensorEvents
	onArm   [][]byte
	armed   []bool
	battery int
}

func (f *fakeStrap) SetNotificationsEnabled(enabled bool) error {
	f.mu.Lock()
	f.armed = append(f.armed, enabled)
	packets := f.onArm
	f.onArm = nil
	f.mu.Unlock()

	if enabled {
		for _, p := range packets {
			f.events.OnNotification(p)
		}
	}
	return nil
}

func (f *fakeStrap) ReadBatteryLevel() (int, error) {
	return f.battery, nil
}

type recordingHandler struct {
	rrship.BaseEventHandler
	mu        sync.Mutex
	phases    []rrship.PhaseChangeEvent
	delivered []uint64
}

func (h *recordingHandler) OnPhaseChange(e rrship.PhaseChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.phases = append(h.phases, e)
}

func (h *recordingHandler) OnDeliverySuccess(e rrship.DeliverySuccessEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.delivered = append(h.delivered, e.Seq)
}

type messages struct {
	mu    sync.Mutex
	lines []string
}

func (m *messages) Info(msg string) { m.add("info: " + msg) }
func (m *messages) Warn(msg string) { m.add("warn: " + msg) }

func (m *messages) add(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, s)
}

// Packets: status, heart rate, little-endian RR in 1/1024 s.
var (
	poorContact = []byte{0x06}
	validStatus = []byte{0x16, 0x48}
	beat72      = []byte{0x16, 72, 0x00, 0x04} // 1024/1024 s
	beat75      = []byte{0x16, 75, 0x00, 0x03} // 768/1024 s
)

// =============================================================================
// Tests
// =============================================================================

func TestNew_RequiresServiceURL(t *testing.T) {
	_, err := rrship.New(rrship.Config{})
	require.ErrorIs(t, err, rrship.ErrInvalidConfig)

	_, err = rrship.New(rrship.Config{ServiceURL: "localhost:8080"})
	require.ErrorIs(t, err, rrship.ErrInvalidConfig)

	_, err = rrship.New(rrship.Config{}, rrship.WithSink(&memorySink{}))
	require.NoError(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := rrship.DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.SinkRetries)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 256, cfg.QueueSize)
	assert.Equal(t, 30*time.Second, cfg.ConnectionTestTimeout)
}

func TestRecorder_Lifecycle(t *testing.T) {
	rec, err := rrship.New(rrship.Config{}, rrship.WithSink(&memorySink{}))
	require.NoError(t, err)

	assert.Equal(t, rrship.StateNew, rec.Status().State)
	assert.ErrorIs(t, rec.Stop(), rrship.ErrNotRunning)
	assert.ErrorIs(t, rec.Record(context.Background(), time.Millisecond), rrship.ErrNotRunning)

	require.NoError(t, rec.Start(context.Background()))
	assert.Equal(t, rrship.StateRunning, rec.Status().State)
	assert.ErrorIs(t, rec.Start(context.Background()), rrship.ErrAlreadyRunning)

	require.NoError(t, rec.Stop())
	assert.Equal(t, rrship.StateStopped, rec.Status().State)
	assert.ErrorIs(t, rec.Start(context.Background()), rrship.ErrStopped)
}

func TestRecorder_EndToEnd(t *testing.T) {
	sink := &memorySink{}
	handler := &recordingHandler{}
	notes := &messages{}

	cfg := rrship.Config{Workers: 1, ConnectionTestTimeout: time.Second}
	rec, err := rrship.New(cfg,
		rrship.WithSink(sink),
		rrship.WithEventHandler(handler),
		rrship.WithNotifier(notes),
	)
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))

	strap := &fakeStrap{events: rec.Events(), battery: 87, onArm: [][]byte{poorContact, validStatus}}
	rec.Attach(strap)

	level, err := rec.ReadBatteryLevel()
	require.NoError(t, err)
	assert.Equal(t, 87, level)

	require.NoError(t, rec.TestConnection(context.Background()))
	assert.Equal(t, rrship.PhaseIdle, rec.Status().Phase.Kind)
	assert.Equal(t, []string{
		"warn: Chest strap is not tightened or the strap needs moisture.",
		"info: Strap is working!",
	}, notes.lines)

	require.NoError(t, rec.StartRecording(0))
	rec.Events().OnNotification(beat72)
	rec.Events().OnNotification(poorContact)
	rec.Events().OnNotification(beat75)
	rec.StopRecording()

	assert.Equal(t, []float64{1000, 750}, rec.Intervals())
	require.NoError(t, rec.Stop())

	assert.Equal(t, []sinkCall{{"rr", 1000}, {"hr", 72}, {"rr", 750}, {"hr", 75}}, sink.Calls())

	handler.mu.Lock()
	defer handler.mu.Unlock()
	assert.Equal(t, []uint64{1, 2}, handler.delivered)
	require.NotEmpty(t, handler.phases)
	assert.Equal(t, rrship.PhaseConnectionTest, handler.phases[0].Current.Kind)
}

func TestRecorder_ResetLog(t *testing.T) {
	rec, err := rrship.New(rrship.DefaultConfig(), rrship.WithSink(&memorySink{}))
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))
	defer rec.Stop()

	require.NoError(t, rec.StartRecording(0))
	rec.Events().OnNotification(beat72)
	rec.Events().OnNotification(beat75)
	require.Equal(t, []float64{1000, 750}, rec.Intervals())

	rec.ResetLog()
	assert.Empty(t, rec.Intervals())
	assert.Equal(t, 0, rec.Status().Intervals)
	assert.Equal(t, rrship.PhaseRecording, rec.Status().Phase.Kind)

	rec.Events().OnNotification(beat72)
	assert.Equal(t, []float64{1000}, rec.Intervals())
}

func TestRecorder_RecordDeadline(t *testing.T) {
	rec, err := rrship.New(rrship.Config{}, rrship.WithSink(&memorySink{}))
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))
	defer rec.Stop()

	strap := &fakeStrap{events: rec.Events(), onArm: [][]byte{beat72}}
	rec.Attach(strap)

	require.NoError(t, rec.Record(context.Background(), 20*time.Millisecond))
	assert.Equal(t, rrship.PhaseIdle, rec.Status().Phase.Kind)
	assert.Equal(t, []float64{1000}, rec.Intervals())
	assert.Equal(t, []bool{true, false}, strap.armed)
}

func TestRecorder_ConnectionTestTimeout(t *testing.T) {
	rec, err := rrship.New(rrship.Config{ConnectionTestTimeout: 20 * time.Millisecond}, rrship.WithSink(&memorySink{}))
	require.NoError(t, err)

	rec.Attach(&fakeStrap{events: rec.Events(), onArm: [][]byte{poorContact}})

	err = rec.TestConnection(context.Background())
	assert.ErrorIs(t, err, rrship.ErrConnectionTestTimeout)
	assert.Equal(t, rrship.PhaseIdle, rec.Status().Phase.Kind)
}

func TestRecorder_HTTPSinkWithRotatedKey(t *testing.T) {
	var mu sync.Mutex
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		auth = append(auth, r.Header.Get("Authorization"))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rotator := &keyRotator{key: "rotated"}
	rec, err := rrship.New(rrship.Config{ServiceURL: srv.URL, AuthKey: "initial"},
		rrship.WithHTTPClient(srv.Client()),
		rrship.WithPlugin(rotator),
	)
	require.NoError(t, err)
	require.NoError(t, rec.Start(context.Background()))

	require.NoError(t, rec.StartRecording(0))
	rec.Events().OnNotification(beat72)
	require.NoError(t, rec.Stop())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Bearer rotated", "Bearer rotated"}, auth)
	assert.Equal(t, "initial", rotator.seen)
}

type keyRotator struct {
	key  string
	seen string
}

func (k *keyRotator) Name() string { return "rotator" }

func (k *keyRotator) Initialize(ctx context.Context, cfg rrship.PluginConfig) error {
	k.seen = cfg.AuthKey
	cfg.SetAuthKey(k.key)
	return nil
}

func (k *keyRotator) Shutdown(ctx context.Context) error { return nil }

type orderPlugin struct {
	name    string
	order   *[]string
	initErr error
}

func (p *orderPlugin) Name() string { return p.name }

func (p *orderPlugin) Initialize(ctx context.Context, cfg rrship.PluginConfig) error {
	if p.initErr != nil {
		return p.initErr
	}
	*p.order = append(*p.order, "init:"+p.name)
	return nil
}

func (p *orderPlugin) Shutdown(ctx context.Context) error {
	*p.order = append(*p.order, "shutdown:"+p.name)
	return nil
}

func TestRecorder_PluginOrder(t *testing.T) {
	var order []string
	rec, err := rrship.New(rrship.Config{}, rrship.WithSink(&memorySink{}),
		rrship.WithPlugin(&orderPlugin{name: "a", order: &order}),
		rrship.WithPlugin(&orderPlugin{name: "b", order: &order}),
	)
	require.NoError(t, err)

	require.NoError(t, rec.Start(context.Background()))
	require.NoError(t, rec.Stop())

	assert.Equal(t, []string{"init:a", "init:b", "shutdown:b", "shutdown:a"}, order)
}

func TestRecorder_PluginInitFailure(t *testing.T) {
	var order []string
	boom := errors.New("boom")
	rec, err := rrship.New(rrship.Config{}, rrship.WithSink(&memorySink{}),
		rrship.WithPlugin(&orderPlugin{name: "a", order: &order}),
		rrship.WithPlugin(&orderPlugin{name: "b", order: &order, initErr: boom}),
	)
	require.NoError(t, err)

	err = rec.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"init:a", "shutdown:a"}, order)
	assert.Equal(t, rrship.StateStopped, rec.Status().State)
}
