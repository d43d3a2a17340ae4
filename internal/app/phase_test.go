package app

import (
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/rrship/internal/domain"
	"github.com/bft-labs/rrship/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// mockEmitter tracks phase change events for testing.
type mockEmitter struct {
	mu          sync.Mutex
	events      []phaseChangeEvent
	connections []bool
}

type phaseChangeEvent struct {
	previous domain.Phase
	current  domain.Phase
	reason   string
}

func (m *mockEmitter) OnPhaseChange(previous, current domain.Phase, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, phaseChangeEvent{previous, current, reason})
}

func (m *mockEmitter) OnConnectionChange(connected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections = append(m.connections, connected)
}

func (m *mockEmitter) Events() []phaseChangeEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]phaseChangeEvent{}, m.events...)
}

func TestPhaseMachine_ValidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from domain.Phase
		to   domain.Phase
	}{
		{"idle to connection test", domain.IdlePhase(), domain.ConnectionTestPhase()},
		{"idle to recording", domain.IdlePhase(), domain.RecordingPhase(time.Minute)},
		{"connection test to idle", domain.ConnectionTestPhase(), domain.IdlePhase()},
		{"recording to idle", domain.RecordingPhase(0), domain.IdlePhase()},
		{"recording restart", domain.RecordingPhase(0), domain.RecordingPhase(time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newPhaseMachine(tt.from, &mockLogger{}, nil)

			if err := m.TransitionTo(tt.to, "test"); err != nil {
				t.Fatalf("TransitionTo() error = %v", err)
			}
			if m.Current() != tt.to {
				t.Errorf("phase = %v after transition, want %v", m.Current(), tt.to)
			}
		})
	}
}

func TestPhaseMachine_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		from domain.Phase
		to   domain.Phase
	}{
		{"connection test to recording", domain.ConnectionTestPhase(), domain.RecordingPhase(0)},
		{"recording to connection test", domain.RecordingPhase(0), domain.ConnectionTestPhase()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newPhaseMachine(tt.from, &mockLogger{}, nil)

			err := m.TransitionTo(tt.to, "test")
			if err != domain.ErrInvalidTransition {
				t.Errorf("TransitionTo() error = %v, want ErrInvalidTransition", err)
			}
			// Phase should not change on invalid transition
			if m.Current() != tt.from {
				t.Errorf("phase changed to %v on invalid transition, want %v", m.Current(), tt.from)
			}
		})
	}
}

func TestPhaseMachine_EmitsEvents(t *testing.T) {
	emitter := &mockEmitter{}
	m := newPhaseMachine(domain.IdlePhase(), &mockLogger{}, emitter)

	_ = m.TransitionTo(domain.ConnectionTestPhase(), "test")
	_ = m.TransitionTo(domain.ConnectionTestPhase(), "no-op")
	_ = m.TransitionTo(domain.IdlePhase(), "valid")

	events := emitter.Events()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].previous.Kind != domain.PhaseIdle || events[0].current.Kind != domain.PhaseConnectionTest {
		t.Errorf("event 0: got %v->%v, want Idle->ConnectionTest", events[0].previous, events[0].current)
	}
	if events[1].reason != "valid" {
		t.Errorf("event 1 reason = %q, want valid", events[1].reason)
	}
}

func TestPhaseMachine_TransitionFrom(t *testing.T) {
	m := newPhaseMachine(domain.IdlePhase(), &mockLogger{}, nil)

	if m.TransitionFrom(domain.PhaseRecording, domain.IdlePhase(), "stop") {
		t.Error("TransitionFrom(Recording) succeeded while Idle")
	}

	_ = m.TransitionTo(domain.RecordingPhase(0), "start")
	if !m.TransitionFrom(domain.PhaseRecording, domain.IdlePhase(), "stop") {
		t.Error("TransitionFrom(Recording) failed while Recording")
	}
	if m.Current().Kind != domain.PhaseIdle {
		t.Errorf("phase = %v, want Idle", m.Current())
	}
}

func TestPhaseMachine_DeadlineElapsed(t *testing.T) {
	now := time.Unix(1000, 0)
	m := newPhaseMachine(domain.IdlePhase(), &mockLogger{}, nil)
	m.now = func() time.Time { return now }

	if m.DeadlineElapsed() {
		t.Fatal("Idle reported an elapsed deadline")
	}

	_ = m.TransitionTo(domain.RecordingPhase(10*time.Second), "start")
	now = now.Add(9 * time.Second)
	if m.DeadlineElapsed() {
		t.Fatal("deadline elapsed too early")
	}
	now = now.Add(time.Second)
	if !m.DeadlineElapsed() {
		t.Fatal("deadline not elapsed after 10s")
	}

	_ = m.TransitionTo(domain.RecordingPhase(0), "open-ended")
	now = now.Add(time.Hour)
	if m.DeadlineElapsed() {
		t.Fatal("open-ended recording reported an elapsed deadline")
	}
}

func TestPhaseMachine_Concurrency(t *testing.T) {
	m := newPhaseMachine(domain.IdlePhase(), &mockLogger{}, nil)

	var wg sync.WaitGroup

	// Concurrent phase reads
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = m.Current()
				_ = m.DeadlineElapsed()
			}
		}()
	}

	// Concurrent transitions (some will fail, which is expected)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.TransitionTo(domain.RecordingPhase(time.Millisecond), "test")
			_ = m.TransitionFrom(domain.PhaseRecording, domain.IdlePhase(), "test")
		}()
	}

	wg.Wait()
}
