package app

import (
	"sync"
	"time"

	"github.com/bft-labs/rrship/internal/domain"
	"github.com/bft-labs/rrship/internal/ports"
)

// PhaseEmitter is called when the session phase changes.
type PhaseEmitter interface {
	OnPhaseChange(previous, current domain.Phase, reason string)
}

// phaseMachine guards the session phase. Phase and recording deadline are
// written from the notification path and from stop/timeout callers, so every
// access goes through the mutex.
type phaseMachine struct {
	mu        sync.RWMutex
	phase     domain.Phase
	enteredAt time.Time
	logger    ports.Logger
	emitter   PhaseEmitter
	now       func() time.Time
}

func newPhaseMachine(initial domain.Phase, logger ports.Logger, emitter PhaseEmitter) *phaseMachine {
	return &phaseMachine{
		phase:     initial,
		enteredAt: time.Now(),
		logger:    logger,
		emitter:   emitter,
		now:       time.Now,
	}
}

// Current returns the active phase.
func (m *phaseMachine) Current() domain.Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// TransitionTo moves to next. Returns ErrInvalidTransition if the move is
// not allowed. Moving to the phase already active is a no-op, except that a
// new Recording restarts its deadline.
func (m *phaseMachine) TransitionTo(next domain.Phase, reason string) error {
	m.mu.Lock()
	prev := m.phase

	if !validTransition(prev.Kind, next.Kind) {
		m.mu.Unlock()
		return domain.ErrInvalidTransition
	}
	if prev.Kind == next.Kind && next.Kind != domain.PhaseRecording {
		m.mu.Unlock()
		return nil
	}

	m.phase = next
	m.enteredAt = m.now()
	m.mu.Unlock()

	m.emit(prev, next, reason)
	return nil
}

// TransitionFrom moves to next only if the current phase is of kind from.
// It reports whether the transition happened.
func (m *phaseMachine) TransitionFrom(from domain.PhaseKind, next domain.Phase, reason string) bool {
	m.mu.Lock()
	prev := m.phase
	if prev.Kind != from || !validTransition(from, next.Kind) {
		m.mu.Unlock()
		return false
	}
	m.phase = next
	m.enteredAt = m.now()
	m.mu.Unlock()

	m.emit(prev, next, reason)
	return true
}

// DeadlineElapsed reports whether an active Recording has outlived its deadline.
func (m *phaseMachine) DeadlineElapsed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.phase.HasDeadline() {
		return false
	}
	return m.now().Sub(m.enteredAt) >= m.phase.Deadline
}

func (m *phaseMachine) emit(prev, next domain.Phase, reason string) {
	// Emit event outside of lock
	if m.emitter != nil {
		m.emitter.OnPhaseChange(prev, next, reason)
	}

	m.logger.Info("phase transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
}

func validTransition(from, to domain.PhaseKind) bool {
	switch from {
	case domain.PhaseIdle:
		return true
	case domain.PhaseConnectionTest:
		return to == domain.PhaseIdle || to == domain.PhaseConnectionTest
	case domain.PhaseRecording:
		return to == domain.PhaseIdle || to == domain.PhaseRecording
	default:
		return false
	}
}
