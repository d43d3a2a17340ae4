package domain

import (
	"fmt"
	"time"
)

// PhaseKind enumerates the session lifecycle stages.
type PhaseKind int

const (
	PhaseIdle PhaseKind = iota
	PhaseConnectionTest
	PhaseRecording
)

// String returns a human-readable representation of the phase kind.
func (k PhaseKind) String() string {
	switch k {
	case PhaseIdle:
		return "Idle"
	case PhaseConnectionTest:
		return "ConnectionTest"
	case PhaseRecording:
		return "Recording"
	default:
		return "Unknown"
	}
}

// Phase is the active session stage. Deadline only applies to Recording;
// zero means the recording runs until it is stopped.
type Phase struct {
	Kind     PhaseKind
	Deadline time.Duration
}

// IdlePhase returns the Idle phase.
func IdlePhase() Phase { return Phase{Kind: PhaseIdle} }

// ConnectionTestPhase returns the ConnectionTest phase.
func ConnectionTestPhase() Phase { return Phase{Kind: PhaseConnectionTest} }

// RecordingPhase returns a Recording phase with an optional deadline.
func RecordingPhase(deadline time.Duration) Phase {
	if deadline < 0 {
		deadline = 0
	}
	return Phase{Kind: PhaseRecording, Deadline: deadline}
}

// HasDeadline reports whether the phase ends on its own.
func (p Phase) HasDeadline() bool {
	return p.Kind == PhaseRecording && p.Deadline > 0
}

func (p Phase) String() string {
	if p.HasDeadline() {
		return fmt.Sprintf("%s(%s)", p.Kind, p.Deadline)
	}
	return p.Kind.String()
}
