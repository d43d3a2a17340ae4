package rrship

import (
	"github.com/bft-labs/rrship/internal/app"
	"github.com/bft-labs/rrship/internal/domain"
)

// Phase is the recorder phase. Its Kind is one of PhaseIdle,
// PhaseConnectionTest or PhaseRecording.
type Phase = domain.Phase

// Phase kinds.
const (
	PhaseIdle           = domain.PhaseIdle
	PhaseConnectionTest = domain.PhaseConnectionTest
	PhaseRecording      = domain.PhaseRecording
)

// Errors returned by the recorder.
var (
	ErrAlreadyRunning        = domain.ErrAlreadyRunning
	ErrNotRunning            = domain.ErrNotRunning
	ErrStopped               = domain.ErrPipelineClosed
	ErrShutdownTimeout       = domain.ErrShutdownTimeout
	ErrConnectionTestTimeout = domain.ErrConnectionTestTimeout
	ErrInvalidConfig         = domain.ErrInvalidConfig
	ErrNoSensor              = domain.ErrNoSensor
	ErrSinkRejected          = domain.ErrSinkRejected
)

// State is the recorder lifecycle state.
type State int

const (
	// StateNew means Start has not been called yet.
	StateNew State = iota
	// StateRunning means the delivery workers are running.
	StateRunning
	// StateStopped means Stop was called. A stopped recorder cannot restart.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// DeliveryStats counts measurements by delivery outcome.
type DeliveryStats = app.PipelineStats

// Status is a snapshot of the recorder.
type Status struct {
	State     State
	Phase     Phase
	Intervals int
	Delivery  DeliveryStats
}
