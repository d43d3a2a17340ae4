package rrship

import (
	"time"

	"github.com/bft-labs/rrship/internal/domain"
)

// PhaseChangeEvent is emitted when the recorder changes phase.
type PhaseChangeEvent struct {
	Previous Phase
	Current  Phase
	Reason   string
}

// ConnectionEvent is emitted when the strap connects or disconnects.
type ConnectionEvent struct {
	Connected bool
}

// DeliverySuccessEvent is emitted when all values of a measurement were stored.
type DeliverySuccessEvent struct {
	Seq         uint64
	HeartRate   int
	RRIntervals int
	Duration    time.Duration
}

// DeliveryErrorEvent is emitted once per measurement that was not fully stored,
// either because the sink failed or because it was dropped before delivery.
type DeliveryErrorEvent struct {
	Seq   uint64
	Error error
}

// EventHandler receives recorder events.
type EventHandler interface {
	OnPhaseChange(event PhaseChangeEvent)
	OnConnectionChange(event ConnectionEvent)
	OnDeliverySuccess(event DeliverySuccessEvent)
	OnDeliveryError(event DeliveryErrorEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to
// override only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnPhaseChange(PhaseChangeEvent)         {}
func (BaseEventHandler) OnConnectionChange(ConnectionEvent)     {}
func (BaseEventHandler) OnDeliverySuccess(DeliverySuccessEvent) {}
func (BaseEventHandler) OnDeliveryError(DeliveryErrorEvent)     {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnPhaseChange(previous, current domain.Phase, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnPhaseChange(PhaseChangeEvent{
		Previous: previous,
		Current:  current,
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnConnectionChange(connected bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnConnectionChange(ConnectionEvent{Connected: connected})
}

func (e *eventEmitterWrapper) OnDeliverySuccess(task domain.DeliveryTask, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnDeliverySuccess(DeliverySuccessEvent{
		Seq:         task.Seq,
		HeartRate:   int(task.HeartRate),
		RRIntervals: len(task.RRIntervals),
		Duration:    duration,
	})
}

func (e *eventEmitterWrapper) OnDeliveryError(task domain.DeliveryTask, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnDeliveryError(DeliveryErrorEvent{Seq: task.Seq, Error: err})
}
