package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent error conditions in the rrship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrEmpty is returned when a notification carries no bytes at all.
	ErrEmpty = errors.New("rrship: empty notification")

	// ErrTruncated is returned when the status byte has no heart-rate byte after it.
	ErrTruncated = errors.New("rrship: truncated notification")

	// ErrSinkRejected is returned when the remote sink refuses a measurement.
	ErrSinkRejected = errors.New("rrship: sink rejected measurement")

	// ErrConnectionTestTimeout is returned when the strap never reports valid contact.
	ErrConnectionTestTimeout = errors.New("rrship: connection test timed out")

	// ErrQueueFull is returned when the delivery queue cannot accept another task.
	ErrQueueFull = errors.New("rrship: delivery queue full")

	// ErrPipelineClosed is returned when a task is enqueued after shutdown.
	ErrPipelineClosed = errors.New("rrship: delivery pipeline closed")

	// ErrInvalidTransition is returned for a phase change the session does not allow.
	ErrInvalidTransition = errors.New("rrship: invalid phase transition")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("rrship: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("rrship: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("rrship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("rrship: invalid configuration")

	// ErrDeviceNotFound is returned when no matching strap is seen before the scan timeout.
	ErrDeviceNotFound = errors.New("rrship: device not found")

	// ErrNoSensor is returned when an operation needs sensor control and none is attached.
	ErrNoSensor = errors.New("rrship: no sensor attached")
)

// DeliveryStage names the sink call that failed for a task.
type DeliveryStage string

const (
	StageRRInterval DeliveryStage = "rr_interval"
	StageHeartRate  DeliveryStage = "heart_rate"
)

// DeliveryError reports the first sink failure of a single task.
// It matches both ErrSinkRejected and the underlying sink error.
type DeliveryError struct {
	TaskSeq uint64
	Stage   DeliveryStage
	// Index is the position of the failed interval; -1 for the heart rate.
	Index int
	Err   error
}

func (e *DeliveryError) Error() string {
	if e.Stage == StageRRInterval {
		return fmt.Sprintf("task %d: deliver rr interval %d: %v", e.TaskSeq, e.Index, e.Err)
	}
	return fmt.Sprintf("task %d: deliver heart rate: %v", e.TaskSeq, e.Err)
}

func (e *DeliveryError) Unwrap() []error {
	return []error{ErrSinkRejected, e.Err}
}
