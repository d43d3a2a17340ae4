package domain

import "sync"

// MeasurementLog retains every RR interval of a session in arrival order.
// It has no capacity bound; callers reset it between recordings.
type MeasurementLog struct {
	mu        sync.RWMutex
	intervals []float64
}

// NewMeasurementLog creates an empty log.
func NewMeasurementLog() *MeasurementLog {
	return &MeasurementLog{intervals: make([]float64, 0)}
}

// Append adds intervals to the end of the log.
func (l *MeasurementLog) Append(values ...float64) {
	l.mu.Lock()
	l.intervals = append(l.intervals, values...)
	l.mu.Unlock()
}

// Snapshot returns a copy of the retained intervals.
func (l *MeasurementLog) Snapshot() []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]float64, len(l.intervals))
	copy(out, l.intervals)
	return out
}

// Len returns the number of retained intervals.
func (l *MeasurementLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.intervals)
}

// Reset clears the log for reuse.
func (l *MeasurementLog) Reset() {
	l.mu.Lock()
	l.intervals = l.intervals[:0]
	l.mu.Unlock()
}
