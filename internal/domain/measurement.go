package domain

import "time"

// Measurement is the heart rate and beat-to-beat intervals carried by one
// notification. Values are copied on construction and on read.
type Measurement struct {
	heartRate   uint8
	rrIntervals []float64
}

// NewMeasurement creates a measurement from a heart rate in bpm and
// RR intervals in milliseconds.
func NewMeasurement(heartRate uint8, rrIntervals []float64) Measurement {
	rr := make([]float64, len(rrIntervals))
	copy(rr, rrIntervals)
	return Measurement{heartRate: heartRate, rrIntervals: rr}
}

// HeartRate returns the heart rate in beats per minute.
func (m Measurement) HeartRate() uint8 {
	return m.heartRate
}

// RRIntervals returns a copy of the RR intervals in milliseconds, in arrival order.
func (m Measurement) RRIntervals() []float64 {
	rr := make([]float64, len(m.rrIntervals))
	copy(rr, m.rrIntervals)
	return rr
}

// IntervalCount returns the number of RR intervals.
func (m Measurement) IntervalCount() int {
	return len(m.rrIntervals)
}

// DeliveryTask is a measurement queued for asynchronous delivery.
// The pipeline owns the task once it has been enqueued.
type DeliveryTask struct {
	// Seq is assigned by the session in notification order
	Seq uint64

	// HeartRate in beats per minute
	HeartRate uint8

	// RRIntervals in milliseconds, delivered in this order
	RRIntervals []float64

	// ReceivedAt is when the notification reached the session
	ReceivedAt time.Time
}

// NewDeliveryTask builds a task from a measurement.
func NewDeliveryTask(seq uint64, m Measurement, receivedAt time.Time) DeliveryTask {
	return DeliveryTask{
		Seq:         seq,
		HeartRate:   m.HeartRate(),
		RRIntervals: m.RRIntervals(),
		ReceivedAt:  receivedAt,
	}
}
