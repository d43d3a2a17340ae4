package ports

import "context"

// MeasurementSink stores measurements in the remote data store.
// Implementations own authentication and retries; a returned error is the
// final outcome of the call.
type MeasurementSink interface {
	SaveRRInterval(ctx context.Context, millis float64) error
	SaveHeartRate(ctx context.Context, bpm int) error
}
