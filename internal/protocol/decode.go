package protocol

import (
	"encoding/binary"

	"github.com/bft-labs/rrship/internal/domain"
)

// Status byte values.
const (
	StatusNoContact   byte = 0x04
	StatusPoorContact byte = 0x06
	StatusValid       byte = 0x16
)

const (
	// MaxRRPairs is the most intervals a single notification carries.
	MaxRRPairs = 4

	// RRResolution is the number of device time units per second.
	RRResolution = 1024

	rrOffset = 2
)

// Decode errors, shared with the domain so callers can use errors.Is.
var (
	ErrEmpty     = domain.ErrEmpty
	ErrTruncated = domain.ErrTruncated
)

// Sentinel is a status signal that carries no measurement.
type Sentinel int

const (
	SentinelNone Sentinel = iota
	SentinelPoorContact
	SentinelConnectionValid
)

func (s Sentinel) String() string {
	switch s {
	case SentinelNone:
		return "none"
	case SentinelPoorContact:
		return "poor_contact"
	case SentinelConnectionValid:
		return "connection_valid"
	default:
		return "unknown"
	}
}

// Result is the outcome of decoding one notification.
// Exactly one of Sentinel (not SentinelNone) or Measurement is meaningful.
type Result struct {
	Sentinel    Sentinel
	Measurement domain.Measurement

	// Status is the raw status byte.
	Status byte

	// Dropped counts trailing bytes that did not form a complete pair
	// or that followed the last allowed pair.
	Dropped int
}

// IsMeasurement reports whether the result carries a measurement.
func (r Result) IsMeasurement() bool {
	return r.Sentinel == SentinelNone
}

// Decode parses a notification into a measurement or a poor-contact sentinel.
// It never fails on trailing bytes: only complete pairs are decoded, at most
// MaxRRPairs of them, and the remainder is counted in Result.Dropped.
func Decode(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmpty
	}

	status := data[0]
	if isPoorContact(status) {
		return Result{Sentinel: SentinelPoorContact, Status: status}, nil
	}
	if len(data) < rrOffset {
		return Result{Status: status}, ErrTruncated
	}

	payload := data[rrOffset:]
	pairs := len(payload) / 2
	if pairs > MaxRRPairs {
		pairs = MaxRRPairs
	}

	rr := make([]float64, pairs)
	for i := 0; i < pairs; i++ {
		rr[i] = RRMillis(binary.LittleEndian.Uint16(payload[2*i:]))
	}

	return Result{
		Measurement: domain.NewMeasurement(data[1], rr),
		Status:      status,
		Dropped:     len(payload) - 2*pairs,
	}, nil
}

// InspectStatus classifies a notification by its status byte alone.
// The payload is ignored, so a lone 0x16 reports a valid connection.
func InspectStatus(data []byte) (Sentinel, error) {
	if len(data) == 0 {
		return SentinelNone, ErrEmpty
	}
	switch {
	case isPoorContact(data[0]):
		return SentinelPoorContact, nil
	case data[0] == StatusValid:
		return SentinelConnectionValid, nil
	default:
		return SentinelNone, nil
	}
}

// RRMillis converts a raw interval in 1/1024 s units to milliseconds.
func RRMillis(raw uint16) float64 {
	return float64(raw) * 1000.0 / RRResolution
}

func isPoorContact(status byte) bool {
	return status == StatusNoContact || status == StatusPoorContact
}
