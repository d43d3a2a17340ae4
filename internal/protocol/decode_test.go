package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Measurements(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantHR  uint8
		wantRR  []float64
		dropped int
	}{
		{
			name:   "single interval",
			data:   []byte{0x16, 0x53, 0x16, 0x03},
			wantHR: 83,
			wantRR: []float64{float64(0x0316) * 1000 / 1024},
		},
		{
			name:   "two intervals",
			data:   []byte{0x16, 0x53, 0x16, 0x03, 0xE4, 0x02},
			wantHR: 83,
			wantRR: []float64{float64(0x0316) * 1000 / 1024, float64(0x02E4) * 1000 / 1024},
		},
		{
			name:   "heart rate only",
			data:   []byte{0x16, 0x48},
			wantHR: 72,
			wantRR: []float64{},
		},
		{
			name:    "dangling trailing byte",
			data:    []byte{0x16, 0x53, 0x16, 0x03, 0xE4},
			wantHR:  83,
			wantRR:  []float64{float64(0x0316) * 1000 / 1024},
			dropped: 1,
		},
		{
			name:    "lone trailing byte",
			data:    []byte{0x16, 0x53, 0x16},
			wantHR:  83,
			wantRR:  []float64{},
			dropped: 1,
		},
		{
			name:   "four pairs",
			data:   []byte{0x16, 0xFF, 0x00, 0x04, 0x00, 0x02, 0x00, 0x01, 0x01, 0x00},
			wantHR: 255,
			wantRR: []float64{1000, 500, 250, 1000.0 / 1024.0},
		},
		{
			name:    "extra pairs beyond cap",
			data:    []byte{0x16, 0x3C, 0x00, 0x04, 0x00, 0x04, 0x00, 0x04, 0x00, 0x04, 0x00, 0x04, 0x07},
			wantHR:  60,
			wantRR:  []float64{1000, 1000, 1000, 1000},
			dropped: 3,
		},
		{
			name:   "unknown status byte still decodes",
			data:   []byte{0x10, 0x40, 0x00, 0x04},
			wantHR: 64,
			wantRR: []float64{1000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Decode(tt.data)
			require.NoError(t, err)
			require.True(t, res.IsMeasurement())
			assert.Equal(t, tt.wantHR, res.Measurement.HeartRate())
			assert.Equal(t, tt.wantRR, res.Measurement.RRIntervals())
			assert.Equal(t, tt.dropped, res.Dropped)
			assert.LessOrEqual(t, res.Measurement.IntervalCount(), MaxRRPairs)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Decode([]byte{})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Decode([]byte{0x16})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecode_PoorContact(t *testing.T) {
	for _, data := range [][]byte{{0x04}, {0x06}, {0x06, 0x50, 0x16, 0x03}} {
		res, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, SentinelPoorContact, res.Sentinel)
		assert.False(t, res.IsMeasurement())
		assert.Equal(t, 0, res.Measurement.IntervalCount())
	}
}

func TestDecode_Pure(t *testing.T) {
	data := []byte{0x16, 0x53, 0x16, 0x03, 0xE4, 0x02}
	first, err := Decode(data)
	require.NoError(t, err)
	second, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []byte{0x16, 0x53, 0x16, 0x03, 0xE4, 0x02}, data, "input must not be modified")
}

func TestInspectStatus(t *testing.T) {
	tests := []struct {
		data []byte
		want Sentinel
	}{
		{[]byte{0x04}, SentinelPoorContact},
		{[]byte{0x06}, SentinelPoorContact},
		{[]byte{0x16}, SentinelConnectionValid},
		{[]byte{0x16, 0x53, 0x16, 0x03}, SentinelConnectionValid},
		{[]byte{0x10, 0x53}, SentinelNone},
	}
	for _, tt := range tests {
		got, err := InspectStatus(tt.data)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "status % x", tt.data)
	}

	_, err := InspectStatus(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestDecode_KnownPacket(t *testing.T) {
	res, err := Decode([]byte{0x16, 0x53, 0x16, 0x03, 0xE4, 0x02})
	require.NoError(t, err)
	// 0x0316 = 790 and 0x02E4 = 740 ticks of 1/1024 s.
	assert.Equal(t, []float64{771.484375, 722.65625}, res.Measurement.RRIntervals())
}

func TestRRMillis(t *testing.T) {
	for raw := 0; raw <= 0xFFFF; raw += 257 {
		want := float64(raw) * 1000 / 1024
		assert.Equal(t, want, RRMillis(uint16(raw)))
	}
}

func TestDecodeBodyLocationAndBattery(t *testing.T) {
	loc, err := DecodeBodyLocation([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, BodyLocationChest, loc)
	assert.Equal(t, "chest", loc.String())
	assert.Equal(t, "unknown", BodyLocation(42).String())

	level, err := DecodeBatteryLevel([]byte{87})
	require.NoError(t, err)
	assert.Equal(t, 87, level)

	_, err = DecodeBatteryLevel(nil)
	assert.ErrorIs(t, err, ErrEmpty)
}
