package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/rrship/internal/domain"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"16480004", []byte{0x16, 0x48, 0x00, 0x04}},
		{"0x16 48", []byte{0x16, 0x48}},
		{"16:48:00:04", []byte{0x16, 0x48, 0x00, 0x04}},
		{"06", []byte{0x06}},
	}
	for _, tt := range tests {
		got, err := parseHex(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseHex("zz")
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, describe(&buf, []byte{0x16, 0x48, 0x00, 0x04, 0x00, 0x03, 0x01}))
	assert.Equal(t, "heart rate: 72 bpm\nrr[0]: 1000.000 ms\nrr[1]: 750.000 ms\ndropped: 1 trailing bytes\n", buf.String())

	buf.Reset()
	require.NoError(t, describe(&buf, []byte{0x06}))
	assert.Equal(t, "status 0x06: poor sensor contact\n", buf.String())

	assert.ErrorIs(t, describe(&buf, nil), domain.ErrEmpty)
}

func TestDecodeCommand(t *testing.T) {
	cmd := newDecodeCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"16", "40"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "heart rate: 64 bpm\n", out.String())
}
