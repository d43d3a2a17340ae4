package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/rrship/internal/protocol"
)

func newDecodeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode one heart rate notification offline",
		Example: strings.TrimSpace(`
  rrship decode 16480004
  rrship decode "16 48 00 04 00 03"`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseHex(strings.Join(args, ""))
			if err != nil {
				return err
			}
			return describe(cmd.OutOrStdout(), data)
		},
	}
}

// parseHex accepts hex with optional 0x prefix and space, colon or dash separators.
func parseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "-", "").Replace(s)
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse packet: %w", err)
	}
	return data, nil
}

func describe(w io.Writer, data []byte) error {
	res, err := protocol.Decode(data)
	if err != nil {
		return err
	}
	if !res.IsMeasurement() {
		fmt.Fprintf(w, "status 0x%02x: poor sensor contact\n", res.Status)
		return nil
	}

	m := res.Measurement
	fmt.Fprintf(w, "heart rate: %d bpm\n", m.HeartRate())
	for i, rr := range m.RRIntervals() {
		fmt.Fprintf(w, "rr[%d]: %.3f ms\n", i, rr)
	}
	if res.Dropped > 0 {
		fmt.Fprintf(w, "dropped: %d trailing bytes\n", res.Dropped)
	}
	return nil
}
