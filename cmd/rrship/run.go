package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"tinygo.org/x/bluetooth"

	"github.com/bft-labs/rrship/internal/adapters/ble"
	"github.com/bft-labs/rrship/internal/adapters/console"
	"github.com/bft-labs/rrship/internal/cliconfig"
	"github.com/bft-labs/rrship/pkg/log"
	"github.com/bft-labs/rrship/pkg/rrship"
	"github.com/bft-labs/rrship/plugins/configwatcher"
)

func run(parent context.Context, cfg cliconfig.Config, cfgFile string, zl zerolog.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.NewZerologAdapterWithLogger(zl)

	opts := []rrship.Option{
		rrship.WithLogger(logger),
		rrship.WithNotifier(console.NewNotifier(os.Stdout, !color.NoColor)),
	}
	if cfg.WatchConfig && cfgFile != "" {
		opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{Path: cfgFile}))
	}

	rec, err := rrship.New(rrship.Config{
		ServiceURL:            cfg.ServiceURL,
		AuthKey:               cfg.AuthKey,
		SessionID:             cfg.SessionID,
		HTTPTimeout:           cfg.HTTPTimeout,
		SinkRetries:           cfg.SinkRetries,
		Workers:               cfg.Workers,
		QueueSize:             cfg.QueueSize,
		ConnectionTestTimeout: cfg.ConnectionTestTimeout,
	}, opts...)
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}
	if err := rec.Start(ctx); err != nil {
		return fmt.Errorf("start recorder: %w", err)
	}
	defer func() {
		if err := rec.Stop(); err != nil && !errors.Is(err, rrship.ErrNotRunning) {
			zl.Error().Err(err).Msg("stop recorder")
		}
	}()

	strap := ble.NewTransport(bluetooth.DefaultAdapter, ble.Config{
		NameContains:   cfg.DeviceName,
		Address:        cfg.DeviceAddress,
		ScanTimeout:    cfg.ScanTimeout,
		ConnectTimeout: cfg.ConnectTimeout,
	}, rec.Events(), logger)
	if err := strap.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := strap.Disconnect(); err != nil {
			zl.Warn().Err(err).Msg("disconnect")
		}
	}()
	rec.Attach(strap)

	if _, err := rec.ReadBatteryLevel(); err != nil {
		zl.Warn().Err(err).Msg("battery level unavailable")
	}
	if loc, err := strap.ReadBodyLocation(); err != nil {
		zl.Debug().Err(err).Msg("body sensor location unavailable")
	} else {
		zl.Info().Str("location", loc).Msg("body sensor location")
	}

	if !cfg.SkipConnectionTest {
		if err := rec.TestConnection(ctx); err != nil {
			return fmt.Errorf("connection test: %w", err)
		}
	}

	zl.Info().Dur("duration", cfg.Duration).Msg("recording")
	err = rec.Record(ctx, cfg.Duration)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("record: %w", err)
	}

	console.PrintIntervals(os.Stdout, rec.Intervals())

	st := rec.Status().Delivery
	zl.Info().
		Uint64("delivered", st.Delivered).
		Uint64("failed", st.Failed).
		Uint64("dropped", st.Dropped).
		Msg("uploads")
	return nil
}
