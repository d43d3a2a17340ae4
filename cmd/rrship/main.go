package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/rrship/internal/cliconfig"
	"github.com/bft-labs/rrship/pkg/log"
)

const helpDescription = `
Record RR intervals from a Bluetooth heart rate strap and upload them.

rrship scans for the strap, checks that the electrodes have skin contact,
then records for --duration (or until interrupted). Every beat's RR
intervals and heart rate are posted to the measurement service in the
background; the intervals of the recording are printed when it ends.

Configuration is read from flags, RRSHIP_* environment variables and
$HOME/.rrship/config.toml, in that order of precedence.
`

var exampleUsage = strings.TrimSpace(`
  rrship --duration 5m --service-url https://rr.example.com --auth-key <key>
  rrship --device-address AA:BB:CC:DD:EE:FF --skip-connection-test
  rrship decode 16480004
  rrship init --service-url https://rr.example.com --auth-key <key>
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	logger := log.NewConsoleLogger(os.Stderr, cfg.LogLevel)

	root := &cobra.Command{
		Use:           "rrship",
		Short:         "Record RR intervals from a heart rate strap and upload them",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else {
				cfgFile = ""
			}

			// RRSHIP_* override the file; flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			logger = log.NewConsoleLogger(os.Stderr, cfg.LogLevel)

			logCfg := cfg
			if len(logCfg.AuthKey) > 0 {
				logCfg.AuthKey = "*****"
			}
			logger.Info().Interface("config", logCfg).Msg("configuration")

			return run(cmd.Context(), cfg, cfgFile, logger)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.rrship/config.toml)")

	root.Flags().StringVar(&cfg.DeviceName, "device-name", cfg.DeviceName, "connect to the first strap whose name contains this")
	root.Flags().StringVar(&cfg.DeviceAddress, "device-address", cfg.DeviceAddress, "connect to the strap with this address (overrides --device-name)")
	root.Flags().DurationVar(&cfg.ScanTimeout, "scan-timeout", cfg.ScanTimeout, "how long to scan for the strap")
	root.Flags().DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "how long to wait for the connection")
	root.Flags().DurationVar(&cfg.ConnectionTestTimeout, "connection-test-timeout", cfg.ConnectionTestTimeout, "how long to wait for skin contact")
	root.Flags().BoolVar(&cfg.SkipConnectionTest, "skip-connection-test", cfg.SkipConnectionTest, "start recording without waiting for skin contact")
	root.Flags().DurationVar(&cfg.Duration, "duration", cfg.Duration, "recording length (0 records until interrupted)")

	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base URL of the measurement service")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication")
	root.Flags().StringVar(&cfg.SessionID, "session-id", cfg.SessionID, "tag attached to every upload")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().IntVar(&cfg.SinkRetries, "sink-retries", cfg.SinkRetries, "extra attempts per upload on 5xx or network errors")
	root.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "concurrent uploads")
	root.Flags().IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "pending measurements before new ones are dropped")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload the auth key when the config file changes")

	root.AddCommand(newDecodeCommand())
	root.AddCommand(newInitCommand())

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg("rrship")
		os.Exit(1)
	}
}
