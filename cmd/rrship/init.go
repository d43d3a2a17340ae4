package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bft-labs/rrship/internal/adapters/fs"
	"github.com/bft-labs/rrship/internal/cliconfig"
)

func newInitCommand() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Example: strings.TrimSpace(`
  rrship init --service-url https://rr.example.com --auth-key <key>
  rrship init --config ./rrship.toml --force`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = cliconfig.DefaultConfigPath()
			}
			if path == "" {
				return fmt.Errorf("cannot determine home directory, pass --config")
			}
			return writeConfig(cmd.Context(), cmd.OutOrStdout(), path, cfg, force)
		},
	}

	cmd.Flags().StringVar(&path, "config", "", "path to write (default: $HOME/.rrship/config.toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&cfg.DeviceName, "device-name", cfg.DeviceName, "strap name to scan for")
	cmd.Flags().StringVar(&cfg.DeviceAddress, "device-address", cfg.DeviceAddress, "strap address")
	cmd.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "base URL of the measurement service")
	cmd.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for authentication")
	cmd.Flags().StringVar(&cfg.SessionID, "session-id", cfg.SessionID, "tag attached to every upload")
	return cmd
}

func writeConfig(ctx context.Context, w io.Writer, path string, cfg cliconfig.Config, force bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	repo := fs.NewConfigFileRepository(path)
	if err := repo.Create(ctx, cliconfig.NewFileConfig(cfg), force); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", repo.Path())
	return nil
}
