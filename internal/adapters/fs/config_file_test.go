package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/rrship/internal/cliconfig"
)

func TestConfigFileRepository_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".rrship", "config.toml")
	repo := NewConfigFileRepository(path)

	cfg := cliconfig.DefaultConfig()
	cfg.AuthKey = "secret"
	cfg.SessionID = "morning"
	want := cliconfig.NewFileConfig(cfg)

	require.NoError(t, repo.Save(context.Background(), want))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestConfigFileRepository_LoadedFileAppliesBack(t *testing.T) {
	repo := NewConfigFileRepository(filepath.Join(t.TempDir(), "config.toml"))

	cfg := cliconfig.DefaultConfig()
	cfg.Workers = 2
	cfg.SinkRetries = 0
	require.NoError(t, repo.Save(context.Background(), cliconfig.NewFileConfig(cfg)))

	fc, err := repo.Load(context.Background())
	require.NoError(t, err)

	got := cliconfig.DefaultConfig()
	require.NoError(t, cliconfig.ApplyFileConfig(&got, fc, map[string]bool{}))
	assert.Equal(t, cfg, got)
}

func TestConfigFileRepository_LoadMissing(t *testing.T) {
	repo := NewConfigFileRepository(filepath.Join(t.TempDir(), "nope.toml"))

	fc, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cliconfig.FileConfig{}, fc)
}

func TestConfigFileRepository_Create(t *testing.T) {
	repo := NewConfigFileRepository(filepath.Join(t.TempDir(), "config.toml"))
	fc := cliconfig.NewFileConfig(cliconfig.DefaultConfig())

	require.NoError(t, repo.Create(context.Background(), fc, false))

	err := repo.Create(context.Background(), fc, false)
	assert.ErrorIs(t, err, ErrConfigExists)

	assert.NoError(t, repo.Create(context.Background(), fc, true))
}

func TestConfigFileRepository_CanceledContext(t *testing.T) {
	repo := NewConfigFileRepository(filepath.Join(t.TempDir(), "config.toml"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.Save(ctx, cliconfig.FileConfig{}), context.Canceled)
	_, err := repo.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
