package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bft-labs/rrship/internal/cliconfig"
)

// ErrConfigExists is returned by Create when the file is already present.
var ErrConfigExists = errors.New("rrship: config file already exists")

// ConfigFileRepository reads and writes the TOML config file.
type ConfigFileRepository struct {
	path string
}

// NewConfigFileRepository creates a repository for the file at path.
func NewConfigFileRepository(path string) *ConfigFileRepository {
	return &ConfigFileRepository{path: path}
}

// Load reads the config file.
// Returns an empty FileConfig and nil error if the file does not exist.
func (r *ConfigFileRepository) Load(ctx context.Context) (cliconfig.FileConfig, error) {
	if err := ctx.Err(); err != nil {
		return cliconfig.FileConfig{}, err
	}
	fc, err := cliconfig.LoadFileConfig(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliconfig.FileConfig{}, nil
		}
		return cliconfig.FileConfig{}, err
	}
	return fc, nil
}

// Save writes fc atomically (temp file, then rename) with owner-only
// permissions since the file holds the auth key.
func (r *ConfigFileRepository) Save(ctx context.Context, fc cliconfig.FileConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := toml.Marshal(fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

// Create writes fc unless the file already exists and overwrite is false.
func (r *ConfigFileRepository) Create(ctx context.Context, fc cliconfig.FileConfig, overwrite bool) error {
	if !overwrite && cliconfig.FileExists(r.path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, r.path)
	}
	return r.Save(ctx, fc)
}

// Path returns the full path to the config file.
func (r *ConfigFileRepository) Path() string {
	return r.path
}
