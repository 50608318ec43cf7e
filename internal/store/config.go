// Package store holds outer-shell persistence: a TOML config file for
// default engine options, and a Badger-backed key/value store used by the
// tablebase cache and UCI shell to survive process restarts. None of it is
// reachable from internal/board or internal/engine — the search core stays
// memoryless, per the engine's "no persisted state" contract.
package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds shell-level defaults that setoption can override once the
// engine is running. It is optional: a missing config file is not an error.
type Config struct {
	Hash           int    `toml:"hash"`
	SyzygyPath     string `toml:"syzygy_path"`
	BookPath       string `toml:"book_path"`
	MoveOverheadMs int    `toml:"move_overhead_ms"`
}

// DefaultConfig returns the configuration used when no config file is
// present, matching the engine's own built-in defaults.
func DefaultConfig() Config {
	return Config{
		Hash:           64,
		MoveOverheadMs: 30,
	}
}

// LoadConfig reads and decodes a TOML config file at path. A missing file is
// not an error: DefaultConfig is returned instead, so a fresh install can
// run with zero configuration.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("store: read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("store: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path in TOML form, overwriting any existing file.
func (c Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("store: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write config %s: %w", path, err)
	}
	return nil
}
