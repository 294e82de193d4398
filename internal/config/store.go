// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Store handles configuration persistence on the host side.
type Store struct {
	path string
}

// NewStore creates a store bound to one config file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the config file path the store reads and writes.
func (s *Store) Path() string {
	return s.path
}

// Load reads the configuration from disk. A missing file yields Default()
// rather than an error so a fresh host starts with a usable config.
func (s *Store) Load() (Global, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Global{}, fmt.Errorf("read config %s: %w", s.path, err)
	}

	var cfg Global
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Global{}, fmt.Errorf("parse config %s: %w", s.path, err)
	}
	if cfg.Plugins == nil {
		cfg.Plugins = map[string]Plugin{}
	}
	if err := Validate(cfg); err != nil {
		return Global{}, err
	}
	return cfg, nil
}

// Save writes the configuration to disk atomically (fsync before rename, so
// a crash never leaves a truncated config behind).
func (s *Store) Save(cfg Global) error {
	if err := Validate(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	enc := yaml.NewEncoder(pending)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace config file: %w", err)
	}
	return nil
}
