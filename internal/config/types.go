// SPDX-License-Identifier: MIT

// Package config defines the launcher's global configuration model and the
// host-side persistence around it.
package config

import (
	"fmt"
	"strings"
)

// Global is the host-owned configuration record. The host holds the
// authoritative copy; clients mirror it through the bridge. Plugin names are
// unique by construction (map keys).
type Global struct {
	Plugins map[string]Plugin `yaml:"plugins" json:"plugins"`
	Theme   Theme             `yaml:"theme,omitempty" json:"theme,omitempty"`
	Hotkey  string            `yaml:"hotkey,omitempty" json:"hotkey,omitempty"`
}

// Plugin is the per-plugin configuration record. The bridge and proxy treat
// it as opaque; only the host and the plugin itself interpret Options.
type Plugin struct {
	Prefix  string            `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Enabled bool              `yaml:"enabled" json:"enabled"`
	Options map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Theme holds the launcher's appearance settings.
type Theme struct {
	Accent string `yaml:"accent,omitempty" json:"accent,omitempty"`
	Font   string `yaml:"font,omitempty" json:"font,omitempty"`
}

// Default returns the configuration used when no file exists yet.
func Default() Global {
	return Global{
		Plugins: map[string]Plugin{},
		Theme:   Theme{Accent: "#7c3aed"},
		Hotkey:  "super+space",
	}
}

// Validate checks structural invariants before a config is accepted.
// It never mutates cfg.
func Validate(cfg Global) error {
	for name := range cfg.Plugins {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: plugin name must not be empty")
		}
	}
	if cfg.Hotkey != "" && strings.TrimSpace(cfg.Hotkey) == "" {
		return fmt.Errorf("config: hotkey must not be blank")
	}
	return nil
}
