// SPDX-License-Identifier: MIT

// Package manifest defines the read-only descriptor a plugin publishes
// about itself. Manifests are fetched on demand and never cached; callers
// receive copies so the host's parsed value can never be mutated through a
// client reference.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes a plugin's identity, capabilities and the options it
// accepts. Treat values as read-only; use Clone before handing one out.
type Manifest struct {
	Name         string       `yaml:"name" json:"name"`
	Version      string       `yaml:"version" json:"version"`
	Description  string       `yaml:"description,omitempty" json:"description,omitempty"`
	Author       string       `yaml:"author,omitempty" json:"author,omitempty"`
	Capabilities []string     `yaml:"capabilities,omitempty" json:"capabilities,omitempty"`
	Options      []OptionSpec `yaml:"options,omitempty" json:"options,omitempty"`
}

// OptionSpec declares one configuration option a plugin understands.
type OptionSpec struct {
	Key         string `yaml:"key" json:"key"`
	Type        string `yaml:"type" json:"type"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Clone returns an alias-free deep copy.
func (m Manifest) Clone() Manifest {
	out := m
	if m.Capabilities != nil {
		out.Capabilities = make([]string, len(m.Capabilities))
		copy(out.Capabilities, m.Capabilities)
	}
	if m.Options != nil {
		out.Options = make([]OptionSpec, len(m.Options))
		copy(out.Options, m.Options)
	}
	return out
}

// Load reads and parses a manifest file.
func Load(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		return Manifest{}, fmt.Errorf("manifest %s: missing name", path)
	}
	return m, nil
}
