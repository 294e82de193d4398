// SPDX-License-Identifier: MIT

package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.yaml")
	if err := os.WriteFile(path, []byte(contents), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t, `
name: calculator
version: 1.2.0
description: evaluates expressions
capabilities: [query, activate]
options:
  - key: precision
    type: int
    default: "8"
`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := Manifest{
		Name:         "calculator",
		Version:      "1.2.0",
		Description:  "evaluates expressions",
		Capabilities: []string{"query", "activate"},
		Options:      []OptionSpec{{Key: "precision", Type: "int", Default: "8"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRejectsMissingName(t *testing.T) {
	path := writeManifest(t, "version: 1.0.0\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for manifest without name")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	m := Manifest{
		Name:         "files",
		Capabilities: []string{"query"},
		Options:      []OptionSpec{{Key: "root", Type: "string"}},
	}

	cp := m.Clone()
	cp.Capabilities[0] = "mutated"
	cp.Options[0].Key = "mutated"

	if m.Capabilities[0] != "query" || m.Options[0].Key != "root" {
		t.Fatal("Clone aliased slice storage")
	}
}
