// Package manifest loads the YAML pass manifest: the list of rewrite
// passes, each naming its DRR program and optional kernel definer and
// dispatcher programs.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Pass names the programs of one rewrite pass.
type Pass struct {
	Name             string `yaml:"name"`
	DRR              string `yaml:"drr"`
	KernelDefiner    string `yaml:"kernel_definer,omitempty"`
	KernelDispatcher string `yaml:"kernel_dispatcher,omitempty"`
}

// Manifest is the top-level pass list.
type Manifest struct {
	Passes []Pass `yaml:"passes"`

	// dir is the manifest's directory; program paths resolve against it.
	dir string
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(m.Passes) == 0 {
		return nil, fmt.Errorf("manifest has no passes")
	}
	for i, pass := range m.Passes {
		if pass.Name == "" {
			return nil, fmt.Errorf("pass %d is missing required field: name", i)
		}
		if pass.DRR == "" {
			return nil, fmt.Errorf("pass %q is missing required field: drr", pass.Name)
		}
	}
	m.dir = filepath.Dir(path)
	return &m, nil
}

// ProgramText reads a pass's program file relative to the manifest.
func (m *Manifest) ProgramText(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(m.dir, rel))
	if err != nil {
		return "", fmt.Errorf("failed to read program: %w", err)
	}
	return string(data), nil
}
