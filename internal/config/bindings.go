package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/keycast/internal/shortcut"
)

// BindingSpec is one binding definition in a bindings file. The action
// name is resolved against a caller-supplied table when applied.
type BindingSpec struct {
	ID          string `json:"id" yaml:"id"`
	Keys        string `json:"keys" yaml:"keys"`
	Action      string `json:"action" yaml:"action"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
	Disabled    bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// BindingsFile is the on-disk bindings format.
type BindingsFile struct {
	Bindings []BindingSpec `json:"bindings" yaml:"bindings"`
}

// LoadBindings reads a bindings file. The format follows the extension:
// .json for JSON, .yaml or .yml for YAML.
func LoadBindings(path string) (*BindingsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading bindings %s: %w", path, err)
	}

	var file BindingsFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing bindings %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parsing bindings %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("bindings %s: unsupported extension %q", path, ext)
	}

	return &file, nil
}

// SaveBindings writes a bindings file in the format the extension names,
// creating parent directories as needed.
func SaveBindings(path string, file *BindingsFile) error {
	var data []byte
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(file, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(file)
	default:
		return fmt.Errorf("bindings %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return fmt.Errorf("encoding bindings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bindings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing bindings %s: %w", path, err)
	}
	return nil
}

// Apply registers every binding into the registry, resolving action
// names through the actions table. It returns the registered ids.
// An unknown action or an unparsable key sequence fails the whole
// application, leaving any bindings registered so far in place; callers
// wanting atomic reloads apply to a fresh registry first.
func (f *BindingsFile) Apply(reg *shortcut.Registry, actions map[string]shortcut.Handler) ([]string, error) {
	ids := make([]string, 0, len(f.Bindings))

	for _, spec := range f.Bindings {
		handler, ok := actions[spec.Action]
		if !ok {
			return ids, fmt.Errorf("binding %q: unknown action %q", spec.ID, spec.Action)
		}

		id, err := reg.Register(shortcut.Binding{
			ID:          spec.ID,
			Keys:        spec.Keys,
			Handler:     handler,
			Description: spec.Description,
			Category:    spec.Category,
		})
		if err != nil {
			return ids, fmt.Errorf("binding %q: %w", spec.ID, err)
		}

		if spec.Disabled {
			reg.Toggle(id, false)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
