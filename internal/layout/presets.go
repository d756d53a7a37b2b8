package layout

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// ErrPresetNotFound is returned when a preset name is unknown.
var ErrPresetNotFound = errors.New("print preset not found")

// Preset is a named set of print settings.
type Preset struct {
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Settings    PrintSettings `json:"settings" yaml:",inline"`
}

// Presets is an ordered collection of presets.
type Presets []Preset

type presetFile struct {
	Presets Presets `yaml:"presets"`
}

// LoadPresets parses a YAML presets document. Every preset must have a unique
// name and valid settings.
func LoadPresets(r io.Reader) (Presets, error) {
	var f presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode print presets: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Presets))
	for i, p := range f.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset %d: missing name", i)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, fmt.Errorf("preset %q: defined twice", p.Name)
		}
		seen[p.Name] = struct{}{}

		f.Presets[i].Settings = p.Settings.WithDefaults()
		if err := f.Presets[i].Settings.Validate(); err != nil {
			return nil, fmt.Errorf("preset %q: %w", p.Name, err)
		}
	}
	return f.Presets, nil
}

// DefaultPresets returns the presets compiled into the binary.
func DefaultPresets() Presets {
	presets, err := LoadPresets(bytes.NewReader(builtinPresets))
	if err != nil {
		panic(fmt.Sprintf("built-in print presets are invalid: %v", err))
	}
	return presets
}

// Find returns the preset called name.
func (ps Presets) Find(name string) (Preset, error) {
	for _, p := range ps {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrPresetNotFound, name)
}
