package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/huangsam/finbench/schema"
	"gopkg.in/yaml.v3"
)

// modelEntry is one model section of the registry file.
type modelEntry struct {
	Script                string `yaml:"script"`
	DisplayName           string `yaml:"display_name"`
	BackendFamily         string `yaml:"backend_family" validate:"required,family"`
	Estimator             string `yaml:"estimator"`
	RequiresScaling       bool   `yaml:"requires_scaling"`
	RequiresInterpolation bool   `yaml:"requires_interpolation"`
	RequiresF32           bool   `yaml:"requires_f32"`
	ContextMultiplier     int    `yaml:"context_multiplier" validate:"gte=0"`
	Epochs                int    `yaml:"epochs" validate:"gte=0"`
}

type registryFile struct {
	Models map[string]modelEntry `yaml:"models" validate:"dive"`
}

// Registry maps model names to descriptors.
type Registry struct {
	models map[string]schema.ModelDescriptor
}

// LoadRegistry reads and validates a model registry file.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrCatalogMalformed, err)
	}
	defer func() { _ = f.Close() }()

	var raw registryFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrCatalogMalformed, path, err)
	}
	if err := validate.Struct(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrCatalogMalformed, path, err)
	}

	r := &Registry{models: make(map[string]schema.ModelDescriptor, len(raw.Models))}
	for name, entry := range raw.Models {
		desc := schema.ModelDescriptor{
			Name:                  name,
			Script:                entry.Script,
			DisplayName:           entry.DisplayName,
			BackendFamily:         schema.BackendFamily(entry.BackendFamily),
			Estimator:             entry.Estimator,
			RequiresScaling:       entry.RequiresScaling,
			RequiresInterpolation: entry.RequiresInterpolation,
			RequiresF32:           entry.RequiresF32,
			ContextMultiplier:     entry.ContextMultiplier,
			Epochs:                entry.Epochs,
		}
		if desc.Estimator == "" {
			desc.Estimator = name
		}
		if desc.DisplayName == "" {
			desc.DisplayName = name
		}
		if desc.ContextMultiplier == 0 {
			desc.ContextMultiplier = schema.DefaultContextMultiplier
		}
		if desc.Epochs == 0 {
			desc.Epochs = schema.DefaultEpochs
		}
		// Global models always see interpolated input. Local models are
		// fit on raw values.
		switch desc.BackendFamily {
		case schema.GlobalNeural:
			desc.RequiresInterpolation = true
		case schema.LocalStatistical:
			desc.RequiresScaling = false
		}
		r.models[name] = desc
	}
	return r, nil
}

// Lookup returns the descriptor for an exact model name.
func (r *Registry) Lookup(name string) (schema.ModelDescriptor, error) {
	desc, ok := r.models[name]
	if !ok {
		return schema.ModelDescriptor{}, fmt.Errorf("%w: %q", schema.ErrModelUnknown, name)
	}
	return desc, nil
}

// Names returns all model names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns every descriptor sorted by name.
func (r *Registry) All() []schema.ModelDescriptor {
	out := make([]schema.ModelDescriptor, 0, len(r.models))
	for _, name := range r.Names() {
		out = append(out, r.models[name])
	}
	return out
}
