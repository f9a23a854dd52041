// Package catalog loads the declarative dataset catalog and model registry.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/huangsam/finbench/schema"
	"gopkg.in/yaml.v3"
)

// datasetEntry is one dataset section of the catalog file.
type datasetEntry struct {
	Path        string     `yaml:"path"`
	Frequency   string     `yaml:"frequency" validate:"required,frequency"`
	Seasonality int        `yaml:"seasonality" validate:"required,gt=0"`
	TestSplit   splitValue `yaml:"test_split"`
	Description string     `yaml:"description"`
}

// catalogFile is the on-disk layout: datasets grouped by source module.
type catalogFile struct {
	DataRoot string                             `yaml:"data_root"`
	Datasets map[string]map[string]datasetEntry `yaml:"datasets" validate:"dive,dive"`
}

// splitValue accepts either a YAML number or the seasonal sentinel.
type splitValue struct {
	policy schema.SplitPolicy
	set    bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *splitValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: test_split must be a scalar", node.Line)
	}
	policy, err := schema.ParseSplitPolicy(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	s.policy, s.set = policy, true
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return schema.Frequency(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("family", func(fl validator.FieldLevel) bool {
		_, ok := schema.ValidBackendFamilies[schema.BackendFamily(fl.Field().String())]
		return ok
	})
	return v
}

// Catalog is a read-only mapping from dataset name to descriptor.
type Catalog struct {
	dataRoot string
	entries  map[string]schema.DatasetDescriptor
}

// LoadCatalog reads and validates a catalog file. Relative dataset paths
// resolve against data_root, which itself resolves against the catalog's
// directory.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrCatalogMalformed, err)
	}
	defer func() { _ = f.Close() }()

	var raw catalogFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrCatalogMalformed, path, err)
	}
	if err := validate.Struct(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", schema.ErrCatalogMalformed, path, err)
	}

	root := raw.DataRoot
	if root == "" || !filepath.IsAbs(root) {
		root = filepath.Join(filepath.Dir(path), root)
	}

	c := &Catalog{dataRoot: root, entries: make(map[string]schema.DatasetDescriptor)}
	groups := make([]string, 0, len(raw.Datasets))
	for g := range raw.Datasets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, group := range groups {
		for name, entry := range raw.Datasets[group] {
			if prev, dup := c.entries[name]; dup {
				return nil, fmt.Errorf("%w: dataset %q appears in groups %q and %q", schema.ErrCatalogMalformed, name, prev.Group, group)
			}
			desc := schema.DatasetDescriptor{
				Name:        name,
				Path:        c.resolvePath(name, entry.Path),
				Frequency:   schema.Frequency(entry.Frequency),
				Seasonality: entry.Seasonality,
				TestSplit:   schema.FractionSplit(schema.DefaultTestSplit),
				Description: entry.Description,
				Group:       group,
			}
			if entry.TestSplit.set {
				desc.TestSplit = entry.TestSplit.policy
			}
			c.entries[name] = desc
		}
	}
	return c, nil
}

func (c *Catalog) resolvePath(name, path string) string {
	if path == "" {
		return filepath.Join(c.dataRoot, name+".parquet")
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.dataRoot, path)
}

// Get returns the catalog entry for an exact, case-sensitive name.
func (c *Catalog) Get(name string) (schema.DatasetDescriptor, bool) {
	desc, ok := c.entries[name]
	return desc, ok
}

// Lookup returns the entry for name, or the default descriptor with a
// warning when the catalog has no such entry.
func (c *Catalog) Lookup(name string) schema.DatasetDescriptor {
	if desc, ok := c.entries[name]; ok {
		return desc
	}
	slog.Warn("Dataset not in catalog, using defaults",
		"dataset", name,
		"frequency", schema.DefaultFrequency,
		"seasonality", schema.DefaultSeasonality,
		"test_split", schema.DefaultTestSplit)
	return schema.DatasetDescriptor{
		Name:        name,
		Path:        c.resolvePath(name, ""),
		Frequency:   schema.DefaultFrequency,
		Seasonality: schema.DefaultSeasonality,
		TestSplit:   schema.FractionSplit(schema.DefaultTestSplit),
		Defaulted:   true,
	}
}

// Resolve is Lookup with an optional strict mode that refuses unknown names.
func (c *Catalog) Resolve(name string, strict bool) (schema.DatasetDescriptor, error) {
	if strict {
		desc, ok := c.entries[name]
		if !ok {
			return schema.DatasetDescriptor{}, fmt.Errorf("%w: %q", schema.ErrDatasetUnknown, name)
		}
		return desc, nil
	}
	return c.Lookup(name), nil
}

// Names returns all dataset names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.entries) }
