package contract

import (
	"fmt"
	"path/filepath"

	"github.com/huangsam/finbench/schema"
	"github.com/kelseyhightower/envconfig"
)

// Job is the flat, immutable effective configuration of one (dataset, model) run.
type Job struct {
	Dataset   schema.DatasetDescriptor
	Model     schema.ModelDescriptor
	OutputDir string
	Seed      uint64
}

// EnvOverrides holds the unprefixed environment variables a batch scheduler
// sets for a run. Unset variables leave the catalog value in place.
type EnvOverrides struct {
	DatasetPath string `envconfig:"DATASET_PATH"`
	Frequency   string `envconfig:"FREQUENCY"`
	Seasonality *int   `envconfig:"SEASONALITY"`
	TestSplit   string `envconfig:"TEST_SPLIT"`
	OutputDir   string `envconfig:"OUTPUT_DIR"`
}

// LoadEnvOverrides reads the override variables from the process environment.
func LoadEnvOverrides() (EnvOverrides, error) {
	var env EnvOverrides
	if err := envconfig.Process("", &env); err != nil {
		return EnvOverrides{}, fmt.Errorf("%w: %v", schema.ErrInvalidOverride, err)
	}
	return env, nil
}

// Apply layers the overrides on top of a catalog descriptor. The descriptor
// passed in is not modified.
func (e EnvOverrides) Apply(desc schema.DatasetDescriptor) (schema.DatasetDescriptor, error) {
	out := desc
	if e.DatasetPath != "" {
		if !filepath.IsAbs(e.DatasetPath) {
			return desc, fmt.Errorf("%w: DATASET_PATH %q must be absolute", schema.ErrInvalidOverride, e.DatasetPath)
		}
		out.Path = e.DatasetPath
	}
	if e.Frequency != "" {
		freq, err := schema.ParseFrequency(e.Frequency)
		if err != nil {
			return desc, fmt.Errorf("%w: FREQUENCY: %v", schema.ErrInvalidOverride, err)
		}
		out.Frequency = freq
	}
	if e.Seasonality != nil {
		if *e.Seasonality <= 0 {
			return desc, fmt.Errorf("%w: SEASONALITY must be positive, got %d", schema.ErrInvalidOverride, *e.Seasonality)
		}
		out.Seasonality = *e.Seasonality
	}
	if e.TestSplit != "" {
		policy, err := schema.ParseSplitPolicy(e.TestSplit)
		if err != nil {
			return desc, fmt.Errorf("%w: TEST_SPLIT: %v", schema.ErrInvalidOverride, err)
		}
		out.TestSplit = policy
	}
	return out, nil
}

// ResolveOutputDir picks the output root: an explicit flag wins, then
// OUTPUT_DIR, then the configured default.
func (e EnvOverrides) ResolveOutputDir(configured string, flagChanged bool) string {
	if !flagChanged && e.OutputDir != "" {
		return e.OutputDir
	}
	return configured
}
