package core

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/huangsam/finbench/core/model/estimators"
	"github.com/huangsam/finbench/internal/catalog"
	"github.com/huangsam/finbench/internal/contract"
	"github.com/huangsam/finbench/schema"
)

// SeedFor derives the run seed of a (dataset, model) pair.
func SeedFor(dataset, model string) uint64 {
	return xxhash.Sum64String(dataset + "\x00" + model)
}

// JobRequest names the pair to evaluate.
type JobRequest struct {
	Dataset string
	Model   string
}

// BuildJob resolves the effective configuration of one run. Values flow one
// way: defaults, then the catalog, then the environment, then the request.
func BuildJob(cfg *contract.Config, cat *catalog.Catalog, reg *catalog.Registry, env contract.EnvOverrides, req JobRequest) (*contract.Job, error) {
	desc, err := cat.Resolve(req.Dataset, cfg.StrictCatalog)
	if err != nil {
		return nil, err
	}
	desc, err = env.Apply(desc)
	if err != nil {
		return nil, err
	}

	md, err := reg.Lookup(req.Model)
	if err != nil {
		return nil, err
	}
	def, ok := estimators.Lookup(md.Estimator)
	if !ok {
		return nil, fmt.Errorf("%w: model %q names unknown estimator %q", schema.ErrCatalogMalformed, md.Name, md.Estimator)
	}
	if def.Family != md.BackendFamily {
		return nil, fmt.Errorf("%w: model %q declares family %s but estimator %q is %s",
			schema.ErrCatalogMalformed, md.Name, md.BackendFamily, def.Name, def.Family)
	}

	return &contract.Job{
		Dataset:   desc,
		Model:     md,
		OutputDir: env.ResolveOutputDir(cfg.OutputDir, cfg.OutputDirChanged),
		Seed:      SeedFor(desc.Name, md.Name),
	}, nil
}
