package schema

import "errors"

// Configuration errors. Each one ends the process with a non-zero exit.
var (
	ErrDatasetUnknown   = errors.New("dataset unknown")
	ErrModelUnknown     = errors.New("model unknown")
	ErrCatalogMalformed = errors.New("catalog malformed")
	ErrInvalidOverride  = errors.New("invalid environment override")
)

// Dataset errors, fatal for the run.
var (
	ErrDatasetMissing = errors.New("dataset missing")
	ErrDatasetSchema  = errors.New("dataset schema")
	ErrDatasetEmpty   = errors.New("dataset empty")
)

// ErrModelFitFailed is returned when a global or panel backend cannot be fit.
var ErrModelFitFailed = errors.New("model fit failed")
