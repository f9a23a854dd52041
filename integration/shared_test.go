//go:build basic || database

package integration

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/finbench/internal/parquet"
	"github.com/huangsam/finbench/schema"
	"github.com/stretchr/testify/require"
)

var (
	// sharedFinbenchPath holds the path to a shared finbench binary built once for all tests.
	sharedFinbenchPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getFinbenchBinary returns the path to the finbench binary, building it once if needed.
func getFinbenchBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "finbench-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		finbenchPath := filepath.Join(tempDir, "finbench")
		buildCmd := exec.Command("go", "build", "-o", finbenchPath, ".")
		buildCmd.Dir = ".." // Build from project root
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build finbench: %v", err))
		}

		sharedFinbenchPath = finbenchPath
	})

	return sharedFinbenchPath
}

// workspace is a throwaway catalog, registry and output root.
type workspace struct {
	dir       string
	catalog   string
	registry  string
	outputDir string
}

// args prefixes the workspace flags to a command line.
func (w workspace) args(args ...string) []string {
	return append(args, "--catalog", w.catalog, "--registry", w.registry, "--output-dir", w.outputDir)
}

const integrationCatalog = `data_root: .
datasets:
  demo:
    wave:
      path: wave.parquet
      frequency: D
      seasonality: 7
      test_split: 0.2
`

const integrationRegistry = `models:
  naive:
    backend_family: local-statistical
  seasonal_naive:
    backend_family: local-statistical
  theta:
    backend_family: local-statistical
    requires_interpolation: true
`

// newWorkspace writes a two-series daily panel plus its catalog and registry.
func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()

	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	var rows []schema.Row
	for _, id := range []string{"alpha", "beta"} {
		for i := range 120 {
			phase := 0.0
			if id == "beta" {
				phase = 1.5
			}
			rows = append(rows, schema.Row{
				UniqueID: id,
				DS:       start.AddDate(0, 0, i),
				Y:        0.05*float64(i) + math.Sin(2*math.Pi*float64(i)/7+phase),
			})
		}
	}
	require.NoError(t, parquet.WritePanel(filepath.Join(dir, "wave.parquet"), schema.NewPanel(rows)))

	w := workspace{
		dir:       dir,
		catalog:   filepath.Join(dir, "datasets.yaml"),
		registry:  filepath.Join(dir, "models.yaml"),
		outputDir: filepath.Join(dir, "results"),
	}
	require.NoError(t, os.WriteFile(w.catalog, []byte(integrationCatalog), 0o644))
	require.NoError(t, os.WriteFile(w.registry, []byte(integrationRegistry), 0o644))
	return w
}

// runFinbenchCommand runs the binary from the project root and returns its stdout.
func runFinbenchCommand(t *testing.T, args ...string) (string, error) {
	finbenchPath := getFinbenchBinary()
	cmd := exec.Command(finbenchPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.Output()
	if err != nil {
		var stderr []byte
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = exitErr.Stderr
		}
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), string(output), string(stderr))
		return string(output), err
	}
	return string(output), nil
}
