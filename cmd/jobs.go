package cmd

import (
	"github.com/huangsam/finbench/core"
	"github.com/spf13/cobra"
)

// jobsCmd writes the batch job list.
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Write one evaluation command per (dataset, model) pair",
	Long: `Enumerate the Cartesian product of catalog datasets and registry models
and write one command line per pair, datasets outer and models inner.

The list is written atomically to <OUTPUT_DIR>/jobs.txt unless --output-file
is given. Each line starts with --invoke, the model's registry script, or
finbench, in that order of preference.

Examples:
  # Generate the job list for a scheduler array
  finbench jobs

  # Wrap every job in a submit script
  finbench jobs --invoke "sbatch run_job.sh" --output-file jobs.txt`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return core.ExecuteJobs(rootCtx, cfg)
	},
}
