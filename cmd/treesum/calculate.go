package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"treesum/pkg/calculator"
	"treesum/pkg/config"
	"treesum/pkg/logger"
	"treesum/pkg/ui"
)

var (
	// Calculate command flags
	continuePrevious bool
	startNew         bool
	detailFiles      bool
	parallel         int
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate <directory>",
	Short: "Compute the aggregate checksum of a directory tree",
	Long: `Compute the aggregate checksum of a directory tree and persist it as a
record file (tree_checksum.json).

By default an existing record covering the target is updated in place: the
target node is recomputed and every ancestor checksum is restored from its
children. With --continue, sub-records completed by a previous interrupted
run are reused instead of recomputed. With --new, any existing record at the
target is discarded and a fresh one is started.`,
	Example: `  # Calculate a tree with four parallel workers
  treesum calculate /data/photos --parallel 4

  # Resume an interrupted calculation
  treesum calculate /data/photos --continue

  # Start over, discarding the existing record
  treesum calculate /data/photos --new

  # Record per-file digests, sizes and modification times
  treesum calculate /data/photos --detail-files`,
	Args: cobra.ExactArgs(1),
	Run:  runCalculate,
}

func init() {
	rootCmd.AddCommand(calculateCmd)

	calculateCmd.Flags().BoolVar(&continuePrevious, "continue", false, "reuse completed sub-records from a previous interrupted run")
	calculateCmd.Flags().BoolVar(&startNew, "new", false, "discard any existing record at the target and start fresh")
	calculateCmd.Flags().BoolVar(&detailFiles, "detail-files", false, "record per-file digest, size and modification time")
	calculateCmd.Flags().IntVarP(&parallel, "parallel", "j", 1, "number of branch computations to run in parallel")
}

func runCalculate(cmd *cobra.Command, args []string) {
	target := strings.TrimSpace(args[0])

	// Build flags map from command line
	flags := make(map[string]interface{})
	if parallel != 1 {
		flags["parallel"] = parallel
	}
	if detailFiles {
		flags["detail-files"] = true
	}
	if noProgress {
		flags["progress"] = false
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		os.Exit(1)
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("treesum starting")

	ui.PrintInfo("Target", target)

	opts := calculator.Options{
		ContinuePrevious: continuePrevious,
		StartNew:         startNew,
		DetailFiles:      cfg.Calculate.DetailFiles,
		Parallel:         cfg.Calculate.Parallel,
		Logger:           log,
	}

	var bar *ui.Bar
	if cfg.Progress.Enabled && !quiet {
		bar = ui.NewBar()
		opts.Progress = bar.Update
	}

	err = calculator.CalculateTree(target, opts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.WithError(err).WithField("target", target).Error("Calculation failed")
		ui.PrintError("Calculation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Checksum calculation completed")
}
