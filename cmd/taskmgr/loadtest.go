package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/store/loadtest"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var loadtestCmd = &cobra.Command{
	Use:     "loadtest",
	GroupID: "maint",
	Short:   "Run concurrent writers and verify the mirror converges",
	Long: `Run concurrent writers that create, toggle and delete tasks and todos
through the sync layer, then verify that every mirror document matches the
database by count and by content digest.

By default the run uses a scratch data directory so your records are not
touched. Use --in-place to run against the configured data directory.

Examples:
  taskmgr loadtest
  taskmgr loadtest --writers 50 --ops 40
  taskmgr loadtest --json`,
	Run: runLoadtest,
}

func init() {
	defaults := loadtest.DefaultOptions()
	loadtestCmd.Flags().Int("writers", defaults.Writers, "Number of concurrent writers")
	loadtestCmd.Flags().Int("ops", defaults.OpsPerWriter, "Create operations per writer")
	loadtestCmd.Flags().Int("delete-every", defaults.DeleteEvery, "Delete every Nth created record (0 never)")
	loadtestCmd.Flags().Int64("seed", defaults.Seed, "Seed for the operation mix")
	loadtestCmd.Flags().Bool("in-place", false, "Run against the configured data directory")
	rootCmd.AddCommand(loadtestCmd)
}

func runLoadtest(cmd *cobra.Command, args []string) {
	writers, _ := cmd.Flags().GetInt("writers")
	ops, _ := cmd.Flags().GetInt("ops")
	deleteEvery, _ := cmd.Flags().GetInt("delete-every")
	seed, _ := cmd.Flags().GetInt64("seed")
	inPlace, _ := cmd.Flags().GetBool("in-place")

	if writers <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --writers must be positive\n")
		exit(exitClient)
	}
	if ops <= 0 {
		fmt.Fprintf(os.Stderr, "Error: --ops must be positive\n")
		exit(exitClient)
	}

	if !inPlace {
		scratch, err := os.MkdirTemp("", "taskmgr-loadtest-*")
		if err != nil {
			fatal(err)
		}
		cleanups = append(cleanups, func() { _ = os.RemoveAll(scratch) })
		cfg.DataDir = scratch
		cfg.Database = filepath.Join(scratch, "database.db")
		cfg.MirrorDir = scratch
	}

	a := openApp(appOptions{verify: true})
	defer a.Close()

	if !jsonOutput {
		fmt.Printf("%s Running %d writers x %d operations...\n", ui.RenderAccent("Load test"), writers, ops)
	}

	res, err := loadtest.Run(context.Background(), a.orch, loadtest.Options{
		Writers:      writers,
		OpsPerWriter: ops,
		DeleteEvery:  deleteEvery,
		Seed:         seed,
	})
	if err != nil {
		fatal(err)
	}

	if jsonOutput {
		printJSON(map[string]any{
			"writers":    writers,
			"ops":        ops,
			"created":    res.Created,
			"deleted":    res.Deleted,
			"partial":    res.Partial,
			"errors":     res.Stats.Errors,
			"durationMs": res.Duration.Milliseconds(),
			"throughput": res.Throughput(),
			"p50Ms":      float64(res.Stats.P50.Microseconds()) / 1000,
			"p95Ms":      float64(res.Stats.P95.Microseconds()) / 1000,
			"p99Ms":      float64(res.Stats.P99.Microseconds()) / 1000,
			"converged":  res.Converged,
			"report":     res.Report,
		})
	} else {
		fmt.Println()
		res.Stats.PrintStats(os.Stdout)
		fmt.Printf("\n   Created: %d  Deleted: %d  Partial: %d\n", res.Created, res.Deleted, res.Partial)
		fmt.Printf("   Throughput: %.2f ops/second\n\n", res.Throughput())
		fmt.Printf("   %s\n\n", ui.Verdict(res.Converged, "mirror converged", "mirror did not converge"))
	}

	if !res.Converged || res.Stats.Errors > 0 {
		exit(exitError)
	}
}
