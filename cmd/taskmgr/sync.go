package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jana-haikel/Task-manager/internal/store/sync"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Rebuild or check the JSON mirror",
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Rebuild every mirror document from the database",
	Long: `Rebuild tasks.json and todos.json from the database.

This performs a full resync:
  1. Reads every table in canonical order
  2. Replaces each mirror document atomically
  3. Reports the record counts written

Running it twice produces byte-identical documents.`,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()

		if !jsonOutput {
			fmt.Printf("%s Syncing %s to %s...\n", ui.RenderAccent("Sync"), cfg.Database, a.mirror.Dir())
		}
		result, err := a.orch.ResyncAll(context.Background())
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			printJSON(result)
			return
		}
		fmt.Printf("%s Sync complete in %v\n", ui.RenderPass(ui.IconPass), result.Duration.Round(time.Millisecond))
		fmt.Printf("   Tasks: %d\n", result.Tasks)
		fmt.Printf("   Todos: %d\n", result.Todos)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare database and mirror record counts",
	Long: `Compare the number of records in the database with the number in each
mirror document. A mirror document that cannot be decoded counts as drift.

--format json and --format yaml print the same {sqlite, json, inSync} shape.

Counts can agree while contents differ. Use --verify to also compare SHA-256
digests of the canonical database encoding and the mirror bytes.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		verify, _ := cmd.Flags().GetBool("verify")
		failOnDrift, _ := cmd.Flags().GetBool("fail-on-drift")
		if jsonOutput {
			format = "json"
		}
		if format != "text" && format != "json" && format != "yaml" {
			fmt.Fprintf(os.Stderr, "Error: --format must be 'text', 'json', or 'yaml'\n")
			exit(exitClient)
		}

		a := openApp(appOptions{verify: verify})
		defer a.Close()

		report, err := a.orch.CheckDrift(context.Background())
		if err != nil {
			fatal(err)
		}

		if format == "text" {
			printDriftReport(report)
		} else if err := writeStatus(os.Stdout, format, report.Status()); err != nil {
			fatal(err)
		}

		if failOnDrift && drifted(report) {
			exit(exitError)
		}
	},
}

func init() {
	syncStatusCmd.Flags().String("format", "text", "Output format: text, json, or yaml")
	syncStatusCmd.Flags().Bool("verify", false, "Also compare content digests")
	syncStatusCmd.Flags().Bool("fail-on-drift", false, "Exit non-zero when the mirror has drifted")

	syncCmd.AddCommand(syncRunCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}

// writeStatus encodes status as json or yaml. Both carry the same fields.
func writeStatus(w io.Writer, format string, status *sync.Status) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(status); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(status)
}

func drifted(r *sync.DriftReport) bool {
	return !r.InSync || (r.ContentInSync != nil && !*r.ContentInSync)
}

func printDriftReport(r *sync.DriftReport) {
	fmt.Printf("\n%s Mirror Status\n\n", ui.RenderAccent("Sync"))
	fmt.Printf("   %-8s %8s %8s\n", "", "sqlite", "json")
	for _, table := range sync.Tables {
		d := r.Tables[table]
		line := fmt.Sprintf("   %-8s %8d %8d", table, d.StoreCount, d.MirrorCount)
		if d.Drifted() {
			line = ui.RenderWarn(line)
		}
		fmt.Println(line)
		if d.MirrorError != "" {
			fmt.Printf("   %s %s.json is corrupt: %s\n", ui.RenderFail(ui.IconFail), table, d.MirrorError)
		}
	}
	fmt.Println()
	fmt.Printf("   %s\n", ui.Verdict(r.InSync, "counts in sync", "counts differ"))
	if r.ContentInSync != nil {
		fmt.Printf("   %s\n", ui.Verdict(*r.ContentInSync, "content in sync", "content differs"))
	}
	if drifted(r) {
		fmt.Printf("\n   Run 'taskmgr sync run' to rebuild the mirror\n")
	}
	fmt.Println()
}
