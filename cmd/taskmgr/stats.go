package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	GroupID: "records",
	Short:   "Show task completion statistics",
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()

		stats, err := a.orch.Stats(context.Background())
		if err != nil {
			fatal(err)
		}

		if jsonOutput {
			printJSON(stats)
			return
		}
		fmt.Printf("\n%s Tasks\n\n", ui.RenderAccent("Stats"))
		fmt.Printf("   Total:     %d\n", stats.Total)
		fmt.Printf("   Completed: %d\n", stats.Completed)
		fmt.Printf("   Open:      %d\n", stats.Total-stats.Completed)
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
