package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/schema"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var settingsCmd = &cobra.Command{
	Use:     "settings",
	GroupID: "records",
	Short:   "Show or change settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show settings (defaults when none are saved)",
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(appOptions{})
		defer a.Close()

		settings, err := a.orch.Settings(context.Background())
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			printJSON(settings)
			return
		}
		printSettings(settings)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Merge values into the settings",
	Long: `Merge values into the settings document. Values are read as JSON when
they parse (true, 3, "x", {...}) and as plain strings otherwise.

  taskmgr settings set theme=dark showCompleted=false
  taskmgr settings set --data '{"theme":"dark"}'`,
	Run: func(cmd *cobra.Command, args []string) {
		patch := settingsPatch(cmd, args)

		a := openApp(appOptions{})
		defer a.Close()

		merged, err := a.orch.UpdateSettings(context.Background(), patch)
		if err != nil {
			fatal(err)
		}
		if jsonOutput {
			printJSON(merged)
			return
		}
		fmt.Printf("%s Settings updated\n", ui.RenderPass(ui.IconPass))
		printSettings(merged)
	},
}

func init() {
	settingsSetCmd.Flags().String("data", "", "Patch as a JSON object")

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func settingsPatch(cmd *cobra.Command, args []string) schema.Settings {
	if data, _ := cmd.Flags().GetString("data"); data != "" {
		patch, err := schema.DecodeSettingsPatch([]byte(data))
		if err != nil {
			fatal(err)
		}
		return patch
	}

	patch, err := parseAssignments(args)
	if err != nil {
		fatal(err)
	}
	return patch
}

// parseAssignments turns key=value arguments into a settings patch.
func parseAssignments(args []string) (schema.Settings, error) {
	patch := schema.Settings{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &store.ValidationError{Field: "settings", Message: fmt.Sprintf("expected key=value, got %q", arg)}
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		patch[key] = value
	}
	return patch, nil
}

func printSettings(settings schema.Settings) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("   %-14s %v\n", k+":", settings[k])
	}
}
