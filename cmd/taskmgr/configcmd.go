package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Jana-haikel/Task-manager/internal/config"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "maint",
	Short:   "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to a TOML file",
	Long: `Write the resolved configuration (defaults, environment and flags) to
--config, or to <data-dir>/taskmgr.toml.`,
	Run: func(cmd *cobra.Command, args []string) {
		force, _ := cmd.Flags().GetBool("force")

		path := configFile
		if path == "" {
			path = filepath.Join(cfg.DataDir, config.FileName)
		}
		if err := config.WriteDefault(path, cfg, force); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exit(exitError)
		}
		fmt.Printf("%s Wrote %s\n", ui.RenderPass(ui.IconPass), path)
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			printJSON(cfg)
			return
		}
		if cfg.File != "" {
			fmt.Printf("# %s\n", cfg.File)
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			fatal(err)
		}
		_ = enc.Close()
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
