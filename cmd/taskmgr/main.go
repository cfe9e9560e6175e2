package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/config"
	"github.com/Jana-haikel/Task-manager/internal/logging"
	"github.com/Jana-haikel/Task-manager/internal/store"
	"github.com/Jana-haikel/Task-manager/internal/store/db"
	"github.com/Jana-haikel/Task-manager/internal/store/mirror"
	"github.com/Jana-haikel/Task-manager/internal/store/sync"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

// Exit codes.
const (
	exitError    = 1
	exitClient   = 2 // validation or malformed input
	exitNotFound = 3
	exitPartial  = 4 // store committed, mirror refresh failed
)

var (
	configFile string
	dataDir    string
	verbose    bool
	jsonOutput bool

	cfg *config.Config

	// cleanups run before the process exits, newest first.
	cleanups []func()
	osExit   = os.Exit
)

var rootCmd = &cobra.Command{
	Use:   "taskmgr",
	Short: "Tasks and todos in SQLite with a JSON mirror",
	Long: `taskmgr keeps tasks, todos and settings in a SQLite database and
mirrors every table to a JSON document after each change.

The database is the source of truth. The mirror (tasks.json, todos.json,
settings.json) is rebuilt in full after every mutation, and can be checked
for drift or rebuilt on demand with 'taskmgr sync'.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loaded, err := config.Load(config.Options{File: configFile, DataDir: dataDir})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			exit(exitError)
		}
		if verbose {
			loaded.Log.Verbose = true
		}
		cfg = loaded

		if jsonOutput {
			ui.DisableColor()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default <data-dir>/taskmgr.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default ./data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log sync activity to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "records", Title: "Records:"},
		&cobra.Group{ID: "sync", Title: "Mirror sync:"},
		&cobra.Group{ID: "maint", Title: "Maintenance:"},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		exit(exitError)
	}
	exit(0)
}

// exit runs the registered cleanups and exits with code. Commands call it
// instead of os.Exit so the database and log file are always closed.
func exit(code int) {
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i]()
	}
	cleanups = nil
	osExit(code)
}

// app holds the opened store, mirror and orchestrator for one command.
type app struct {
	closed bool
	sink   *logging.Sink
	db     *db.DB
	mirror *mirror.Writer
	orch   sync.Orchestrator
}

type appOptions struct {
	observer sync.Observer
	verify   bool // force content verification
	logAll   bool // long-running commands always log
}

// openApp opens the store and mirror described by cfg. It exits on failure.
func openApp(opts appOptions) *app {
	logOpts := logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Verbose:    cfg.Log.Verbose || opts.logAll,
	}
	a := &app{sink: logging.Open(logOpts)}
	cleanups = append(cleanups, a.Close)

	database, err := db.Open(cfg.Database)
	if err != nil {
		fatal(err)
	}
	a.db = database

	if err := database.InitSchema(); err != nil {
		fatal(err)
	}

	w, err := mirror.New(cfg.MirrorDir)
	if err != nil {
		fatal(err)
	}
	a.mirror = w

	a.orch = sync.New(database, w, &sync.Config{
		Logger:        a.sink.Logger("sync"),
		Observer:      opts.observer,
		VerifyContent: cfg.VerifyContent || opts.verify,
	})
	return a
}

// Close closes the database and the log sink. It is safe to call twice.
func (a *app) Close() {
	if a.closed {
		return
	}
	a.closed = true
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	_ = a.sink.Close()
}

// exitCode maps the error taxonomy to a process exit code.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case store.IsPartial(err):
		return exitPartial
	case store.IsClientError(err):
		return exitClient
	case errors.Is(err, store.ErrNotFound):
		return exitNotFound
	default:
		return exitError
	}
}

// fatal prints err and exits with its exit code.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderFail("Error:"), err)
	exit(exitCode(err))
}

// checkMutation handles the error of a mutation whose result has already
// been printed. A partial success is a warning with its own exit code.
func checkMutation(err error) {
	if err == nil {
		return
	}
	if store.IsPartial(err) {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.RenderWarn("Warning:"), err)
		fmt.Fprintf(os.Stderr, "   The change is saved. Run 'taskmgr sync run' to rebuild the mirror.\n")
		exit(exitPartial)
	}
	fatal(err)
}

// failedMutation reports whether err means nothing was committed.
func failedMutation(err error) bool {
	return err != nil && !store.IsPartial(err)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal(err)
	}
}
