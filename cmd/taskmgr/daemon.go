package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jana-haikel/Task-manager/internal/store/daemon"
	"github.com/Jana-haikel/Task-manager/internal/store/dashboard"
	"github.com/Jana-haikel/Task-manager/internal/store/sync"
	"github.com/Jana-haikel/Task-manager/internal/ui"
)

var daemonCmd = &cobra.Command{
	Use:     "daemon",
	GroupID: "sync",
	Short:   "Watch the mirror and audit it for drift (foreground)",
	Long: `Run the mirror audit daemon in the foreground.

The daemon will:
  1. Audit the mirror against the database at startup
  2. Watch the mirror directory for edits and deletions by other tools
  3. Re-audit after changes settle, and on the audit schedule
  4. Rebuild the mirror on drift when --repair (or daemon.repair) is set

With --dashboard the event feed is served from the same process.`,
	Run: func(cmd *cobra.Command, args []string) {
		repair, _ := cmd.Flags().GetBool("repair")
		withDashboard, _ := cmd.Flags().GetBool("dashboard")
		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = cfg.Dashboard.Port
		}

		runDaemon(repair || cfg.Daemon.Repair, withDashboard, port)
	},
}

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: "sync",
	Short:   "Serve a real-time WebSocket feed of sync activity",
	Long: `Start a WebSocket server that broadcasts sync activity.

WebSocket messages include:
- mutation: a task, todo or settings change and its mirror refresh
- sync_complete: a full resync finished
- drift: a drift audit ran (counts per table, inSync)
- status: current sync status, sent when a client connects

Mirror changes made by other processes reach the feed through drift audits,
so the dashboard runs the audit daemon alongside the server.

Connect with a WebSocket client:
  ws://localhost:8080/ws`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		if !cmd.Flags().Changed("port") {
			port = cfg.Dashboard.Port
		}
		runDaemon(cfg.Daemon.Repair, true, port)
	},
}

func init() {
	daemonCmd.Flags().Bool("repair", false, "Rebuild the mirror when drift is found")
	daemonCmd.Flags().Bool("dashboard", false, "Also serve the WebSocket event feed")
	daemonCmd.Flags().IntP("port", "p", 8080, "Dashboard port")
	dashboardCmd.Flags().IntP("port", "p", 8080, "Port to listen on")

	rootCmd.AddCommand(daemonCmd, dashboardCmd)
}

func runDaemon(repair, withDashboard bool, port int) {
	var (
		server   *dashboard.Server
		observer sync.Observer
		handler  *dashboard.Handler
	)
	if withDashboard {
		// The handler is wired after the server exists; events before that
		// are dropped.
		observer = sync.ObserverFunc(func(e sync.Event) {
			if handler != nil {
				handler.OnEvent(e)
			}
		})
	}

	a := openApp(appOptions{observer: observer, logAll: true})
	defer a.Close()

	if withDashboard {
		server = dashboard.NewServer(&dashboard.Config{
			Port:   port,
			Status: a.orch.Status,
			Logger: a.sink.Logger("dashboard"),
		})
		handler = dashboard.NewHandler(server, a.sink.Logger("dashboard"))
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to start dashboard: %v\n", err)
			exit(exitError)
		}
		defer server.Stop()
	}

	d, err := daemon.NewWithConfig(a.orch, a.mirror.Dir(), &daemon.Config{
		DebounceInterval: cfg.Daemon.Debounce,
		AuditSchedule:    cfg.Daemon.AuditSchedule,
		Repair:           repair,
		Logger:           a.sink.Logger("daemon"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
		exit(exitError)
	}

	fmt.Printf("%s Starting mirror audit daemon...\n", ui.RenderAccent("Daemon"))
	fmt.Printf("   Database: %s\n", cfg.Database)
	fmt.Printf("   Mirror:   %s\n", a.mirror.Dir())
	fmt.Printf("   Schedule: %s\n", cfg.Daemon.AuditSchedule)
	fmt.Printf("   Repair:   %v\n", repair)
	if server != nil {
		fmt.Printf("   Feed:     ws://%s/ws\n", server.GetAddr())
	}
	fmt.Printf("\nPress Ctrl+C to stop\n\n")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
		exit(exitError)
	}
}
