// Package ui renders taskmgr's terminal output.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Status icons.
const (
	IconPass = "✓"
	IconFail = "✗"
	IconWarn = "!"
	IconOpen = "○"
	IconDone = "●"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#a6e22e"})
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#f92672"}).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#ef6c00", Dark: "#fd971f"})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func init() {
	if !IsTerminal() || termenv.EnvNoColor() {
		DisableColor()
	}
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// DisableColor turns off all styling, e.g. for piped output or --json.
func DisableColor() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func RenderPass(s string) string   { return passStyle.Render(s) }
func RenderFail(s string) string   { return failStyle.Render(s) }
func RenderWarn(s string) string   { return warnStyle.Render(s) }
func RenderAccent(s string) string { return accentStyle.Render(s) }
func RenderMuted(s string) string  { return mutedStyle.Render(s) }

// Checkbox renders a completion marker.
func Checkbox(done bool) string {
	if done {
		return RenderPass(IconDone)
	}
	return RenderMuted(IconOpen)
}

// Verdict renders a pass or fail line, e.g. "✓ in sync".
func Verdict(ok bool, pass, fail string) string {
	if ok {
		return RenderPass(IconPass + " " + pass)
	}
	return RenderFail(IconFail + " " + fail)
}
