// Package console formats user-facing terminal output: status messages,
// compiler-style diagnostics, tables, and struct summaries.
//
// Styling goes through lipgloss, which drops colors automatically when the
// output is not a terminal. Every formatter returns a string; callers decide
// which stream to write it to (messages go to stderr, data to stdout).
package console

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scanwf/scanwf/pkg/logger"
)

var consoleLog = logger.New("console:console")

// Adaptive colors readable on light and dark terminals.
var (
	ColorError   = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#FF7B72"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
)

var (
	errorStyle    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(ColorWarning).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	infoStyle     = lipgloss.NewStyle().Foreground(ColorInfo)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	locationStyle = lipgloss.NewStyle().Bold(true)
	commandStyle  = lipgloss.NewStyle().Foreground(ColorInfo).Bold(true)
)

// IsAccessibleMode reports whether output should avoid animations and
// rely on plain prompts, as requested through ACCESSIBLE or TERM=dumb.
func IsAccessibleMode() bool {
	return os.Getenv("ACCESSIBLE") != "" || os.Getenv("TERM") == "dumb" || os.Getenv("NO_COLOR") != ""
}

// FormatSuccessMessage formats a success message.
func FormatSuccessMessage(message string) string {
	return successStyle.Render("✓ ") + message
}

// FormatInfoMessage formats an informational message.
func FormatInfoMessage(message string) string {
	return infoStyle.Render("ℹ ") + message
}

// FormatWarningMessage formats a warning message.
func FormatWarningMessage(message string) string {
	return warningStyle.Render("⚠ ") + message
}

// FormatErrorMessage formats an error message.
func FormatErrorMessage(message string) string {
	return errorStyle.Render("✗ ") + message
}

// FormatCommandMessage formats a command the user can run.
func FormatCommandMessage(command string) string {
	return commandStyle.Render("$ " + command)
}

// FormatVerboseMessage formats a debug-level message shown with --verbose.
func FormatVerboseMessage(message string) string {
	return mutedStyle.Render("  " + message)
}

// FormatListItem formats one bullet of a list.
func FormatListItem(item string) string {
	return "  • " + item
}

// LogVerbose writes message to stderr when verbose is set.
func LogVerbose(verbose bool, message string) {
	if verbose {
		fmt.Fprintln(os.Stderr, FormatVerboseMessage(message))
	}
}

// ErrorPosition locates a diagnostic in a file. Zero Line or Column means unknown.
type ErrorPosition struct {
	File   string
	Line   int
	Column int
}

func (p ErrorPosition) String() string {
	var sb strings.Builder
	sb.WriteString(p.File)
	if p.Line > 0 {
		fmt.Fprintf(&sb, ":%d", p.Line)
		if p.Column > 0 {
			fmt.Fprintf(&sb, ":%d", p.Column)
		}
	}
	return sb.String()
}

// CompilerError is a diagnostic rendered in the file:line:col style editors
// and terminals recognize. Type is "error" or "warning".
type CompilerError struct {
	Position ErrorPosition
	Type     string
	Message  string
	// Rule names the check that produced the diagnostic, if any.
	Rule string
	// Hint is an optional suggestion printed on its own line.
	Hint string
}

// FormatError renders err as
//
//	file:line:col: error: message [rule]
//	  hint: ...
func FormatError(err CompilerError) string {
	consoleLog.Printf("Formatting %s at %s", err.Type, err.Position)

	var sb strings.Builder
	if loc := err.Position.String(); loc != "" {
		sb.WriteString(locationStyle.Render(loc + ":"))
		sb.WriteString(" ")
	}
	switch err.Type {
	case "warning":
		sb.WriteString(warningStyle.Render("warning:"))
	default:
		sb.WriteString(errorStyle.Render("error:"))
	}
	sb.WriteString(" ")
	sb.WriteString(err.Message)
	if err.Rule != "" {
		sb.WriteString(" ")
		sb.WriteString(mutedStyle.Render("[" + err.Rule + "]"))
	}
	if err.Hint != "" {
		sb.WriteString("\n  ")
		sb.WriteString(infoStyle.Render("hint:"))
		sb.WriteString(" ")
		sb.WriteString(err.Hint)
	}
	return sb.String()
}
