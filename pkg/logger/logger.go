package logger

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/scanwf/scanwf/pkg/timeutil"
	"github.com/scanwf/scanwf/pkg/tty"
)

// Logger represents a debug logger for a specific namespace.
type Logger struct {
	namespace string
	enabled   bool
	lastLog   time.Time
	mu        sync.Mutex
	color     string
}

var (
	// Debug pattern list, read once at initialization. SCANWF_DEBUG takes
	// precedence over the generic DEBUG variable.
	debugEnv = firstNonEmpty(os.Getenv("SCANWF_DEBUG"), os.Getenv("DEBUG"))

	// DEBUG_COLORS environment variable to control color output.
	debugColors = os.Getenv("DEBUG_COLORS") != "0"

	// Check if stderr is a terminal (for color support).
	isTTY = tty.IsStderrTerminal()

	// Destination for all debug lines.
	output io.Writer = os.Stderr
	outMu  sync.Mutex

	// Readable on both light and dark backgrounds (ANSI 256-color codes).
	colorPalette = []string{
		"\033[38;5;33m",  // Blue
		"\033[38;5;35m",  // Green
		"\033[38;5;166m", // Orange
		"\033[38;5;125m", // Purple
		"\033[38;5;37m",  // Cyan
		"\033[38;5;161m", // Magenta
		"\033[38;5;136m", // Yellow
		"\033[38;5;63m",  // Light blue
	}

	colorReset = "\033[0m"
)

// New creates a new Logger for the given namespace.
// The enabled state is computed at construction time from SCANWF_DEBUG (or DEBUG).
// Pattern syntax follows the npm debug package:
//
//	SCANWF_DEBUG=*                - enables all loggers
//	SCANWF_DEBUG=workflow:*       - enables all loggers in a namespace
//	SCANWF_DEBUG=ns1,ns2          - enables specific namespaces
//	SCANWF_DEBUG=ns:*,-ns:skip    - enables namespace but excludes specific patterns
//
// Colors are assigned per namespace when DEBUG_COLORS != "0" and stderr is a TTY.
func New(namespace string) *Logger {
	return &Logger{
		namespace: namespace,
		enabled:   computeEnabled(namespace),
		lastLog:   time.Now(),
		color:     selectColor(namespace),
	}
}

// SetOutput redirects debug output and returns a function restoring the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	outMu.Lock()
	prev := output
	output = w
	outMu.Unlock()
	return func() {
		outMu.Lock()
		output = prev
		outMu.Unlock()
	}
}

func selectColor(namespace string) string {
	if !debugColors || !isTTY {
		return ""
	}
	h := fnv.New32a()
	if _, err := h.Write([]byte(namespace)); err != nil {
		return ""
	}
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}

// Enabled returns whether this logger is enabled
func (l *Logger) Enabled() bool {
	return l.enabled
}

// Namespace returns the namespace the logger was created with.
func (l *Logger) Namespace() string {
	return l.namespace
}

// Printf prints a formatted message if the logger is enabled.
// The time elapsed since the previous line is appended like the debug npm package.
func (l *Logger) Printf(format string, args ...any) {
	if !l.enabled {
		return
	}
	l.emit(fmt.Sprintf(format, args...))
}

// Print prints a message if the logger is enabled.
func (l *Logger) Print(args ...any) {
	if !l.enabled {
		return
	}
	l.emit(fmt.Sprint(args...))
}

func (l *Logger) emit(message string) {
	l.mu.Lock()
	now := time.Now()
	diff := now.Sub(l.lastLog)
	l.lastLog = now
	l.mu.Unlock()

	name := l.namespace
	if l.color != "" {
		name = l.color + l.namespace + colorReset
	}

	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprintf(output, "%s %s +%s\n", name, message, timeutil.FormatDuration(diff))
}

// computeEnabled reports whether a namespace matches the configured debug patterns
func computeEnabled(namespace string) bool {
	enabled := false
	for _, pattern := range strings.Split(debugEnv, ",") {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if excluded, ok := strings.CutPrefix(pattern, "-"); ok {
			if matchPattern(namespace, excluded) {
				return false
			}
			continue
		}
		if matchPattern(namespace, pattern) {
			enabled = true
		}
	}
	return enabled
}

// matchPattern supports a single * wildcard at the start, end, or middle of a pattern.
func matchPattern(namespace, pattern string) bool {
	if pattern == "*" || pattern == namespace {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(namespace, prefix)
	}
	if suffix, ok := strings.CutPrefix(pattern, "*"); ok {
		return strings.HasSuffix(namespace, suffix)
	}
	prefix, suffix, _ := strings.Cut(pattern, "*")
	return len(namespace) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(namespace, prefix) && strings.HasSuffix(namespace, suffix)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
