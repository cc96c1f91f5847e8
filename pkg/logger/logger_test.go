//go:build !integration

package logger

import (
	"bytes"
	"context"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, f func()) string {
	t.Helper()
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()
	f()
	return buf.String()
}

func withDebug(t *testing.T, value string) {
	t.Helper()
	orig := debugEnv
	debugEnv = value
	t.Cleanup(func() { debugEnv = orig })
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		debugEnv  string
		namespace string
		enabled   bool
	}{
		{"empty pattern disables all loggers", "", "workflow:merge", false},
		{"wildcard enables all loggers", "*", "workflow:merge", true},
		{"exact match", "workflow:merge", "workflow:merge", true},
		{"exact match different namespace", "workflow:merge", "workflow:prune", false},
		{"namespace wildcard", "workflow:*", "workflow:merge", true},
		{"namespace wildcard deeply nested", "workflow:*", "workflow:sub:merge", true},
		{"namespace wildcard other prefix", "workflow:*", "security:scanner", false},
		{"multiple patterns second matches", "workflow:*,security:*", "security:scanner", true},
		{"exclusion disables specific logger", "workflow:*,-workflow:prune", "workflow:prune", false},
		{"exclusion does not affect others", "workflow:*,-workflow:prune", "workflow:merge", true},
		{"exclusion with wildcard", "*,-workflow:*", "workflow:merge", false},
		{"suffix wildcard", "*:scanner", "security:scanner", true},
		{"middle wildcard", "cli:*:command", "cli:validate:command", true},
		{"middle wildcard no match", "cli:*:command", "cli:validate:output", false},
		{"spaces are trimmed", "workflow:* , security:*", "security:scanner", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withDebug(t, tt.debugEnv)
			l := New(tt.namespace)
			assert.Equal(t, tt.enabled, l.Enabled(), "debug=%q namespace=%q", tt.debugEnv, tt.namespace)
			assert.Equal(t, tt.namespace, l.Namespace())
		})
	}
}

func TestLogger_Printf(t *testing.T) {
	t.Run("enabled logger prints", func(t *testing.T) {
		withDebug(t, "*")
		log := New("workflow:merge")
		out := captureOutput(t, func() { log.Printf("hello %s", "world") })
		assert.Contains(t, out, "workflow:merge")
		assert.Contains(t, out, "hello world")
		assert.Contains(t, out, "+")
	})

	t.Run("disabled logger is silent", func(t *testing.T) {
		withDebug(t, "")
		log := New("workflow:merge")
		out := captureOutput(t, func() { log.Printf("hello %s", "world") })
		assert.Empty(t, out)
	})
}

func TestLogger_Print(t *testing.T) {
	withDebug(t, "*")
	log := New("test:print")
	out := captureOutput(t, func() { log.Print("hello", " ", "world") })
	assert.Contains(t, out, "test:print hello world +")
}

func TestLogger_TimeDiff(t *testing.T) {
	withDebug(t, "*")
	log := New("test:timediff")
	captureOutput(t, func() { log.Printf("first") })
	time.Sleep(10 * time.Millisecond)
	out := captureOutput(t, func() { log.Printf("second") })
	assert.True(t, strings.Contains(out, "ms") || strings.Contains(out, "s"), "expected a duration suffix in %q", out)
}

func TestColorSelection(t *testing.T) {
	origColors, origTTY := debugColors, isTTY
	defer func() { debugColors, isTTY = origColors, origTTY }()

	debugColors, isTTY = true, true
	c1 := selectColor("workflow:merge")
	assert.Equal(t, c1, selectColor("workflow:merge"), "same namespace must get the same color")
	assert.True(t, slices.Contains(colorPalette, c1))

	debugColors, isTTY = false, true
	assert.Empty(t, selectColor("workflow:merge"))

	debugColors, isTTY = true, false
	assert.Empty(t, selectColor("workflow:merge"))
}

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		namespace string
		pattern   string
		want      bool
	}{
		{"a:b", "a:b", true},
		{"a:b", "c:b", false},
		{"a:b", "*", true},
		{"a:b", "a:*", true},
		{"a:b", "*:b", true},
		{"a:b", "*:c", false},
		{"a:x:b", "a:*:b", true},
		{"a:b", "a:b:*:b", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPattern(tt.namespace, tt.pattern), "matchPattern(%q, %q)", tt.namespace, tt.pattern)
	}
}

func TestSlogHandler(t *testing.T) {
	withDebug(t, "mcp:*")
	slogger := NewSlogLogger("mcp:server").With("tool", "validate_workflow").WithGroup("req")
	out := captureOutput(t, func() {
		slogger.Log(context.Background(), slog.LevelInfo, "call", "id", 7)
	})
	assert.Contains(t, out, "[INFO] call")
	assert.Contains(t, out, "tool=validate_workflow")
	assert.Contains(t, out, "req.id=7")
}

func TestSlogHandler_Disabled(t *testing.T) {
	withDebug(t, "")
	h := NewSlogHandler(New("mcp:server"))
	assert.False(t, h.Enabled(context.Background(), slog.LevelError))
}
