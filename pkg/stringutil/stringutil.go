// Package stringutil provides small string helpers shared across packages.
package stringutil

import "strings"

// Truncate shortens s to at most maxLen bytes, ending in "..." when there is
// room for it. Values of maxLen up to 3 cut without an ellipsis.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// NormalizeWhitespace removes trailing whitespace from every line and
// leaves exactly one trailing newline. Blank content becomes "".
func NormalizeWhitespace(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	out := strings.TrimRight(strings.Join(lines, "\n"), "\n")
	if out == "" {
		return ""
	}
	return out + "\n"
}

// MaskSecret hides all but the first four bytes of a credential. Values of
// eight bytes or fewer are hidden entirely.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// LeadingSpaces counts the spaces that open line. Tabs are not counted.
func LeadingSpaces(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}
