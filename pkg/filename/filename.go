// Package filename checks workflow output filenames and rewrites invalid
// ones into valid names.
//
// A valid name:
//
//   - ends in .yml or .yaml (lowercase)
//   - has a non-empty base name before the extension
//   - does not start with a dot
//   - uses only ASCII letters, digits, '.', '_' and '-'
//   - is at most constants.MaxFilenameLength bytes long
package filename

import (
	"fmt"
	"strings"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/logger"
)

var log = logger.New("filename:filename")

var allowedExtensions = []string{".yml", ".yaml"}

// ValidationError is one naming violation. Every violation blocks saving.
type ValidationError struct {
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

// Check returns the violations of name in a fixed order. A valid name yields nil.
func Check(name string) []ValidationError {
	if name == "" {
		return []ValidationError{{Message: "filename is required and cannot be empty"}}
	}

	var errs []ValidationError
	add := func(format string, args ...any) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf(format, args...)})
	}

	ext := extension(name)
	if ext == "" {
		add("filename %q must end in .yml or .yaml", name)
	} else if len(name) == len(ext) {
		add("filename %q has no name before the extension", name)
	}
	if strings.HasPrefix(name, ".") {
		add("filename %q must not start with a dot", name)
	}
	if bad := disallowedRunes(name); bad != "" {
		add("filename %q contains disallowed characters %q (allowed: letters, digits, '.', '_', '-')", name, bad)
	}
	if len(name) > constants.MaxFilenameLength {
		add("filename is %d bytes long, the maximum is %d", len(name), constants.MaxFilenameLength)
	}

	if len(errs) > 0 {
		log.Printf("Filename %q has %d problems", name, len(errs))
	}
	return errs
}

// SuggestCorrection rewrites name into a valid filename. Whitespace becomes
// '-', other disallowed characters and leading dots are dropped, a missing
// extension becomes .yml, and an empty result falls back to a default name.
// Valid names are returned unchanged.
func SuggestCorrection(name string) string {
	name = strings.TrimSpace(name)

	ext := allowedExtensions[0]
	stem := name
	for _, candidate := range allowedExtensions {
		if n := len(name) - len(candidate); n >= 0 && strings.EqualFold(name[n:], candidate) {
			ext, stem = candidate, name[:n]
			break
		}
	}

	var b strings.Builder
	for _, r := range stem {
		switch {
		case allowed(r):
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteByte('-')
		}
	}
	clean := strings.TrimLeft(b.String(), ".")
	if clean == "" {
		clean = constants.FallbackFilename
	}
	if limit := constants.MaxFilenameLength - len(ext); len(clean) > limit {
		clean = clean[:limit]
	}

	out := clean + ext
	if out != name {
		log.Printf("Suggested %q for %q", out, name)
	}
	return out
}

// extension returns the allowed extension name ends in, or "".
func extension(name string) string {
	for _, ext := range allowedExtensions {
		if strings.HasSuffix(name, ext) {
			return ext
		}
	}
	return ""
}

func allowed(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
		r == '.' || r == '_' || r == '-'
}

// disallowedRunes returns each disallowed character of s once, in order of appearance.
func disallowedRunes(s string) string {
	var b strings.Builder
	seen := map[rune]bool{}
	for _, r := range s {
		if !allowed(r) && !seen[r] {
			seen[r] = true
			b.WriteRune(r)
		}
	}
	return b.String()
}
