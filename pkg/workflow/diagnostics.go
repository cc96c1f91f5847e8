package workflow

import (
	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/filename"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/security"
	"github.com/scanwf/scanwf/pkg/types"
)

// Diagnostics is the combined output of the three validators for one text
// and filename. The verdict is always derived from it, never stored.
type Diagnostics struct {
	Validation []parser.ValidationError   `json:"validation"`
	Security   []security.Warning         `json:"security"`
	Filename   []filename.ValidationError `json:"filename"`
}

// Valid reports whether the text may be persisted: no error-severity
// validation error, no error-severity security finding, and no filename problem.
func (d Diagnostics) Valid() bool {
	return d.ErrorCount() == 0
}

// StructurallyValid reports whether the text parsed and passed the schema.
// Security findings and filename problems do not affect it.
func (d Diagnostics) StructurallyValid() bool {
	for _, v := range d.Validation {
		if v.Severity.Blocking() {
			return false
		}
	}
	return true
}

// ErrorCount counts blocking problems across all validators.
func (d Diagnostics) ErrorCount() int {
	n := len(d.Filename)
	for _, v := range d.Validation {
		if v.Severity.Blocking() {
			n++
		}
	}
	for _, w := range d.Security {
		if w.Severity.Blocking() {
			n++
		}
	}
	return n
}

// WarningCount counts non-blocking findings.
func (d Diagnostics) WarningCount() int {
	n := 0
	for _, v := range d.Validation {
		if v.Severity == types.SeverityWarning {
			n++
		}
	}
	for _, w := range d.Security {
		if w.Severity == types.SeverityWarning {
			n++
		}
	}
	return n
}

// CompilerErrors flattens the diagnostics for console output: filename
// problems first, then structural problems, then security findings, each in
// the order the validator reported them.
func (d Diagnostics) CompilerErrors(file string) []console.CompilerError {
	out := make([]console.CompilerError, 0, len(d.Filename)+len(d.Validation)+len(d.Security))
	for _, f := range d.Filename {
		out = append(out, console.CompilerError{
			Position: console.ErrorPosition{File: file},
			Type:     string(types.SeverityError),
			Message:  f.Message,
			Rule:     "filename",
		})
	}
	for _, v := range d.Validation {
		out = append(out, console.CompilerError{
			Position: console.ErrorPosition{File: file, Line: v.Line, Column: v.Column},
			Type:     v.Severity.String(),
			Message:  v.Message,
			Rule:     v.Type,
		})
	}
	for _, w := range d.Security {
		ce := console.CompilerError{
			Position: console.ErrorPosition{File: file, Line: w.Line},
			Type:     w.Severity.String(),
			Message:  w.Message,
			Rule:     w.Rule,
		}
		if w.Field != "" {
			ce.Hint = "field: " + w.Field
		}
		out = append(out, ce)
	}
	return out
}
