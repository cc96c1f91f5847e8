package parser

import (
	"io"

	"github.com/rhysd/actionlint"

	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/types"
)

var actionlintLog = logger.New("parser:actionlint")

// actionlintWarnings lints text with actionlint and reports every finding
// as a warning. Linter setup failures are logged and yield no findings.
func actionlintWarnings(text string) []ValidationError {
	linter, err := actionlint.NewLinter(io.Discard, &actionlint.LinterOptions{LogWriter: io.Discard})
	if err != nil {
		actionlintLog.Printf("Failed to create linter: %v", err)
		return nil
	}
	errs, err := linter.Lint("<stdin>", []byte(text), nil)
	if err != nil {
		actionlintLog.Printf("Lint failed: %v", err)
		return nil
	}

	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		out = append(out, ValidationError{
			Message:  e.Message,
			Severity: types.SeverityWarning,
			Line:     e.Line,
			Column:   e.Column,
			Type:     "actionlint:" + e.Kind,
		})
	}
	actionlintLog.Printf("actionlint reported %d findings", len(out))
	return out
}
