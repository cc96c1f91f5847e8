package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/workflow"
)

// FormatValidationError formats an error for console output. Multi-line
// errors keep their structure.
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}
	return console.FormatErrorMessage(err.Error())
}

// PrintValidationError prints a validation error to stderr with console formatting.
func PrintValidationError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatValidationError(err))
}

// PrintDiagnostics writes one formatted line per diagnostic to w.
func PrintDiagnostics(w io.Writer, file string, d workflow.Diagnostics) {
	for _, ce := range d.CompilerErrors(file) {
		fmt.Fprintln(w, console.FormatError(ce))
	}
}

// summarizeDiagnostics returns the one-line verdict printed after a file's diagnostics.
func summarizeDiagnostics(file string, d workflow.Diagnostics) string {
	errs, warns := d.ErrorCount(), d.WarningCount()
	switch {
	case errs > 0:
		return console.FormatErrorMessage(fmt.Sprintf("%s: %d error(s), %d warning(s)", file, errs, warns))
	case warns > 0:
		return console.FormatWarningMessage(fmt.Sprintf("%s: valid with %d warning(s)", file, warns))
	default:
		return console.FormatSuccessMessage(file + ": valid")
	}
}
