package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/filename"
	"github.com/scanwf/scanwf/pkg/logger"
)

var checkFilenameLog = logger.New("cli:check_filename_command")

// ErrInvalidFilename is returned by check-filename for a name with problems.
var ErrInvalidFilename = errors.New("invalid workflow filename")

// FilenameReport is the result of checking one filename.
type FilenameReport struct {
	Name       string   `json:"name"`
	Valid      bool     `json:"valid"`
	Problems   []string `json:"problems,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// CheckFilename checks name and suggests a correction when it is invalid.
func CheckFilename(name string) FilenameReport {
	report := FilenameReport{Name: name, Valid: true}
	for _, p := range filename.Check(name) {
		report.Problems = append(report.Problems, p.Message)
	}
	if len(report.Problems) > 0 {
		report.Valid = false
		report.Suggestion = filename.SuggestCorrection(name)
	}
	checkFilenameLog.Printf("Checked %q: valid=%t", name, report.Valid)
	return report
}

// NewCheckFilenameCommand creates the check-filename command
func NewCheckFilenameCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-filename <name>",
		Short: "Check a workflow filename and suggest a valid one",
		Long: `Check a workflow output filename against the naming rules: a lowercase .yml or .yaml
extension, a non-empty base name that does not start with a dot, and only letters,
digits, '.', '_' and '-'. Invalid names get a suggested correction.

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` check-filename security-scan.yml
  ` + string(constants.CLIExtensionPrefix) + ` check-filename "My Scan.YML"
  ` + string(constants.CLIExtensionPrefix) + ` check-filename scan --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			return RunCheckFilename(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output the result in JSON format")
	return cmd
}

// RunCheckFilename prints the report for name and returns ErrInvalidFilename
// when it has problems.
func RunCheckFilename(out, errOut io.Writer, name string, jsonOutput bool) error {
	report := CheckFilename(name)
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else if report.Valid {
		fmt.Fprintln(errOut, console.FormatSuccessMessage(fmt.Sprintf("%q is a valid workflow filename", name)))
	} else {
		for _, p := range report.Problems {
			fmt.Fprintln(errOut, console.FormatErrorMessage(p))
		}
		fmt.Fprintln(errOut, console.FormatInfoMessage("Suggested name: "+report.Suggestion))
	}
	if !report.Valid {
		return ErrInvalidFilename
	}
	return nil
}
