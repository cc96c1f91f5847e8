package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/sourcegraph/conc/iter"
	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/envutil"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/store"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var validateLog = logger.New("cli:validate_command")

// ValidateConfig holds the options of a batch validation run.
type ValidateConfig struct {
	Files      []string
	Dir        string
	JSONOutput bool
	FailFast   bool
	Workers    int
	Verbose    bool
}

// FileResult is the outcome of validating one file.
type FileResult struct {
	File        string               `json:"file"`
	Skipped     bool                 `json:"skipped,omitempty"`
	Valid       bool                 `json:"valid"`
	Diagnostics workflow.Diagnostics `json:"diagnostics"`
	Error       string               `json:"error,omitempty"`

	err error
}

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]...",
		Short: "Validate workflow files without changing them",
		Long: `Validate one or more workflow files with the structural validator, the security
scanner, and the filename rules. Files are validated in parallel.

If no files are given, every .yml and .yaml file in the workflow directory is validated.
Action definitions (action.yml) are skipped.

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` validate                                  # Validate all workflows
  ` + string(constants.CLIExtensionPrefix) + ` validate .github/workflows/scan.yml       # Validate one file
  ` + string(constants.CLIExtensionPrefix) + ` validate --dir ci/workflows               # Validate a custom directory
  ` + string(constants.CLIExtensionPrefix) + ` validate --json                           # Output results in JSON format
  ` + string(constants.CLIExtensionPrefix) + ` validate --fail-fast                      # Stop at the first invalid file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			failFast, _ := cmd.Flags().GetBool("fail-fast")
			workers, _ := cmd.Flags().GetInt("workers")
			verbose, _ := cmd.Flags().GetBool("verbose")

			validateLog.Printf("Running validate command: files=%v, dir=%s", args, dir)
			config := ValidateConfig{
				Files:      args,
				Dir:        dir,
				JSONOutput: jsonOutput,
				FailFast:   failFast,
				Workers:    workers,
				Verbose:    verbose,
			}
			results, err := ValidateWorkflows(config)
			if err != nil {
				return err
			}
			return ReportValidation(cmd.OutOrStdout(), os.Stderr, results, config)
		},
	}

	cmd.Flags().StringP("dir", "d", "", "Workflow directory (default: .github/workflows)")
	cmd.Flags().BoolP("json", "j", false, "Output results in JSON format")
	cmd.Flags().Bool("fail-fast", false, "Stop at the first invalid file instead of reporting all of them")
	cmd.Flags().IntP("workers", "w", 0, "Number of files validated in parallel (default: $"+constants.ValidateWorkersEnvVar+" or 4)")

	return cmd
}

// ValidateWorkflows validates the configured files in parallel. Results come
// back in input order. The returned error covers setup failures only; per-file
// problems are reported in the results.
func ValidateWorkflows(config ValidateConfig) ([]FileResult, error) {
	files := config.Files
	if len(files) == 0 {
		var err error
		files, err = findWorkflowFiles(config.Dir)
		if err != nil {
			return nil, err
		}
	}
	if len(files) == 0 {
		validateLog.Print("No workflow files to validate")
		return nil, nil
	}

	engine, err := workflow.NewEngine(workflow.EngineOptions{Store: store.NewMemory(constants.DefaultFilename, "")})
	if err != nil {
		return nil, err
	}

	workers := config.Workers
	if workers <= 0 {
		workers = envutil.GetIntFromEnv(constants.ValidateWorkersEnvVar, constants.DefaultValidateWorkers, 1, 64, validateLog)
	}
	validateLog.Printf("Validating %d files with %d workers", len(files), workers)

	mapper := iter.Mapper[string, FileResult]{MaxGoroutines: workers}
	return mapper.Map(files, func(path *string) FileResult {
		return validateFile(engine, *path)
	}), nil
}

func validateFile(engine *workflow.Engine, path string) FileResult {
	result := FileResult{File: path}
	content, err := os.ReadFile(path)
	if err != nil {
		result.err = fmt.Errorf("failed to read %s: %w", path, err)
		result.Error = result.err.Error()
		return result
	}
	if parser.IsActionDefinitionFile(path, content) {
		validateLog.Printf("Skipping action definition: %s", path)
		result.Skipped = true
		result.Valid = true
		return result
	}
	result.Diagnostics = engine.Validate(string(content), filepath.Base(path))
	result.Valid = result.Diagnostics.Valid()
	if !result.Valid {
		result.err = fmt.Errorf("%s: %d blocking problem(s)", path, result.Diagnostics.ErrorCount())
	}
	return result
}

// findWorkflowFiles lists the workflow files of dir in name order.
func findWorkflowFiles(dir string) ([]string, error) {
	if dir == "" {
		dir = constants.GetWorkflowDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow directory %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !parser.IsYAMLWorkflowFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// ReportValidation prints results and returns an error when any file is
// invalid. JSON goes to out; human output goes to errOut.
func ReportValidation(out, errOut io.Writer, results []FileResult, config ValidateConfig) error {
	collector := workflow.NewErrorCollector(config.FailFast)

	if config.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		for _, r := range results {
			if err := collector.Add(r.err); err != nil {
				return err
			}
		}
		return collector.FormattedError("validation")
	}

	if len(results) == 0 {
		fmt.Fprintln(errOut, console.FormatInfoMessage("No workflow files found"))
		return nil
	}

	for _, r := range results {
		switch {
		case r.Skipped:
			if config.Verbose {
				fmt.Fprintln(errOut, console.FormatVerboseMessage("skipped action definition "+r.File))
			}
			continue
		case r.Error != "":
			fmt.Fprintln(errOut, console.FormatErrorMessage(r.Error))
		default:
			PrintDiagnostics(errOut, r.File, r.Diagnostics)
			fmt.Fprintln(errOut, summarizeDiagnostics(r.File, r.Diagnostics))
		}
		if err := collector.Add(r.err); err != nil {
			return err
		}
	}
	return collector.FormattedError("validation")
}
