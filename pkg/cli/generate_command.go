package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/store"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var generateLog = logger.New("cli:generate_command")

// GenerateOptions holds the options of one generate run.
type GenerateOptions struct {
	ConfigPath string
	Store      StoreOptions
	// DryRun prints the workflow instead of persisting it.
	DryRun  bool
	Verbose bool
}

// GenerateResult describes a generated workflow.
type GenerateResult struct {
	File        string
	Text        string
	Config      workflow.ScanConfig
	Removed     workflow.RemovalLog
	Overflow    workflow.OverflowData
	Diagnostics workflow.Diagnostics

	// ConfigSource is where the configuration came from: the config file,
	// the existing workflow, or the defaults.
	ConfigSource string
}

const (
	configSourceFile     = "config file"
	configSourceWorkflow = "existing workflow"
	configSourceDefaults = "defaults"
)

// generateSummary is the console view of a GenerateResult.
type generateSummary struct {
	File       string   `console:"header:File"`
	Job        string   `console:"header:Security job"`
	Platform   string   `console:"header:Platform"`
	Schedule   string   `console:"header:Schedule,default:none"`
	Errors     int      `console:"header:Errors"`
	Warnings   int      `console:"header:Warnings"`
	Triggers   []string `console:"title:Triggers"`
	Options    []string `console:"title:Enabled options"`
	Preserved  []string `console:"title:Preserved custom fields"`
	ConfigFrom string   `console:"header:Configuration"`
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate or update the security scan workflow from the configuration",
		Long: `Generate the security scan workflow from ` + constants.ConfigFileName + ` and merge it into the
existing workflow file. Jobs, steps, and keys the configuration does not describe are kept.
Disabled options are removed and left behind as comments so they are easy to turn back on.

Without a configuration file, the configuration is read back from the existing workflow,
or the defaults are used.

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` generate                        # Write .github/workflows/security-scan.yml
  ` + string(constants.CLIExtensionPrefix) + ` generate -o scan.yml            # Write a different file
  ` + string(constants.CLIExtensionPrefix) + ` generate --dry-run              # Print the workflow instead of writing it
  ` + string(constants.CLIExtensionPrefix) + ` generate --repo owner/repo      # Commit the workflow to a GitHub repository`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			verbose, _ := cmd.Flags().GetBool("verbose")

			opts := GenerateOptions{
				ConfigPath: configPath,
				Store:      storeOptionsFromFlags(cmd),
				DryRun:     dryRun,
				Verbose:    verbose,
			}
			result, err := RunGenerate(opts)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprint(cmd.OutOrStdout(), result.Text)
			}
			return ReportGenerate(os.Stderr, result, verbose)
		},
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName, "Configuration file")
	cmd.Flags().Bool("dry-run", false, "Print the generated workflow to stdout without writing it")
	addStoreFlags(cmd)

	return cmd
}

// RunGenerate reconciles the configuration with the stored workflow and
// persists the result. The workflow is persisted even when it has blocking
// problems; ReportGenerate turns those into an error.
func RunGenerate(opts GenerateOptions) (*GenerateResult, error) {
	generateLog.Printf("Running generate: config=%s dryRun=%t", opts.ConfigPath, opts.DryRun)

	target, err := OpenStore(opts.Store)
	if err != nil {
		return nil, err
	}
	previous, err := workflowText(target)
	if err != nil {
		return nil, err
	}

	cfg, found, err := LoadScanConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	source := configSourceDefaults
	if found {
		source = configSourceFile
	}
	renderer := workflow.ScanRenderer{}
	if !found && previous != "" {
		if parsed, ok := renderer.Parse(previous, cfg); ok {
			generateLog.Print("Configuration read back from the existing workflow")
			cfg = parsed
			source = configSourceWorkflow
		}
	}

	engineStore := target
	if opts.DryRun {
		engineStore = store.NewMemory(target.Filename(), previous)
	}
	engine, err := workflow.NewEngine(workflow.EngineOptions{Store: engineStore})
	if err != nil {
		return nil, err
	}

	overflow := workflow.TreeOverflowExtractor{Renderer: renderer}.Extract(previous, cfg)
	text, err := engine.Reconcile(cfg, overflow)
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		File:         target.Filename(),
		Text:         text,
		Config:       cfg,
		Removed:      engine.LastRemovals(),
		Overflow:     overflow,
		Diagnostics:  engine.Diagnostics(),
		ConfigSource: source,
	}, nil
}

// ReportGenerate prints the summary, the removed options, and the
// diagnostics of result. It returns an error when the workflow has blocking problems.
func ReportGenerate(w io.Writer, result *GenerateResult, verbose bool) error {
	fmt.Fprint(w, console.RenderStruct(summarizeGenerate(result)))

	if len(result.Removed) > 0 {
		fmt.Fprint(w, console.RenderTable(removedOptionsTable(result.Removed)))
	}
	PrintDiagnostics(w, result.File, result.Diagnostics)

	if !result.Diagnostics.Valid() {
		return fmt.Errorf("%s has %d blocking problem(s)", result.File, result.Diagnostics.ErrorCount())
	}
	fmt.Fprintln(w, console.FormatSuccessMessage("Generated "+result.File))
	console.LogVerbose(verbose, fmt.Sprintf("%d bytes, %d removed fields", len(result.Text), len(result.Removed)))
	return nil
}

func summarizeGenerate(result *GenerateResult) generateSummary {
	cfg := result.Config
	s := generateSummary{
		File:       result.File,
		Job:        cfg.JobName().String(),
		Platform:   cfg.Platform.String(),
		Schedule:   cfg.Schedule,
		Errors:     result.Diagnostics.ErrorCount(),
		Warnings:   result.Diagnostics.WarningCount(),
		Preserved:  result.Overflow.Pointers(),
		ConfigFrom: result.ConfigSource,
	}
	if cfg.Schedule != "" {
		s.Schedule = cfg.Schedule + " (" + parser.DescribeCron(cfg.Schedule) + ")"
	}
	if doc, err := document.ParseMapping(result.Text); err == nil {
		if on, ok := doc.Get("on"); ok {
			s.Triggers = on.Keys()
		}
		if key, ok := workflow.FindSecurityJob(doc); ok {
			s.Job = key
		}
		if job, ok := doc.Lookup("jobs", s.Job); ok {
			if _, step, ok := workflow.ScanStep(job); ok {
				if with, ok := step.Get("with"); ok {
					for _, k := range with.Keys() {
						if k != constants.CredentialField {
							s.Options = append(s.Options, console.HumanizeKey(k))
						}
					}
				}
			}
		}
	}
	return s
}

func removedOptionsTable(removed workflow.RemovalLog) console.TableConfig {
	rows := make([][]string, 0, len(removed))
	for _, r := range removed {
		value := fmt.Sprint(r.Value)
		if r.Key == constants.CredentialField {
			value = "(not needed)"
		}
		rows = append(rows, []string{console.HumanizeKey(r.Key), strings.Join(r.Path, "."), value})
	}
	return console.TableConfig{
		Title:   "Removed options",
		Headers: []string{"Option", "Location", "Value"},
		Rows:    rows,
	}
}
