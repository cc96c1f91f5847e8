package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var configureLog = logger.New("cli:configure_command")

// configureForm holds the form state for one ScanConfig.
type configureForm struct {
	name       string
	platform   string
	runsOn     string
	branches   string
	schedule   string
	manual     bool
	paths      string
	severity   string
	breakBuild string
	options    []string
	token      string
}

// Post-scan options in the order the form lists them.
var postScanOptions = []string{
	constants.InputDecoratePullRequests,
	constants.InputFixPullRequests,
	constants.InputCreateSARIFFile,
	constants.InputUploadToGitHub,
}

func newConfigureForm(cfg workflow.ScanConfig) *configureForm {
	cfg = cfg.WithDefaults()
	f := &configureForm{
		name:       cfg.Name,
		platform:   cfg.Platform.String(),
		runsOn:     cfg.RunsOn,
		branches:   strings.Join(cfg.Branches, ", "),
		schedule:   cfg.Schedule,
		manual:     cfg.ManualDispatch,
		paths:      strings.Join(cfg.ScanPaths, ", "),
		severity:   cfg.Severity,
		breakBuild: cfg.BreakBuild,
		token:      cfg.Token,
	}
	enabled := map[string]bool{
		constants.InputDecoratePullRequests: cfg.DecoratePullRequests,
		constants.InputFixPullRequests:      cfg.FixPullRequests,
		constants.InputCreateSARIFFile:      cfg.CreateSARIFFile,
		constants.InputUploadToGitHub:       cfg.UploadToGitHub,
	}
	for _, opt := range postScanOptions {
		if enabled[opt] {
			f.options = append(f.options, opt)
		}
	}
	return f
}

// apply copies the form state over base. Fields the form does not show, such
// as Env, are kept.
func (f *configureForm) apply(base workflow.ScanConfig) workflow.ScanConfig {
	cfg := base.Clone()
	cfg.Name = strings.TrimSpace(f.name)
	cfg.Platform = constants.Platform(f.platform)
	cfg.RunsOn = strings.TrimSpace(f.runsOn)
	cfg.Branches = splitList(f.branches)
	cfg.Schedule = strings.TrimSpace(f.schedule)
	cfg.ManualDispatch = f.manual
	cfg.ScanPaths = splitList(f.paths)
	cfg.Severity = f.severity
	cfg.BreakBuild = f.breakBuild
	cfg.DecoratePullRequests = slices.Contains(f.options, constants.InputDecoratePullRequests)
	cfg.FixPullRequests = slices.Contains(f.options, constants.InputFixPullRequests)
	cfg.CreateSARIFFile = slices.Contains(f.options, constants.InputCreateSARIFFile)
	cfg.UploadToGitHub = slices.Contains(f.options, constants.InputUploadToGitHub)
	cfg.Token = strings.TrimSpace(f.token)
	return cfg.WithDefaults()
}

// splitList splits a comma separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateSchedule(s string) error {
	if s = strings.TrimSpace(s); s != "" && !parser.IsCronExpression(s) {
		return errors.New("enter a five-field cron expression, for example 0 3 * * 1")
	}
	return nil
}

func (f *configureForm) build() *huh.Form {
	platforms := make([]huh.Option[string], 0, len(constants.Platforms))
	for _, p := range constants.Platforms {
		platforms = append(platforms, huh.NewOption(fmt.Sprintf("%s (job %s)", p, p.JobName()), p.String()))
	}
	severities := []huh.Option[string]{huh.NewOption("action default", "")}
	for _, s := range workflow.ValidSeverities {
		severities = append(severities, huh.NewOption(s, s))
	}
	breakModes := []huh.Option[string]{huh.NewOption("action default (failure)", "")}
	for _, m := range workflow.ValidBreakBuildModes {
		breakModes = append(breakModes, huh.NewOption(m, m))
	}
	options := make([]huh.Option[string], 0, len(postScanOptions))
	for _, opt := range postScanOptions {
		options = append(options, huh.NewOption(console.HumanizeKey(opt), opt).Selected(slices.Contains(f.options, opt)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Workflow name").Value(&f.name),
			huh.NewSelect[string]().Title("CI platform").Options(platforms...).Value(&f.platform),
			huh.NewInput().Title("Runner").Description("runs-on label, for example ubuntu-latest").Value(&f.runsOn),
		).Title("Workflow"),
		huh.NewGroup(
			huh.NewInput().Title("Branches").Description("Comma separated").Value(&f.branches),
			huh.NewInput().Title("Schedule").Description("Cron expression, empty for none").Value(&f.schedule).Validate(validateSchedule),
			huh.NewConfirm().Title("Allow manual runs?").Value(&f.manual),
		).Title("Triggers"),
		huh.NewGroup(
			huh.NewInput().Title("Paths to scan").Description("Comma separated, empty for the whole repository").Value(&f.paths),
			huh.NewSelect[string]().Title("Minimum severity").Options(severities...).Value(&f.severity),
			huh.NewSelect[string]().Title("Break the build").Options(breakModes...).Value(&f.breakBuild),
			huh.NewMultiSelect[string]().Title("After the scan").Options(options...).Value(&f.options),
			huh.NewInput().Title("Token").Description("Expression for the access token, empty for "+constants.DefaultToken).Value(&f.token),
		).Title("Scan"),
	).WithAccessible(console.IsAccessibleMode())
}

// NewConfigureCommand creates the configure command
func NewConfigureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Edit the scan configuration interactively",
		Long: `Edit ` + constants.ConfigFileName + ` with an interactive form, save it, and regenerate
the workflow. Set ACCESSIBLE=1 for a screen-reader friendly prompt.

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` configure                 # Edit the configuration and regenerate
  ` + string(constants.CLIExtensionPrefix) + ` configure --no-generate   # Only save the configuration`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			noGenerate, _ := cmd.Flags().GetBool("no-generate")
			verbose, _ := cmd.Flags().GetBool("verbose")

			cfg, _, err := LoadScanConfig(configPath)
			if err != nil {
				return err
			}
			form := newConfigureForm(cfg)
			if err := form.build().Run(); err != nil {
				return fmt.Errorf("configuration form cancelled: %w", err)
			}
			cfg = form.apply(cfg)
			configureLog.Printf("Form submitted: platform=%s options=%v", cfg.Platform, form.options)

			if err := SaveScanConfig(configPath, cfg); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, console.FormatSuccessMessage("Saved "+configPath))
			if noGenerate {
				fmt.Fprintln(os.Stderr, console.FormatCommandMessage(string(constants.CLIExtensionPrefix)+" generate"))
				return nil
			}

			result, err := RunGenerate(GenerateOptions{
				ConfigPath: configPath,
				Store:      storeOptionsFromFlags(cmd),
				Verbose:    verbose,
			})
			if err != nil {
				return err
			}
			return ReportGenerate(os.Stderr, result, verbose)
		},
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName, "Configuration file")
	cmd.Flags().Bool("no-generate", false, "Save the configuration without regenerating the workflow")
	addStoreFlags(cmd)

	return cmd
}
