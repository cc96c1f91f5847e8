package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/cli"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/logger"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

var mainLog = logger.New("cli:main")

var rootCmd = &cobra.Command{
	Use:   string(constants.CLIExtensionPrefix),
	Short: "Generate, edit, and validate security scan workflows",
	Long: `scanwf keeps a security scan workflow in sync with a small configuration file.

It renders the configuration into GitHub Actions YAML, merges it into the workflow you
already have without touching your own jobs and steps, and checks the result for schema
problems, risky permissions, script injection, and invalid filenames.

Common tasks:
  ` + string(constants.CLIExtensionPrefix) + ` configure     # Choose scan options interactively
  ` + string(constants.CLIExtensionPrefix) + ` generate      # Write the workflow
  ` + string(constants.CLIExtensionPrefix) + ` edit          # Edit the workflow text with live validation
  ` + string(constants.CLIExtensionPrefix) + ` validate      # Check every workflow in the repository`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		return cli.LoadDotEnv(envFile)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().String("env-file", ".env", "Load environment variables from this file if it exists")

	rootCmd.AddGroup(
		&cobra.Group{ID: "setup", Title: "Setup Commands:"},
		&cobra.Group{ID: "development", Title: "Development Commands:"},
		&cobra.Group{ID: "utilities", Title: "Utilities:"},
	)

	configureCmd := cli.NewConfigureCommand()
	configureCmd.GroupID = "setup"
	generateCmd := cli.NewGenerateCommand()
	generateCmd.GroupID = "setup"

	editCmd := cli.NewEditCommand()
	editCmd.GroupID = "development"
	watchCmd := cli.NewWatchCommand()
	watchCmd.GroupID = "development"
	validateCmd := cli.NewValidateCommand()
	validateCmd.GroupID = "development"
	checkFilenameCmd := cli.NewCheckFilenameCommand()
	checkFilenameCmd.GroupID = "development"

	mcpServerCmd := cli.NewMCPServerCommand(version)
	mcpServerCmd.GroupID = "utilities"

	rootCmd.AddCommand(
		configureCmd,
		generateCmd,
		editCmd,
		watchCmd,
		validateCmd,
		checkFilenameCmd,
		mcpServerCmd,
		cli.NewVersionCommand(version),
	)
}

func main() {
	mainLog.Printf("Starting %s %s", constants.CLIExtensionPrefix, version)
	if err := rootCmd.Execute(); err != nil {
		cli.PrintValidationError(err)
		os.Exit(1)
	}
}
