package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/editor"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/tty"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var editLog = logger.New("cli:edit_command")

// NewEditCommand creates the edit command
func NewEditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the workflow text in a terminal editor with live validation",
		Long: `Open the workflow in a terminal editor. Every change is validated as you type, and
settings recognized in the text flow back into the configuration. Saving is refused
while the workflow has blocking problems; discarding restores the last valid text.

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` edit                 # Edit .github/workflows/security-scan.yml
  ` + string(constants.CLIExtensionPrefix) + ` edit -o scan.yml     # Edit another workflow file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			if !tty.IsStdinTerminal() || !tty.IsStdoutTerminal() {
				return fmt.Errorf("edit needs an interactive terminal")
			}
			return RunEdit(configPath, storeOptionsFromFlags(cmd))
		},
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName, "Configuration file")
	addStoreFlags(cmd)

	return cmd
}

// RunEdit runs the editor and saves the configuration parsed from the
// committed text back to configPath.
func RunEdit(configPath string, storeOpts StoreOptions) error {
	target, err := OpenStore(storeOpts)
	if err != nil {
		return err
	}
	cfg, found, err := LoadScanConfig(configPath)
	if err != nil {
		return err
	}
	engine, err := workflow.NewEngine(workflow.EngineOptions{Store: target})
	if err != nil {
		return err
	}

	final, err := editor.Run(editor.Options{Engine: engine, Config: cfg})
	if err != nil {
		return err
	}
	if !final.Committed() {
		editLog.Print("Editor closed without saving")
		return nil
	}

	fmt.Fprintln(os.Stderr, console.FormatSuccessMessage("Saved "+target.Filename()))
	updated := final.Controller().Config()
	if found && !updated.Equal(cfg) {
		if err := SaveScanConfig(configPath, updated); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, console.FormatInfoMessage("Updated "+configPath+" from the edited workflow"))
	}
	return nil
}
