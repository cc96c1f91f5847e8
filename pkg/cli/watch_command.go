package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/editsync"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/store"
	"github.com/scanwf/scanwf/pkg/stringutil"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var watchLog = logger.New("cli:watch_command")

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the workflow and regenerate it when files change",
		Long: `Watch the workflow file and the configuration file. When the workflow is edited outside
of scanwf it is validated again and its settings are read back. When the configuration file
changes, the workflow is regenerated.

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` watch                 # Watch .github/workflows/security-scan.yml
  ` + string(constants.CLIExtensionPrefix) + ` watch -o scan.yml     # Watch another workflow file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			dir, _ := cmd.Flags().GetString("dir")
			name, _ := cmd.Flags().GetString("output")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			w, err := NewFileWatcher(configPath, dir, name, os.Stderr)
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}

	cmd.Flags().StringP("config", "c", constants.ConfigFileName, "Configuration file")
	cmd.Flags().StringP("dir", "d", "", "Workflow directory (default: .github/workflows)")
	cmd.Flags().StringP("output", "o", constants.DefaultFilename, "Workflow filename")

	return cmd
}

// FileWatcher feeds file system changes into an editsync.Controller. All
// events are handled on the goroutine that calls Run.
type FileWatcher struct {
	ctrl         *editsync.Controller
	workflowPath string
	configPath   string
	out          io.Writer
}

// NewFileWatcher creates a watcher for the workflow name in dir and the
// configuration at configPath.
func NewFileWatcher(configPath, dir, name string, out io.Writer) (*FileWatcher, error) {
	fileStore, err := store.NewFile(dir, name)
	if err != nil {
		return nil, err
	}
	cfg, _, err := LoadScanConfig(configPath)
	if err != nil {
		return nil, err
	}
	engine, err := workflow.NewEngine(workflow.EngineOptions{Store: fileStore})
	if err != nil {
		return nil, err
	}
	ctrl, err := editsync.New(cfg, editsync.Options{Engine: engine})
	if err != nil {
		return nil, err
	}
	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", configPath, err)
	}
	return &FileWatcher{
		ctrl:         ctrl,
		workflowPath: fileStore.Path(),
		configPath:   absConfig,
		out:          out,
	}, nil
}

// Controller returns the controller the watcher drives.
func (w *FileWatcher) Controller() *editsync.Controller { return w.ctrl }

// Run watches until ctx is done.
func (w *FileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch directories rather than files so that editors that save by
	// renaming a temporary file are still seen.
	for _, dir := range uniqueDirs(w.workflowPath, w.configPath) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watchLog.Printf("Watching %s", dir)
	}
	fmt.Fprintln(w.out, console.FormatInfoMessage("Watching "+w.workflowPath+" (Ctrl+C to stop)"))
	w.report()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if err := w.HandleEvent(ev); err != nil {
				fmt.Fprintln(w.out, console.FormatErrorMessage(err.Error()))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			watchLog.Printf("Watcher error: %v", err)
			fmt.Fprintln(w.out, console.FormatWarningMessage("watch error: "+err.Error()))
		}
	}
}

// HandleEvent applies one file system event. Events for other files and
// events that leave the content unchanged are ignored.
func (w *FileWatcher) HandleEvent(ev fsnotify.Event) error {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return nil
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		return err
	}
	switch name {
	case w.workflowPath:
		return w.workflowChanged()
	case w.configPath:
		return w.configChanged()
	}
	return nil
}

func (w *FileWatcher) workflowChanged() error {
	data, err := os.ReadFile(w.workflowPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", w.workflowPath, err)
	}
	text := string(data)
	if stringutil.NormalizeWhitespace(text) == stringutil.NormalizeWhitespace(w.ctrl.Text()) {
		watchLog.Print("Workflow content unchanged")
		return nil
	}
	watchLog.Printf("Workflow changed on disk (%d bytes)", len(text))
	if err := w.ctrl.AdoptText(text); err != nil {
		if errors.Is(err, editsync.ErrEditing) {
			return nil
		}
		return err
	}
	w.report()
	return nil
}

func (w *FileWatcher) configChanged() error {
	cfg, found, err := LoadScanConfig(w.configPath)
	if err != nil {
		return err
	}
	if !found || cfg.Equal(w.ctrl.Config()) {
		return nil
	}
	watchLog.Print("Configuration changed, regenerating")
	if err := w.ctrl.ConfigChanged(cfg); err != nil {
		return err
	}
	fmt.Fprintln(w.out, console.FormatInfoMessage("Regenerated "+w.ctrl.Filename()))
	w.report()
	return nil
}

func (w *FileWatcher) report() {
	d := w.ctrl.Diagnostics()
	PrintDiagnostics(w.out, w.ctrl.Filename(), d)
	fmt.Fprintln(w.out, summarizeDiagnostics(w.ctrl.Filename(), d))
}

func uniqueDirs(paths ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	return out
}
