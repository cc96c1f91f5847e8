// Package editsync keeps the structured configuration and the raw workflow
// text consistent while either one is being edited.
//
// # Modes
//
// The controller is either Viewing or Editing:
//
//   - Viewing: the text is derived. Every configuration change runs a full
//     reconcile through the engine and persists the result.
//   - Editing: the text is authoritative. Each keystroke-level change is
//     validated, and a structurally valid text is parsed back into the
//     configuration. Configuration changes only refresh the overflow data.
//
// While a text edit pushes its parsed configuration out through
// OnConfigChange, the controller is ConfigApplying. A ConfigChanged call that
// arrives in that window is the echo of the edit itself and is ignored.
//
// Commit is the only save path. It re-validates the current text and either
// persists it and returns to Viewing, or reports a conflict and stays in
// Editing with ErrCommitBlocked.
//
// The controller is not safe for concurrent use. Callers funnel events
// through a single goroutine.
package editsync

import (
	"errors"
	"fmt"

	"github.com/scanwf/scanwf/pkg/filename"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var controllerLog = logger.New("editsync:controller")

// Mode is the editing state of a Controller.
type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	switch m {
	case ModeViewing:
		return "viewing"
	case ModeEditing:
		return "editing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

var (
	// ErrCommitBlocked is returned by Commit when the text has blocking problems.
	ErrCommitBlocked = errors.New("workflow has blocking problems and was not saved")
	// ErrNotEditing is returned by operations that need Editing mode.
	ErrNotEditing = errors.New("not editing")
	// ErrEditing is returned by AdoptText while the user holds unsaved edits.
	ErrEditing = errors.New("text is being edited")
)

// Options wires a Controller. Engine is required.
type Options struct {
	Engine    *workflow.Engine
	Renderer  workflow.Renderer
	Extractor workflow.OverflowExtractor

	// OnConfigChange receives configurations parsed from edited text.
	OnConfigChange func(workflow.ScanConfig)
	// OnConflict receives the diagnostics of a blocked commit.
	OnConflict func(workflow.Diagnostics)
	// OnFilenameChange receives every filename change with its problems.
	OnFilenameChange func(name string, problems []filename.ValidationError)
}

// Controller coordinates the configuration, the text, and the engine.
type Controller struct {
	opts Options

	engine    *workflow.Engine
	renderer  workflow.Renderer
	extractor workflow.OverflowExtractor

	mode           Mode
	configApplying bool

	cfg         workflow.ScanConfig
	overflow    workflow.OverflowData
	text        string
	lastGood    string
	diagnostics workflow.Diagnostics
}

// New creates a Controller in Viewing mode. The stored text, if any, becomes
// the current text and seeds the overflow data.
func New(cfg workflow.ScanConfig, opts Options) (*Controller, error) {
	if opts.Engine == nil {
		return nil, errors.New("controller requires an engine")
	}
	c := &Controller{
		opts:      opts,
		engine:    opts.Engine,
		renderer:  opts.Renderer,
		extractor: opts.Extractor,
		cfg:       cfg.Clone(),
	}
	if c.renderer == nil {
		c.renderer = workflow.ScanRenderer{}
	}
	if c.extractor == nil {
		c.extractor = workflow.TreeOverflowExtractor{Renderer: c.renderer}
	}

	stored, err := c.engine.Store().Get()
	if err != nil {
		return nil, fmt.Errorf("failed to load stored workflow: %w", err)
	}
	c.text = stored
	c.lastGood = stored
	c.overflow = c.extractor.Extract(stored, c.cfg)
	c.diagnostics = c.engine.Validate(stored, c.engine.Store().Filename())
	controllerLog.Printf("Controller ready: %d stored bytes, %d overflow entries", len(stored), c.overflow.Len())
	return c, nil
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// Text returns the current workflow text.
func (c *Controller) Text() string { return c.text }

// Config returns a copy of the current configuration.
func (c *Controller) Config() workflow.ScanConfig { return c.cfg.Clone() }

// Overflow returns the current overflow data.
func (c *Controller) Overflow() workflow.OverflowData { return c.overflow }

// Diagnostics returns the diagnostics of the current text and filename.
func (c *Controller) Diagnostics() workflow.Diagnostics { return c.diagnostics }

// Filename returns the name the text is stored under.
func (c *Controller) Filename() string { return c.engine.Store().Filename() }

// Valid reports the verdict for the current text and filename.
func (c *Controller) Valid() bool { return c.diagnostics.Valid() }

// ConfigChanged applies a configuration edit. In Viewing mode the text is
// regenerated and persisted; in Editing mode only the overflow data is
// refreshed against the text being edited. Calls made while a text edit is
// applying its own configuration are ignored.
func (c *Controller) ConfigChanged(cfg workflow.ScanConfig) error {
	if c.configApplying {
		controllerLog.Print("Ignoring config change while applying edited text")
		return nil
	}
	c.cfg = cfg.Clone()

	if c.mode == ModeEditing {
		c.overflow = c.extractor.Extract(c.text, c.cfg)
		return nil
	}
	return c.reconcile()
}

// BeginEditing switches to Editing mode after one reconcile seeds the text.
// It is a no-op when already editing. When the reconcile fails the
// controller stays in Viewing mode.
func (c *Controller) BeginEditing() error {
	if c.mode == ModeEditing {
		return nil
	}
	text, lastGood, diagnostics := c.text, c.lastGood, c.diagnostics
	if err := c.reconcile(); err != nil {
		c.text, c.lastGood, c.diagnostics = text, lastGood, diagnostics
		controllerLog.Printf("Editing not started: %v", err)
		return err
	}
	c.mode = ModeEditing
	controllerLog.Print("Editing started")
	return nil
}

// TextChanged records an edit. The text is validated at once; when it is
// structurally valid it becomes the last-known-good text, and if it holds a
// recognizable security job the configuration is updated from it.
func (c *Controller) TextChanged(text string) error {
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	c.text = text
	c.diagnostics = c.engine.Validate(text, c.Filename())
	if !c.diagnostics.StructurallyValid() {
		controllerLog.Printf("Edited text is not structurally valid (%d errors)", c.diagnostics.ErrorCount())
		return nil
	}
	c.lastGood = text
	c.applyText(text)
	return nil
}

// Commit saves the current text. A text with blocking problems is not
// saved: OnConflict is called and ErrCommitBlocked returned, and the
// controller stays in Editing mode.
func (c *Controller) Commit() error {
	if c.mode != ModeEditing {
		return ErrNotEditing
	}
	c.diagnostics = c.engine.Validate(c.text, c.Filename())
	if !c.diagnostics.Valid() {
		controllerLog.Printf("Commit blocked: %d errors", c.diagnostics.ErrorCount())
		if c.opts.OnConflict != nil {
			c.opts.OnConflict(c.diagnostics)
		}
		return ErrCommitBlocked
	}

	if err := c.engine.Store().Set(c.text); err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}
	c.applyText(c.text)
	c.overflow = c.extractor.Extract(c.text, c.cfg)
	c.lastGood = c.text
	c.mode = ModeViewing
	controllerLog.Printf("Committed %d bytes", len(c.text))
	return nil
}

// Cancel leaves Editing mode and restores the last-known-good text.
func (c *Controller) Cancel() {
	if c.mode != ModeEditing {
		return
	}
	c.text = c.lastGood
	c.diagnostics = c.engine.Validate(c.text, c.Filename())
	c.mode = ModeViewing
	controllerLog.Print("Editing cancelled")
}

// SetFilename renames the stored workflow. The name is checked and the
// result reported through OnFilenameChange; an invalid name the store accepts
// is still recorded so that it blocks the next commit. A name the store
// rejects leaves the current filename and its diagnostics in effect.
func (c *Controller) SetFilename(name string) error {
	problems := filename.Check(name)
	if c.opts.OnFilenameChange != nil {
		c.opts.OnFilenameChange(name, problems)
	}
	if err := c.engine.Store().SetFilename(name); err != nil {
		c.diagnostics.Filename = filename.Check(c.Filename())
		return fmt.Errorf("failed to set filename: %w", err)
	}
	c.diagnostics.Filename = problems
	controllerLog.Printf("Filename set to %q (%d problems)", name, len(problems))
	return nil
}

// AdoptText takes over text that changed outside the controller, for
// example a file edited on disk. It is refused while editing.
func (c *Controller) AdoptText(text string) error {
	if c.mode == ModeEditing {
		return ErrEditing
	}
	c.text = text
	c.diagnostics = c.engine.Validate(text, c.Filename())
	if !c.diagnostics.StructurallyValid() {
		return nil
	}
	c.lastGood = text
	c.applyText(text)
	c.overflow = c.extractor.Extract(text, c.cfg)
	return nil
}

func (c *Controller) reconcile() error {
	text, err := c.engine.Reconcile(c.cfg, c.overflow)
	if text != "" {
		c.text = text
		c.lastGood = text
		c.diagnostics = c.engine.Diagnostics()
	}
	return err
}

// applyText parses text into the configuration and publishes it. The
// ConfigApplying window covers the callback.
func (c *Controller) applyText(text string) {
	cfg, ok := c.renderer.Parse(text, c.cfg)
	if !ok || cfg.Equal(c.cfg) {
		return
	}
	c.cfg = cfg
	if c.opts.OnConfigChange == nil {
		return
	}
	c.configApplying = true
	defer func() { c.configApplying = false }()
	c.opts.OnConfigChange(cfg.Clone())
}
