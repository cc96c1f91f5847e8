// Package editor is the terminal user interface of the edit command. It
// shows the generated workflow, lets the user edit it in place, and drives an
// editsync.Controller with every change.
//
// Keys in viewing mode: e edits, q quits. Keys in editing mode: ctrl+s saves,
// esc discards the edit.
package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scanwf/scanwf/pkg/console"
	"github.com/scanwf/scanwf/pkg/editsync"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var editorLog = logger.New("editor:editor")

type keyMap struct {
	Edit   key.Binding
	Save   key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "discard")),
	Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(console.ColorInfo)
	modeStyle   = lipgloss.NewStyle().Foreground(console.ColorMuted)
	statusStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Options configures New.
type Options struct {
	Engine *workflow.Engine
	Config workflow.ScanConfig
	// OnConfigChange receives configurations parsed from committed or edited text.
	OnConfigChange func(workflow.ScanConfig)
}

// session is the state shared by every copy of the Model. The controller
// calls back into it synchronously from inside Update.
type session struct {
	ctrl      *editsync.Controller
	status    string
	conflicts []console.CompilerError
	committed bool
}

// Model is the bubbletea model of the editor.
type Model struct {
	s        *session
	textarea textarea.Model
	viewport viewport.Model
	help     help.Model
	opts     Options
	width    int
	height   int
}

// New creates a Model and its controller.
func New(opts Options) (Model, error) {
	s := &session{}
	ctrlOpts := editsync.Options{
		Engine: opts.Engine,
		OnConflict: func(d workflow.Diagnostics) {
			s.conflicts = d.CompilerErrors(opts.Engine.Store().Filename())
		},
	}
	ctrlOpts.OnConfigChange = func(cfg workflow.ScanConfig) {
		if opts.OnConfigChange != nil {
			opts.OnConfigChange(cfg)
		}
		// Echo through the controller the way a bound form would; the
		// controller ignores it while applying.
		_ = s.ctrl.ConfigChanged(cfg)
	}
	ctrl, err := editsync.New(opts.Config, ctrlOpts)
	if err != nil {
		return Model{}, err
	}
	s.ctrl = ctrl

	ta := textarea.New()
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.ShowLineNumbers = true

	m := Model{
		s:        s,
		textarea: ta,
		viewport: viewport.New(80, 20),
		help:     help.New(),
		opts:     opts,
	}
	m.viewport.SetContent(ctrl.Text())
	return m, nil
}

// Controller returns the controller the model drives.
func (m Model) Controller() *editsync.Controller { return m.s.ctrl }

// Committed reports whether at least one edit was saved.
func (m Model) Committed() bool { return m.s.committed }

// Status returns the last status line.
func (m Model) Status() string { return m.s.status }

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		bodyHeight := max(msg.Height-6, 3)
		m.textarea.SetWidth(msg.Width)
		m.textarea.SetHeight(bodyHeight)
		m.viewport.Width = msg.Width
		m.viewport.Height = bodyHeight
		return m, nil
	case tea.KeyMsg:
		if m.s.ctrl.Mode() == editsync.ModeEditing {
			return m.updateEditing(msg)
		}
		return m.updateViewing(msg)
	}
	return m, nil
}

func (m Model) updateViewing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Edit):
		if err := m.s.ctrl.BeginEditing(); err != nil {
			m.s.status = console.FormatErrorMessage(err.Error())
			return m, nil
		}
		editorLog.Print("Entering editing mode")
		m.textarea.SetValue(m.s.ctrl.Text())
		m.s.conflicts = nil
		m.s.status = ""
		return m, m.textarea.Focus()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Save):
		return m.commit(), nil
	case key.Matches(msg, keys.Cancel):
		m.s.ctrl.Cancel()
		m.textarea.Blur()
		m.s.conflicts = nil
		m.s.status = console.FormatInfoMessage("Edit discarded")
		m.viewport.SetContent(m.s.ctrl.Text())
		return m, nil
	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}

	before := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if after := m.textarea.Value(); after != before {
		if err := m.s.ctrl.TextChanged(after); err != nil {
			m.s.status = console.FormatErrorMessage(err.Error())
		} else {
			m.s.status = m.diagnosticsStatus()
		}
	}
	return m, cmd
}

func (m Model) commit() Model {
	err := m.s.ctrl.Commit()
	switch {
	case errors.Is(err, editsync.ErrCommitBlocked):
		m.s.status = console.FormatErrorMessage(fmt.Sprintf("Not saved: %d blocking problem(s)", m.s.ctrl.Diagnostics().ErrorCount()))
	case err != nil:
		m.s.status = console.FormatErrorMessage(err.Error())
	default:
		m.textarea.Blur()
		m.s.conflicts = nil
		m.s.committed = true
		m.s.status = console.FormatSuccessMessage("Saved " + m.s.ctrl.Filename())
		m.viewport.SetContent(m.s.ctrl.Text())
		editorLog.Print("Edit committed")
	}
	return m
}

func (m Model) diagnosticsStatus() string {
	d := m.s.ctrl.Diagnostics()
	switch {
	case !d.StructurallyValid():
		return console.FormatErrorMessage("Workflow does not parse or violates the schema")
	case !d.Valid():
		return console.FormatWarningMessage(fmt.Sprintf("%d blocking problem(s)", d.ErrorCount()))
	default:
		return console.FormatSuccessMessage("Valid")
	}
}

func (m Model) View() string {
	var b strings.Builder
	mode := m.s.ctrl.Mode()
	b.WriteString(titleStyle.Render(m.s.ctrl.Filename()))
	b.WriteString(" ")
	b.WriteString(modeStyle.Render("[" + mode.String() + "]"))
	b.WriteString("\n\n")

	if mode == editsync.ModeEditing {
		b.WriteString(m.textarea.View())
	} else {
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	for _, ce := range m.s.conflicts {
		b.WriteString(console.FormatError(ce))
		b.WriteString("\n")
	}
	if m.s.status != "" {
		b.WriteString(statusStyle.Render(m.s.status))
		b.WriteString("\n")
	}
	if mode == editsync.ModeEditing {
		b.WriteString(m.help.ShortHelpView([]key.Binding{keys.Save, keys.Cancel}))
	} else {
		b.WriteString(m.help.ShortHelpView([]key.Binding{keys.Edit, keys.Quit}))
	}
	return b.String()
}

// Run starts the editor on the terminal and blocks until the user quits.
func Run(opts Options) (Model, error) {
	m, err := New(opts)
	if err != nil {
		return Model{}, err
	}
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, fmt.Errorf("editor failed: %w", err)
	}
	return final.(Model), nil
}
