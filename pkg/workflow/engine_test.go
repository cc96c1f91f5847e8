//go:build !integration

package workflow

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/filename"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/security"
	"github.com/scanwf/scanwf/pkg/store"
	"github.com/scanwf/scanwf/pkg/types"
)

func newTestEngine(t *testing.T, st store.Store) *Engine {
	t.Helper()
	v, err := parser.NewValidator(parser.ValidatorOptions{DisableActionlint: true})
	require.NoError(t, err)
	e, err := NewEngine(EngineOptions{Store: st, Validator: v, CacheSize: 8})
	require.NoError(t, err)
	return e
}

func TestNewEngine_RequiresStore(t *testing.T) {
	_, err := NewEngine(EngineOptions{})
	assert.Error(t, err)
}

func TestEngine_ReconcileCustomCIScenario(t *testing.T) {
	previous := `name: CI
on: push
jobs:
  custom-ci:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - run: make test
`
	st := store.NewMemory("security-scan.yml", previous)
	engine := newTestEngine(t, st)

	cfg := DefaultScanConfig()
	cfg.Platform = constants.PlatformGitHub

	text, err := engine.Reconcile(cfg, OverflowData{})
	require.NoError(t, err)

	doc := mustParse(t, text)
	jobs := mustLookup(t, doc, "jobs")
	assert.Equal(t, []string{"custom-ci", "github"}, jobs.Keys(), "a new github job is added next to custom-ci")
	assert.NotContains(t, text, constants.CredentialField+":", "no credential without post-scan options")
	assert.NotContains(t, text, "#", "nothing was pruned from a with block")
	assert.Empty(t, engine.LastRemovals())

	d := engine.Diagnostics()
	assert.True(t, d.Valid(), "diagnostics: %+v", d)
	assert.Equal(t, text, engine.LastText())

	stored, err := st.Get()
	require.NoError(t, err)
	assert.Equal(t, text, stored)
	assert.Equal(t, 1, st.Writes)
}

func TestEngine_ReconcilePersistsInvalidResults(t *testing.T) {
	previous := `on: issues
jobs:
  triage:
    runs-on: ubuntu-latest
    steps:
      - run: echo "${{ github.event.issue.title }}"
`
	st := store.NewMemory("security-scan.yml", previous)
	engine := newTestEngine(t, st)

	text, err := engine.Reconcile(DefaultScanConfig(), OverflowData{})
	require.NoError(t, err)
	assert.False(t, engine.Diagnostics().Valid(), "the user's job carries a template injection")
	assert.Contains(t, text, "triage:")
	assert.Equal(t, 1, st.Writes, "the engine persists regardless of the verdict")
	assert.NotEmpty(t, text)
}

type failingStore struct {
	*store.Memory
}

func (failingStore) Set(string) error { return errors.New("disk full") }

func TestEngine_ReconcilePersistError(t *testing.T) {
	engine := newTestEngine(t, failingStore{store.NewMemory("security-scan.yml", "")})

	text, err := engine.Reconcile(DefaultScanConfig(), OverflowData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to persist workflow")
	assert.NotEmpty(t, text, "the generated text is still returned")
	assert.Equal(t, text, engine.LastText())
}

func TestEngine_ValidateFilename(t *testing.T) {
	engine := newTestEngine(t, store.NewMemory("security-scan.yml", ""))
	text, err := engine.Reconcile(DefaultScanConfig(), OverflowData{})
	require.NoError(t, err)

	assert.True(t, engine.Validate(text, "security-scan.yml").Valid())

	bad := engine.Validate(text, "security scan.txt")
	assert.False(t, bad.Valid())
	assert.NotEmpty(t, bad.Filename)
	assert.Empty(t, bad.Validation, "the cached text diagnostics are reused")
}

func TestEngine_ValidateUnparsable(t *testing.T) {
	engine := newTestEngine(t, store.NewMemory("security-scan.yml", ""))

	d := engine.Validate("jobs: [\n", "security-scan.yml")
	require.Len(t, d.Validation, 1)
	assert.Equal(t, parser.TypeParse, d.Validation[0].Type)
	assert.False(t, d.Valid())
	assert.False(t, d.StructurallyValid())
	assert.Empty(t, d.Security)
}

func TestDiagnostics_Counts(t *testing.T) {
	d := Diagnostics{
		Validation: []parser.ValidationError{
			{Message: "a", Severity: types.SeverityError},
			{Message: "b", Severity: types.SeverityWarning},
		},
		Security: []security.Warning{
			{Rule: "x", Severity: types.SeverityWarning},
			{Rule: "y", Severity: types.SeverityError},
		},
		Filename: []filename.ValidationError{{Message: "bad"}},
	}
	assert.Equal(t, 3, d.ErrorCount())
	assert.Equal(t, 2, d.WarningCount())
	assert.False(t, d.Valid())
	assert.False(t, d.StructurallyValid())

	warningsOnly := Diagnostics{Security: []security.Warning{{Rule: "x", Severity: types.SeverityWarning}}}
	assert.True(t, warningsOnly.Valid())
	assert.True(t, warningsOnly.StructurallyValid())
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, contentKey("a"), contentKey("a"))
	assert.NotEqual(t, contentKey("a"), contentKey("b"))
	assert.Len(t, contentKey(""), 64)
	assert.False(t, strings.ContainsAny(contentKey("x"), "ABCDEF"))
}
