//go:build !integration

package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
)

func scanJobs(t *testing.T, doc *document.Node) []string {
	t.Helper()
	jobs, ok := doc.Get("jobs")
	require.True(t, ok)
	var out []string
	for _, e := range jobs.Entries {
		if jobUsesScanAction(e.Value) {
			out = append(out, e.Key)
		}
	}
	return out
}

func TestMerge_EmptyPreviousText(t *testing.T) {
	result, err := NewReconciler().Merge(DefaultScanConfig(), "", OverflowData{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Text, "name: Security Scan\non:\n"), "got:\n%s", result.Text)
	assert.NotContains(t, result.Text, `"on"`)
	assert.Empty(t, result.Removed)
	assert.Equal(t, []string{"github"}, scanJobs(t, result.Document))

	reparsed := mustParse(t, result.Text)
	assert.True(t, reparsed.Equal(result.Document), "text and document must agree")
}

func TestMerge_NoPostScanOptionsIsMinimal(t *testing.T) {
	result, err := NewReconciler().Merge(DefaultScanConfig(), "", OverflowData{})
	require.NoError(t, err)

	_, _, ok := ScanStep(mustLookup(t, result.Document, "jobs", "github"))
	require.True(t, ok)
	_, hasWith := result.Document.Lookup("jobs", "github", "steps", "1", "with")
	assert.False(t, hasWith, "no options means no with block")
	assert.NotContains(t, result.Text, constants.CredentialField+":")
}

func TestMerge_KeepsUserJobKey(t *testing.T) {
	previous := `name: Security Scan
on: push
jobs:
  security:
    runs-on: self-hosted
    env:
      SHARED: from-user
    steps:
      - id: scan
        uses: scanwf/security-scan-action@v1
  lint:
    runs-on: ubuntu-latest
    steps:
      - run: make lint
`
	cfg := DefaultScanConfig()
	cfg.DecoratePullRequests = true
	cfg.Env = map[string]string{"SHARED": "from-config", "EXTRA": "1"}

	result, err := NewReconciler().Merge(cfg, previous, OverflowData{})
	require.NoError(t, err)

	assert.Equal(t, []string{"security"}, scanJobs(t, result.Document), "the renamed job must be overwritten in place")
	jobs := mustLookup(t, result.Document, "jobs")
	assert.Equal(t, []string{"security", "lint"}, jobs.Keys())

	job := mustLookup(t, jobs, "security")
	assert.Equal(t, "self-hosted", stringField(job, "runs-on"), "an existing runs-on wins")
	assert.Equal(t, map[string]string{"SHARED": "from-user", "EXTRA": "1"}, stringMap(mustLookup(t, job, "env")))

	_, step, ok := ScanStep(job)
	require.True(t, ok)
	assert.Equal(t, constants.ScanActionRef.String(), stringField(step, "uses"))
	with := mustLookup(t, step, "with")
	assert.Equal(t, []string{constants.InputDecoratePullRequests, constants.CredentialField}, with.Keys())
}

func TestMerge_InsertsNextToUserJobs(t *testing.T) {
	previous := "on: push\njobs:\n  custom-ci:\n    runs-on: ubuntu-latest\n    steps:\n      - run: make\n"

	result, err := NewReconciler().Merge(DefaultScanConfig(), previous, OverflowData{})
	require.NoError(t, err)

	jobs := mustLookup(t, result.Document, "jobs")
	assert.Equal(t, []string{"custom-ci", "github"}, jobs.Keys())
}

func TestMerge_EmptyPreviousJobs(t *testing.T) {
	result, err := NewReconciler().Merge(DefaultScanConfig(), "on: push\njobs: {}\n", OverflowData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"github"}, mustLookup(t, result.Document, "jobs").Keys())
}

func TestMerge_UnparsablePreviousText(t *testing.T) {
	fresh, err := NewReconciler().Merge(DefaultScanConfig(), "", OverflowData{})
	require.NoError(t, err)

	result, err := NewReconciler().Merge(DefaultScanConfig(), "jobs: [unclosed\n", OverflowData{})
	require.NoError(t, err)
	assert.Equal(t, fresh.Text, result.Text)
}

func TestMerge_AmbiguousPreviousJobIsIgnored(t *testing.T) {
	previous := `on: push
jobs:
  one:
    runs-on: x
    steps:
      - uses: scanwf/security-scan-action@v1
  two:
    runs-on: x
    steps:
      - uses: scanwf/security-scan-action@v1
`
	result, err := NewReconciler().Merge(DefaultScanConfig(), previous, OverflowData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "github"}, mustLookup(t, result.Document, "jobs").Keys())
}

func TestMerge_AmbiguousKeepsFieldsOfSameNamedJob(t *testing.T) {
	previous := `on: push
jobs:
  one:
    runs-on: x
    steps:
      - uses: scanwf/security-scan-action@v1
  two:
    runs-on: x
    steps:
      - uses: scanwf/security-scan-action@v1
  github:
    runs-on: self-hosted
    if: github.repository_owner == 'octo'
    env:
      SHARED: from-user
    steps:
      - run: make test
`
	cfg := DefaultScanConfig()
	cfg.Env = map[string]string{"SHARED": "from-config", "EXTRA": "1"}

	result, err := NewReconciler().Merge(cfg, previous, OverflowData{})
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "github"}, mustLookup(t, result.Document, "jobs").Keys())

	job := mustLookup(t, result.Document, "jobs", "github")
	assert.Equal(t, "self-hosted", stringField(job, "runs-on"), "existing runs-on wins")
	assert.Equal(t, "github.repository_owner == 'octo'", stringField(job, "if"))
	env := mustLookup(t, job, "env")
	assert.Equal(t, "from-user", stringField(env, "SHARED"))
	assert.Equal(t, "1", stringField(env, "EXTRA"))
	assert.True(t, jobUsesScanAction(job))
}

func TestMerge_KeepsBlockScalarContent(t *testing.T) {
	script := "cat <<EOF > cfg.yml\ncache: null\n\"on\": push\n'on': pull\nEOF\n"
	previous := `on: push
jobs:
  custom-ci:
    runs-on: ubuntu-latest
    steps:
      - run: |
          cat <<EOF > cfg.yml
          cache: null
          "on": push
          'on': pull
          EOF
`
	result, err := NewReconciler().Merge(DefaultScanConfig(), previous, OverflowData{})
	require.NoError(t, err)

	assert.Contains(t, result.Text, "cache: null")
	assert.Contains(t, result.Text, `"on": push`)
	assert.Contains(t, result.Text, `'on': pull`)

	reparsed := mustParse(t, result.Text)
	run := mustLookup(t, reparsed, "jobs", "custom-ci", "steps", "0", "run")
	got, _ := run.AsString()
	assert.Equal(t, script, got)
	assert.True(t, strings.HasPrefix(result.Text, "name: Security Scan\non:\n"), "the trigger key is still bare")
}

func TestMerge_PreservesUnrenderedSections(t *testing.T) {
	previous := `name: Old name
on:
  issues:
    types: [opened]
concurrency: scans
jobs: {}
`
	result, err := NewReconciler().Merge(DefaultScanConfig(), previous, OverflowData{})
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultWorkflowName, stringField(result.Document, "name"), "rendered scalars win")
	on := mustLookup(t, result.Document, "on")
	assert.True(t, on.Has("issues"))
	assert.True(t, on.Has("push"))
	assert.Equal(t, "scans", stringField(result.Document, "concurrency"))
}

func TestMerge_ReappliesOverflow(t *testing.T) {
	cfg := DefaultScanConfig()
	overflow := OverflowData{
		SecurityJob: "security",
		Entries: map[string]*document.Node{
			"/jobs/security/timeout-minutes": document.Scalar(30),
			"/jobs/security/steps": document.Sequence(document.Mapping(
				document.E("name", document.Scalar("Notify")),
				document.E("run", document.Scalar("echo done")),
			)),
		},
	}

	result, err := NewReconciler().Merge(cfg, "", overflow)
	require.NoError(t, err)

	job := mustLookup(t, result.Document, "jobs", "github")
	timeout, ok := job.Get("timeout-minutes")
	require.True(t, ok, "overflow follows the security job to its new key")
	assert.Equal(t, "30", timeout.Text())

	steps := mustLookup(t, job, "steps")
	require.Equal(t, 3, steps.Len())
	assert.Equal(t, "name:Notify", StepIdentity(steps.Items[2]))
}

func TestMerge_PrunesExplicitDefaultAndAnnotates(t *testing.T) {
	cfg := DefaultScanConfig()
	cfg.BreakBuild = constants.BreakBuildDefault
	cfg.Severity = "high"

	result, err := NewReconciler().Merge(cfg, "", OverflowData{})
	require.NoError(t, err)

	require.Len(t, result.Removed, 1)
	assert.Equal(t, constants.InputBreakBuild, result.Removed[0].Key)
	assert.Contains(t, result.Text, "# breakBuild: failure")
	assert.Contains(t, result.Text, "severity: high")
}

func TestMerge_Deterministic(t *testing.T) {
	cfg := DefaultScanConfig()
	cfg.Env = map[string]string{"B": "2", "A": "1", "C": "3"}
	cfg.UploadToGitHub = true
	cfg.CreateSARIFFile = true

	first, err := NewReconciler().Merge(cfg, "", OverflowData{})
	require.NoError(t, err)
	for range 5 {
		again, err := NewReconciler().Merge(cfg, "", OverflowData{})
		require.NoError(t, err)
		assert.Equal(t, first.Text, again.Text)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	cfg := DefaultScanConfig()
	cfg.FixPullRequests = true
	cfg.Schedule = "0 3 * * 1"

	first, err := NewReconciler().Merge(cfg, "", OverflowData{})
	require.NoError(t, err)
	second, err := NewReconciler().Merge(cfg, first.Text, OverflowData{})
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
}

func mustLookup(t *testing.T, n *document.Node, path ...string) *document.Node {
	t.Helper()
	v, ok := n.Lookup(path...)
	require.True(t, ok, "missing %v", path)
	return v
}
