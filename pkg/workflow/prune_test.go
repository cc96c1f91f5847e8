//go:build !integration

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
)

func mustParse(t *testing.T, text string) *document.Node {
	t.Helper()
	doc, err := document.ParseMapping(text)
	require.NoError(t, err)
	return doc
}

const prunableWorkflow = `name: Security Scan
on:
  push:
    branches:
      - main
  workflow_dispatch: {}
  pull_request: {}
jobs:
  github:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          persist-credentials: false
      - id: scan
        uses: scanwf/security-scan-action@v2
        with:
          severity: high
          breakBuild: failure
          decoratePullRequests: false
          fixPullRequests: true
          token: ${{ secrets.GITHUB_TOKEN }}
    env: {}
    services: []
`

func TestPrune_RemovesDisabledFields(t *testing.T) {
	doc := mustParse(t, prunableWorkflow)

	pruned, removed := Prune(doc, true)

	with, ok := pruned.Lookup("jobs", "github", "steps", "1", "with")
	require.True(t, ok)
	assert.Equal(t, []string{"severity", "fixPullRequests", "token"}, with.Keys())

	checkout, ok := pruned.Lookup("jobs", "github", "steps", "0")
	require.True(t, ok)
	assert.False(t, checkout.Has("with"), "a with block left empty should disappear")

	job, _ := pruned.Lookup("jobs", "github")
	assert.False(t, job.Has("env"), "empty mappings are removed silently")
	assert.False(t, job.Has("services"), "empty sequences are removed silently")

	assert.Equal(t, RemovalLog{
		{Path: []string{"jobs", "github", "steps", "0", "with"}, Key: "persist-credentials", Value: false},
		{Path: []string{"jobs", "github", "steps", "1", "with"}, Key: "breakBuild", Value: "failure"},
		{Path: []string{"jobs", "github", "steps", "1", "with"}, Key: "decoratePullRequests", Value: false},
	}, removed)
}

func TestPrune_WorkflowDispatchSurvives(t *testing.T) {
	pruned, _ := Prune(mustParse(t, prunableWorkflow), false)

	on, ok := pruned.Get("on")
	require.True(t, ok)
	dispatch, ok := on.Get(constants.WorkflowDispatchKey)
	require.True(t, ok, "workflow_dispatch: {} is meaningful and must be kept")
	assert.True(t, dispatch.IsMapping())
	assert.Zero(t, dispatch.Len())
	assert.False(t, on.Has("pull_request"))
}

func TestPrune_Credential(t *testing.T) {
	tests := []struct {
		name     string
		requires bool
		wantKept bool
	}{
		{"required keeps the token", true, true},
		{"not required prunes the token", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pruned, removed := Prune(mustParse(t, prunableWorkflow), tt.requires)
			with, ok := pruned.Lookup("jobs", "github", "steps", "1", "with")
			require.True(t, ok)
			assert.Equal(t, tt.wantKept, with.Has(constants.CredentialField))

			var logged bool
			for _, r := range removed {
				if r.Key == constants.CredentialField {
					logged = true
					assert.Equal(t, constants.DefaultToken, r.Value)
				}
			}
			assert.Equal(t, !tt.wantKept, logged)
		})
	}
}

func TestPrune_CredentialAnywhere(t *testing.T) {
	doc := mustParse(t, "jobs:\n  a:\n    steps:\n      - with:\n          token: x\n          other: y\n  b:\n    with:\n      token: z\n")
	pruned, removed := Prune(doc, false)

	require.Len(t, removed, 2)
	_, ok := pruned.Lookup("jobs", "b")
	assert.False(t, ok, "a job holding only the token is emptied and removed")
	with, ok := pruned.Lookup("jobs", "a", "steps", "0", "with")
	require.True(t, ok)
	assert.Equal(t, []string{"other"}, with.Keys())
}

func TestPrune_Idempotent(t *testing.T) {
	inputs := []string{
		prunableWorkflow,
		"a: false\nb:\n  c: {}\n  d: []\n",
		"steps:\n  - with:\n      x: false\n  - run: echo\n",
		"on:\n  workflow_dispatch: {}\n",
	}
	for _, text := range inputs {
		for _, requires := range []bool{true, false} {
			once, _ := Prune(mustParse(t, text), requires)
			twice, log := Prune(once, requires)
			assert.True(t, once.Equal(twice), "pruning twice changed %q", text)
			assert.Empty(t, log, "second prune of %q logged removals", text)
		}
	}
}

func TestPrune_DroppedSequenceElement(t *testing.T) {
	doc := mustParse(t, "steps:\n  - with:\n      x: false\n  - run: echo\n")
	pruned, removed := Prune(doc, false)

	steps, ok := pruned.Get("steps")
	require.True(t, ok)
	require.Equal(t, 1, steps.Len())
	assert.Equal(t, "run:echo", StepIdentity(steps.Items[0]))

	require.Len(t, removed, 1)
	assert.Equal(t, []string{"steps", DroppedElement, "with"}, removed[0].Path)
	assert.Equal(t, "x", removed[0].Key)
}

func TestPrune_DoesNotModifyInput(t *testing.T) {
	doc := mustParse(t, prunableWorkflow)
	before := doc.Clone()

	_, _ = Prune(doc, false)
	assert.True(t, before.Equal(doc))
}

func TestPrune_TrueAndOtherScalarsKept(t *testing.T) {
	doc := mustParse(t, "a: true\nb: 0\nc: \"\"\nd: warning\n")
	pruned, removed := Prune(doc, false)
	assert.Empty(t, removed)
	assert.Equal(t, []string{"a", "b", "c", "d"}, pruned.Keys())
}

func TestRemovalLog_Group(t *testing.T) {
	log := RemovalLog{
		{Path: []string{"a", "with"}, Key: "x"},
		{Path: []string{"b"}, Key: "y"},
		{Path: []string{"a", "with"}, Key: "z"},
	}
	order, groups := log.Group()
	assert.Equal(t, []string{"a.with", "b"}, order)
	require.Len(t, groups["a.with"], 2)
	assert.Equal(t, "z", groups["a.with"][1].Key)
}
