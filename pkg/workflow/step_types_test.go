//go:build !integration

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/document"
)

func TestStepFromNode(t *testing.T) {
	doc, err := document.ParseMapping(`name: Checkout
uses: actions/checkout@v4
with:
  ref: main
  nested:
    a: b
env:
  CI: true
`)
	require.NoError(t, err)

	step := StepFromNode(doc)
	require.NotNil(t, step)
	assert.Equal(t, "Checkout", step.Name)
	assert.True(t, step.IsUsesStep())
	assert.False(t, step.IsRunStep())
	assert.Equal(t, "actions/checkout", step.ActionRepository())
	assert.Equal(t, map[string]any{"ref": "main"}, step.With, "only scalar inputs are read")
	assert.Equal(t, map[string]string{"CI": "true"}, step.Env)

	assert.Nil(t, StepFromNode(document.Scalar("run")))
}

func TestStepIdentity(t *testing.T) {
	tests := []struct {
		name string
		step *document.Node
		want string
	}{
		{"id wins", document.Mapping(document.E("name", document.Scalar("Scan")), document.E("id", document.Scalar("scan"))), "id:scan"},
		{"name before uses", document.Mapping(document.E("uses", document.Scalar("a/b@v1")), document.E("name", document.Scalar("B"))), "name:B"},
		{"run only", document.Mapping(document.E("run", document.Scalar("make"))), "run:make"},
		{"nothing", document.Mapping(), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StepIdentity(tt.step))
		})
	}
}
