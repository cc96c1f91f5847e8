//go:build !integration

package cli

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/workflow"
)

func newTestTools(t *testing.T) *mcpTools {
	t.Helper()
	withoutActionlint(t)
	tools, err := newMCPTools()
	require.NoError(t, err)
	return tools
}

func TestMCPTools_Merge(t *testing.T) {
	tools := newTestTools(t)
	ctx := context.Background()

	_, result, err := tools.merge(ctx, nil, MergeArgs{})
	require.NoError(t, err)
	assert.True(t, result.Valid, "diagnostics: %+v", result.Diagnostics)
	assert.Contains(t, result.Text, "jobs:")
	assert.Empty(t, result.Removed)

	cfg := workflow.DefaultScanConfig()
	cfg.Severity = "low"
	_, again, err := tools.merge(ctx, nil, MergeArgs{Config: &cfg, PreviousText: result.Text})
	require.NoError(t, err)
	assert.Contains(t, again.Text, "severity: low")
}

func TestMCPTools_MergeRejectsInvalidConfig(t *testing.T) {
	tools := newTestTools(t)
	cfg := workflow.DefaultScanConfig()
	cfg.Platform = "jenkins"
	_, _, err := tools.merge(context.Background(), nil, MergeArgs{Config: &cfg})
	require.Error(t, err)
}

func TestMCPTools_Validate(t *testing.T) {
	tools := newTestTools(t)
	text := `name: Scan
on: push
permissions: write-all
jobs:
  scan:
    runs-on: ubuntu-latest
    steps:
      - run: echo hi
`
	_, result, err := tools.validate(context.Background(), nil, ValidateArgs{Text: text})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Security)
	var rules []string
	for _, w := range result.Security {
		rules = append(rules, w.Rule)
	}
	assert.Contains(t, rules, "permissions-write-all")
}

func TestMCPTools_CheckFilename(t *testing.T) {
	tools := newTestTools(t)
	_, report, err := tools.checkFilename(context.Background(), nil, CheckFilenameArgs{Name: "Security Scan.yml"})
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, "Security-Scan.yml", report.Suggestion)
}

func TestMCPTools_ReadConfig(t *testing.T) {
	tools := newTestTools(t)
	cfg := workflow.DefaultScanConfig()
	cfg.Severity = "medium"

	_, result, err := tools.readConfig(context.Background(), nil, ReadConfigArgs{Text: generatedWorkflow(t, cfg)})
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, "medium", result.Config.Severity)

	_, missing, err := tools.readConfig(context.Background(), nil, ReadConfigArgs{Text: "on: push\njobs: {}\n"})
	require.NoError(t, err)
	assert.False(t, missing.Found)
}

func TestNewMCPServer_ListsTools(t *testing.T) {
	withoutActionlint(t)
	server, err := NewMCPServer("test")
	require.NoError(t, err)

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"merge", "validate", "check_filename", "read_config"}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "check_filename",
		Arguments: map[string]any{"name": "scan.yml"},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
}
