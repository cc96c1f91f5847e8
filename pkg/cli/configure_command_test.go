//go:build !integration

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/workflow"
)

func TestConfigureForm_RoundTrip(t *testing.T) {
	cfg := workflow.DefaultScanConfig()
	cfg.Platform = constants.PlatformAzure
	cfg.Branches = []string{"main", "release"}
	cfg.Schedule = "0 3 * * 1"
	cfg.ManualDispatch = true
	cfg.ScanPaths = []string{"src", "cmd"}
	cfg.Severity = "medium"
	cfg.FixPullRequests = true
	cfg.UploadToGitHub = true
	cfg.Env = map[string]string{"MODE": "full"}

	form := newConfigureForm(cfg)
	assert.Equal(t, "main, release", form.branches)
	assert.Equal(t, []string{constants.InputFixPullRequests, constants.InputUploadToGitHub}, form.options)

	got := form.apply(cfg)
	assert.True(t, got.Equal(cfg), "got %+v", got)
}

func TestConfigureForm_Apply(t *testing.T) {
	base := workflow.DefaultScanConfig()
	base.Env = map[string]string{"KEEP": "1"}

	form := newConfigureForm(base)
	form.name = "  Nightly scan "
	form.branches = "main,, develop ,"
	form.options = []string{constants.InputCreateSARIFFile}
	form.token = " ${{ secrets.SCAN_TOKEN }} "
	form.runsOn = ""

	got := form.apply(base)
	assert.Equal(t, "Nightly scan", got.Name)
	assert.Equal(t, []string{"main", "develop"}, got.Branches)
	assert.True(t, got.CreateSARIFFile)
	assert.False(t, got.DecoratePullRequests)
	assert.Equal(t, "${{ secrets.SCAN_TOKEN }}", got.Token)
	assert.Equal(t, constants.DefaultRunsOn, got.RunsOn, "blank fields fall back to defaults")
	assert.Equal(t, map[string]string{"KEEP": "1"}, got.Env, "fields outside the form are kept")
	assert.Equal(t, map[string]string{"KEEP": "1"}, base.Env)
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Nil(t, splitList(" , "))
	assert.Equal(t, []string{"a", "b c"}, splitList("a, b c"))
}

func TestValidateSchedule(t *testing.T) {
	assert.NoError(t, validateSchedule(""))
	assert.NoError(t, validateSchedule("30 2 * * *"))
	assert.Error(t, validateSchedule("daily"))
}

func TestConfigureForm_Build(t *testing.T) {
	form := newConfigureForm(workflow.DefaultScanConfig())
	require.NotNil(t, form.build())
}

func TestNewConfigureCommand(t *testing.T) {
	cmd := NewConfigureCommand()
	assert.Equal(t, "configure", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("config"))
	assert.NotNil(t, cmd.Flags().Lookup("no-generate"))
	assert.NotNil(t, cmd.Flags().Lookup("output"))
}
