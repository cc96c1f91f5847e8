//go:build !integration

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/constants"
)

func TestDefaultScanConfig(t *testing.T) {
	cfg := DefaultScanConfig()
	assert.Equal(t, constants.DefaultWorkflowName, cfg.Name)
	assert.Equal(t, constants.PlatformGitHub, cfg.Platform)
	assert.Equal(t, constants.DefaultRunsOn, cfg.RunsOn)
	assert.Equal(t, []string{"main"}, cfg.Branches)
	assert.False(t, cfg.RequiresCredential())
	assert.NoError(t, cfg.Validate())
}

func TestScanConfig_RequiresCredential(t *testing.T) {
	tests := []struct {
		name string
		cfg  ScanConfig
		want bool
	}{
		{"nothing enabled", ScanConfig{}, false},
		{"sarif only", ScanConfig{CreateSARIFFile: true}, true},
		{"decorate", ScanConfig{DecoratePullRequests: true}, true},
		{"fix", ScanConfig{FixPullRequests: true}, true},
		{"upload", ScanConfig{UploadToGitHub: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.RequiresCredential())
		})
	}
}

func TestScanConfig_Validate(t *testing.T) {
	bad := ScanConfig{Platform: "jenkins", Severity: "extreme", BreakBuild: "sometimes"}
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 3 configuration errors")
	assert.Contains(t, err.Error(), `unknown platform "jenkins"`)

	err = ScanConfig{Schedule: "every day"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cron")

	ok := ScanConfig{Platform: constants.PlatformAzure, Severity: "high", BreakBuild: "warning", Schedule: "0 3 * * 1"}
	assert.NoError(t, ok.Validate())
}

func TestScanConfig_EqualAndClone(t *testing.T) {
	a := DefaultScanConfig()
	a.Env = map[string]string{"A": "1"}
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Branches[0] = "develop"
	b.Env["A"] = "2"
	assert.Equal(t, "main", a.Branches[0], "clone shares no slices")
	assert.Equal(t, "1", a.Env["A"], "clone shares no maps")
	assert.False(t, a.Equal(b))
}
