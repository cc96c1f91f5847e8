//go:build !integration

package constants

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetWorkflowDir(t *testing.T) {
	t.Setenv(WorkflowDirEnvVar, "")
	assert.Equal(t, filepath.Join(".github", "workflows"), GetWorkflowDir())

	t.Setenv(WorkflowDirEnvVar, "ci/workflows")
	assert.Equal(t, "ci/workflows", GetWorkflowDir())
}

func TestPriorityFields(t *testing.T) {
	assert.NotEmpty(t, PriorityStepFields)
	assert.NotEmpty(t, PriorityJobFields)
	assert.NotEmpty(t, PriorityWorkflowFields)

	assert.Equal(t, "name", PriorityStepFields[0], "name leads step fields")
	assert.Equal(t, "name", PriorityJobFields[0], "name leads job fields")
	assert.Equal(t, "name", PriorityWorkflowFields[0], "name leads workflow fields")
	assert.Contains(t, PriorityWorkflowFields, "on")
	assert.Equal(t, CredentialField, PriorityScanInputs[len(PriorityScanInputs)-1], "token renders last")
}

func TestPlatformJobName(t *testing.T) {
	tests := []struct {
		platform Platform
		want     JobName
	}{
		{PlatformGitHub, "github"},
		{PlatformGitLab, "gitlab"},
		{PlatformAzure, "azure"},
		{PlatformBitbucket, "bitbucket"},
		{Platform(""), FallbackJobName},
		{Platform("jenkins"), FallbackJobName},
	}
	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.platform.JobName())
		})
	}
}

func TestKnownJobNames(t *testing.T) {
	for _, p := range Platforms {
		assert.Contains(t, KnownJobNames, p.JobName())
	}
	assert.Contains(t, KnownJobNames, FallbackJobName)
}

func TestSemanticTypes(t *testing.T) {
	assert.True(t, JobName("scan").IsValid())
	assert.False(t, JobName("").IsValid())
	assert.Equal(t, "scan", ScanStepID.String())
	assert.True(t, ScanActionRef.IsValid())
	assert.Equal(t, "scanwf/security-scan-action@v2", ScanActionRef.String())
	assert.False(t, ActionRef("").IsValid())
}

func TestConstantValues(t *testing.T) {
	assert.Equal(t, "token", CredentialField)
	assert.Equal(t, "failure", BreakBuildDefault)
	assert.Equal(t, "workflow_dispatch", WorkflowDispatchKey)
	assert.Equal(t, 255, MaxFilenameLength)
	assert.Equal(t, "security-scan.yml", DefaultFilename)
	assert.Equal(t, filepath.Join(".github", "scanwf.yml"), ConfigFileName)
}
