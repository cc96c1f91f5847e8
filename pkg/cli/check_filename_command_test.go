//go:build !integration

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFilename(t *testing.T) {
	valid := CheckFilename("security-scan.yml")
	assert.True(t, valid.Valid)
	assert.Empty(t, valid.Problems)
	assert.Empty(t, valid.Suggestion)

	invalid := CheckFilename("My Security Scan.yml")
	assert.False(t, invalid.Valid)
	assert.NotEmpty(t, invalid.Problems)
	assert.Equal(t, "My-Security-Scan.yml", invalid.Suggestion)

	// The suggestion is always itself valid.
	assert.True(t, CheckFilename(CheckFilename("scan").Suggestion).Valid)
}

func TestRunCheckFilename(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, RunCheckFilename(&out, &errOut, "scan.yaml", false))
	assert.Contains(t, errOut.String(), "valid workflow filename")
	assert.Empty(t, out.String())

	out.Reset()
	errOut.Reset()
	err := RunCheckFilename(&out, &errOut, "scan", false)
	require.ErrorIs(t, err, ErrInvalidFilename)
	assert.Contains(t, errOut.String(), "Suggested name: scan.yml")
}

func TestRunCheckFilename_JSON(t *testing.T) {
	var out, errOut bytes.Buffer
	err := RunCheckFilename(&out, &errOut, ".hidden.yml", true)
	require.ErrorIs(t, err, ErrInvalidFilename)

	var report FilenameReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, ".hidden.yml", report.Name)
	assert.False(t, report.Valid)
	assert.Equal(t, "hidden.yml", report.Suggestion)
	assert.Empty(t, errOut.String())
}

func TestNewCheckFilenameCommand(t *testing.T) {
	cmd := NewCheckFilenameCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "check-filename", cmd.Name())
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"scan.yml"}))
	require.NotNil(t, cmd.Flags().Lookup("json"))
	assert.Equal(t, "j", cmd.Flags().Lookup("json").Shorthand)
}
