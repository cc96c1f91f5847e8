//go:build !integration

package main

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findCommand(t *testing.T, name string) *cobra.Command {
	t.Helper()
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestCommandGroupAssignments(t *testing.T) {
	tests := []struct {
		command string
		group   string
	}{
		{"configure", "setup"},
		{"generate", "setup"},
		{"edit", "development"},
		{"watch", "development"},
		{"validate", "development"},
		{"check-filename", "development"},
		{"mcp-server", "utilities"},
		{"version", ""},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			assert.Equal(t, tt.group, findCommand(t, tt.command).GroupID)
		})
	}
}

func TestArgumentSyntaxConsistency(t *testing.T) {
	tests := []struct {
		command string
		use     string
		args    []string
		wantErr bool
	}{
		{"check-filename", "check-filename <name>", []string{"scan.yml"}, false},
		{"check-filename", "check-filename <name>", nil, true},
		{"validate", "validate [file]...", nil, false},
		{"mcp-server", "mcp-server", []string{"extra"}, true},
		{"version", "version", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			cmd := findCommand(t, tt.command)
			assert.Equal(t, tt.use, cmd.Use)
			if cmd.Args == nil {
				assert.False(t, tt.wantErr, "command without an Args validator accepts anything")
				return
			}
			err := cmd.Args(cmd, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCommandDescriptions(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "completion" {
			continue
		}
		t.Run(cmd.Name(), func(t *testing.T) {
			require.NotEmpty(t, cmd.Short)
			first := cmd.Short[:1]
			assert.Equal(t, strings.ToUpper(first), first, "Short should start with a capital letter")
			assert.False(t, strings.HasSuffix(cmd.Short, "."), "Short should not end with a period")
		})
	}
}

func TestRootFlags(t *testing.T) {
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
	assert.Equal(t, "v", rootCmd.PersistentFlags().Lookup("verbose").Shorthand)
	require.NotNil(t, rootCmd.PersistentFlags().Lookup("env-file"))
}
