//go:build !integration

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/workflow"
)

// withoutActionlint keeps command tests independent of actionlint's rule set.
func withoutActionlint(t *testing.T) {
	t.Helper()
	t.Setenv(constants.NoActionlintEnvVar, "true")
}

// generatedWorkflow returns the text generate writes for cfg on an empty repository.
func generatedWorkflow(t *testing.T, cfg workflow.ScanConfig) string {
	t.Helper()
	result, err := workflow.NewReconciler().Merge(cfg, "", workflow.OverflowData{})
	require.NoError(t, err)
	return result.Text
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
