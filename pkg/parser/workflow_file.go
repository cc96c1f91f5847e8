package parser

import (
	"path/filepath"
	"strings"

	"github.com/scanwf/scanwf/pkg/document"
)

// IsYAMLWorkflowFile checks if a file path points to a workflow YAML file.
// Matching is case-insensitive on the .yml and .yaml extensions.
func IsYAMLWorkflowFile(filePath string) bool {
	lower := strings.ToLower(filePath)
	return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
}

// IsActionDefinitionFile checks if a YAML file is a GitHub Action definition
// (action.yml) rather than a workflow. Action definitions have a top-level
// runs field and no jobs.
func IsActionDefinitionFile(filePath string, content []byte) bool {
	base := strings.ToLower(filepath.Base(filePath))
	if base == "action.yml" || base == "action.yaml" {
		return true
	}
	doc, err := document.ParseMapping(string(content))
	if err != nil {
		return false
	}
	return doc.Has("runs") && !doc.Has("jobs")
}
