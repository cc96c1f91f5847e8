package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/scanwf/scanwf/pkg/document"
)

// DeprecatedField is a schema property marked "deprecated": true.
type DeprecatedField struct {
	Name        string // The deprecated field name
	Replacement string // The recommended replacement field name, if the description names one
	Description string // Description from the schema
}

var replacementPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[Uu]se '([^']+)' instead`),
	regexp.MustCompile(`[Uu]se "([^"]+)" instead`),
	regexp.MustCompile("[Uu]se `([^`]+)` instead"),
	regexp.MustCompile(`[Rr]eplace(?:d)? (?:with|by) '([^']+)'`),
	regexp.MustCompile(`[Rr]eplace(?:d)? (?:with|by) "([^"]+)"`),
}

// GetDeprecatedFields returns the deprecated properties declared anywhere in
// the embedded workflow schema, sorted by name.
func GetDeprecatedFields() ([]DeprecatedField, error) {
	var schemaDoc map[string]any
	if err := json.Unmarshal([]byte(scanWorkflowSchema), &schemaDoc); err != nil {
		return nil, fmt.Errorf("failed to parse scan workflow schema: %w", err)
	}
	fields := extractDeprecatedFields(schemaDoc)
	schemaLog.Printf("Found %d deprecated fields in workflow schema", len(fields))
	return fields, nil
}

// extractDeprecatedFields walks every nested "properties" object of a schema.
func extractDeprecatedFields(schemaDoc map[string]any) []DeprecatedField {
	seen := map[string]bool{}
	var deprecated []DeprecatedField

	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if props, ok := t["properties"].(map[string]any); ok {
				for name, fieldSchema := range props {
					field, ok := fieldSchema.(map[string]any)
					if !ok {
						continue
					}
					if isDeprecated, _ := field["deprecated"].(bool); isDeprecated && !seen[name] {
						seen[name] = true
						description, _ := field["description"].(string)
						deprecated = append(deprecated, DeprecatedField{
							Name:        name,
							Replacement: extractReplacementFromDescription(description),
							Description: description,
						})
					}
				}
			}
			for _, child := range t {
				walk(child)
			}
		case []any:
			for _, child := range t {
				walk(child)
			}
		}
	}
	walk(schemaDoc)

	sort.Slice(deprecated, func(i, j int) bool {
		return deprecated[i].Name < deprecated[j].Name
	})
	return deprecated
}

// extractReplacementFromDescription extracts the replacement field name from a description
// It looks for patterns like "Use 'field-name' instead" or "Replaced by 'field-name'"
func extractReplacementFromDescription(description string) string {
	for _, re := range replacementPatterns {
		if match := re.FindStringSubmatch(description); len(match) >= 2 {
			return match[1]
		}
	}
	return ""
}

// deprecatedUse is one occurrence of a deprecated field in a document.
type deprecatedUse struct {
	Field DeprecatedField
	Path  []string
}

// findDeprecatedFields returns every mapping key in doc that names a
// deprecated field, in document order.
func findDeprecatedFields(doc *document.Node, fields []DeprecatedField) []deprecatedUse {
	if len(fields) == 0 {
		return nil
	}
	byName := make(map[string]DeprecatedField, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	var found []deprecatedUse
	var walk func(path []string, n *document.Node)
	walk = func(path []string, n *document.Node) {
		switch n.Kind {
		case document.MappingKind:
			for _, e := range n.Entries {
				childPath := append(append([]string(nil), path...), e.Key)
				if f, ok := byName[e.Key]; ok {
					found = append(found, deprecatedUse{Field: f, Path: childPath})
				}
				walk(childPath, e.Value)
			}
		case document.SequenceKind:
			for i, item := range n.Items {
				walk(append(append([]string(nil), path...), fmt.Sprint(i)), item)
			}
		}
	}
	walk(nil, doc)
	return found
}
