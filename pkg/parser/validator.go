package parser

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/types"
)

var validatorLog = logger.New("parser:validator")

// Error types reported in ValidationError.Type.
const (
	TypeParse                = "parse"
	TypeRequired             = "required"
	TypeAdditionalProperties = "additionalProperties"
	TypeDeprecated           = "deprecated"
	TypeJobTarget            = "job-target"
	TypeSchema               = "schema"
)

// ValidationError is a structural problem found in a workflow text.
// Line and Column are 1-based and zero when unknown.
type ValidationError struct {
	Message  string         `json:"message"`
	Severity types.Severity `json:"severity"`
	Line     int            `json:"line,omitempty"`
	Column   int            `json:"column,omitempty"`
	Path     string         `json:"path,omitempty"`
	Type     string         `json:"type,omitempty"`
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// ValidatorOptions configures NewValidator.
type ValidatorOptions struct {
	// DisableActionlint skips the actionlint pass.
	DisableActionlint bool
}

// Validator checks workflow texts against the embedded schema, a small set of
// rules the schema cannot express, and actionlint. It is safe for concurrent use.
type Validator struct {
	schema     *jsonschema.Schema
	deprecated []DeprecatedField
	actionlint bool
}

// NewValidator compiles the embedded schema (once per process) and returns a Validator.
func NewValidator(opts ValidatorOptions) (*Validator, error) {
	schema, err := compiledScanWorkflowSchema()
	if err != nil {
		return nil, err
	}
	deprecated, err := GetDeprecatedFields()
	if err != nil {
		return nil, err
	}
	return &Validator{schema: schema, deprecated: deprecated, actionlint: !opts.DisableActionlint}, nil
}

// Validate returns the structural problems of text, ordered by position.
// A parse failure yields exactly one error and stops validation.
func (v *Validator) Validate(text string) []ValidationError {
	doc, err := document.ParseMapping(text)
	if err != nil {
		return []ValidationError{parseFailure(err)}
	}

	positions := document.IndexPositions(text)
	var out []ValidationError
	out = append(out, v.schemaErrors(doc, positions)...)
	out = append(out, jobTargetErrors(doc, positions)...)
	out = append(out, v.deprecationWarnings(doc, positions)...)
	sortValidationErrors(out)

	if v.actionlint && !hasBlocking(out) {
		out = append(out, actionlintWarnings(text)...)
	}

	validatorLog.Printf("Validated %d bytes: %d findings", len(text), len(out))
	return out
}

func parseFailure(err error) ValidationError {
	out := ValidationError{Message: err.Error(), Severity: types.SeverityError, Type: TypeParse}
	if perr, ok := document.AsParseError(err); ok {
		out.Message = "invalid YAML: " + perr.Message
		out.Line, out.Column = perr.Line, perr.Column
	}
	return out
}

func (v *Validator) schemaErrors(doc *document.Node, positions document.PositionIndex) []ValidationError {
	instance, err := toSchemaInstance(doc)
	if err != nil {
		return []ValidationError{{Message: err.Error(), Severity: types.SeverityError, Type: TypeSchema}}
	}

	err = v.schema.Validate(instance)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return []ValidationError{{Message: err.Error(), Severity: types.SeverityError, Type: TypeSchema}}
	}

	printer := message.NewPrinter(language.English)
	var out []ValidationError
	for _, leaf := range leafErrors(verr) {
		keyword := lastKeyword(leaf)
		pointer := document.Pointer(leaf.InstanceLocation...)
		pos, _ := positions.Lookup(pointer)
		out = append(out, ValidationError{
			Message:  describeLocation(leaf.InstanceLocation) + leaf.ErrorKind.LocalizedString(printer),
			Severity: severityForKeyword(keyword),
			Line:     pos.Line,
			Column:   pos.Column,
			Path:     pointer,
			Type:     typeForKeyword(keyword),
		})
	}
	return out
}

// toSchemaInstance converts doc to the value model jsonschema validates.
// Round-tripping through JSON turns every number into a json.Number.
func toSchemaInstance(doc *document.Node) (any, error) {
	raw, err := json.Marshal(doc.ToJSONValue())
	if err != nil {
		return nil, fmt.Errorf("failed to convert document for schema validation: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// leafErrors flattens a validation error tree. Combinator failures (anyOf,
// oneOf) are reported once rather than once per rejected branch.
func leafErrors(e *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(e.Causes) == 0 {
		return []*jsonschema.ValidationError{e}
	}
	switch lastKeyword(e) {
	case "anyOf", "oneOf":
		return []*jsonschema.ValidationError{e}
	}
	var out []*jsonschema.ValidationError
	for _, cause := range e.Causes {
		out = append(out, leafErrors(cause)...)
	}
	return out
}

func lastKeyword(e *jsonschema.ValidationError) string {
	path := e.ErrorKind.KeywordPath()
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

// severityForKeyword maps a schema keyword to a severity: unknown properties
// are warnings, every other violation is an error.
func severityForKeyword(keyword string) types.Severity {
	if keyword == "additionalProperties" {
		return types.SeverityWarning
	}
	return types.SeverityError
}

func typeForKeyword(keyword string) string {
	switch keyword {
	case "required":
		return TypeRequired
	case "additionalProperties":
		return TypeAdditionalProperties
	case "":
		return TypeSchema
	default:
		return TypeSchema + ":" + keyword
	}
}

func describeLocation(location []string) string {
	if len(location) == 0 {
		return ""
	}
	return "'" + strings.Join(location, ".") + "': "
}

// jobTargetErrors reports jobs that define neither runs-on nor uses.
func jobTargetErrors(doc *document.Node, positions document.PositionIndex) []ValidationError {
	jobs, ok := doc.Get("jobs")
	if !ok || !jobs.IsMapping() {
		return nil
	}
	var out []ValidationError
	for _, e := range jobs.Entries {
		if !e.Value.IsMapping() || e.Value.Has("runs-on") || e.Value.Has("uses") {
			continue
		}
		pointer := document.Pointer("jobs", e.Key)
		pos, _ := positions.Lookup(pointer)
		out = append(out, ValidationError{
			Message:  fmt.Sprintf("job '%s' must define either 'runs-on' or 'uses'", e.Key),
			Severity: types.SeverityError,
			Line:     pos.Line,
			Column:   pos.Column,
			Path:     pointer,
			Type:     TypeJobTarget,
		})
	}
	return out
}

func (v *Validator) deprecationWarnings(doc *document.Node, positions document.PositionIndex) []ValidationError {
	var out []ValidationError
	for _, use := range findDeprecatedFields(doc, v.deprecated) {
		pointer := document.Pointer(use.Path...)
		pos, _ := positions.Lookup(pointer)
		msg := fmt.Sprintf("'%s' is deprecated", use.Field.Name)
		if use.Field.Replacement != "" {
			msg += fmt.Sprintf(", use '%s' instead", use.Field.Replacement)
		}
		out = append(out, ValidationError{
			Message:  msg,
			Severity: types.SeverityWarning,
			Line:     pos.Line,
			Column:   pos.Column,
			Path:     pointer,
			Type:     TypeDeprecated,
		})
	}
	return out
}

func hasBlocking(errs []ValidationError) bool {
	return slices.ContainsFunc(errs, func(e ValidationError) bool { return e.Severity.Blocking() })
}

func sortValidationErrors(errs []ValidationError) {
	slices.SortStableFunc(errs, func(a, b ValidationError) int {
		return cmp.Or(
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Message, b.Message),
		)
	})
}
