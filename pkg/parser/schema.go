package parser

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/scanwf/scanwf/pkg/logger"
)

var schemaLog = logger.New("parser:schema")

//go:embed schemas/scan_workflow_schema.json
var scanWorkflowSchema string

const scanWorkflowSchemaURL = "scan_workflow_schema.json"

var (
	compileSchemaOnce sync.Once
	compiledSchema    *jsonschema.Schema
	compileSchemaErr  error
)

// ScanWorkflowSchema returns the raw JSON of the embedded workflow schema.
func ScanWorkflowSchema() string {
	return scanWorkflowSchema
}

// compiledScanWorkflowSchema compiles the embedded schema on first use.
// The compiled schema is immutable and safe for concurrent validation.
func compiledScanWorkflowSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		schemaLog.Print("Compiling scan workflow schema")
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(ScanWorkflowSchema()))
		if err != nil {
			compileSchemaErr = fmt.Errorf("failed to parse scan workflow schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(scanWorkflowSchemaURL, doc); err != nil {
			compileSchemaErr = fmt.Errorf("failed to add scan workflow schema: %w", err)
			return
		}
		compiledSchema, compileSchemaErr = c.Compile(scanWorkflowSchemaURL)
		if compileSchemaErr != nil {
			compileSchemaErr = fmt.Errorf("failed to compile scan workflow schema: %w", compileSchemaErr)
		}
	})
	return compiledSchema, compileSchemaErr
}
