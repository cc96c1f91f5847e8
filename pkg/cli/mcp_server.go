package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/filename"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/security"
	"github.com/scanwf/scanwf/pkg/store"
	"github.com/scanwf/scanwf/pkg/workflow"
)

var mcpServerLog = logger.New("cli:mcp_server")

// MergeArgs are the arguments of the merge tool.
type MergeArgs struct {
	Config       *workflow.ScanConfig `json:"config,omitempty" jsonschema:"scan configuration; defaults apply to unset fields"`
	PreviousText string               `json:"previous_text,omitempty" jsonschema:"existing workflow YAML to merge into"`
	Filename     string               `json:"filename,omitempty" jsonschema:"workflow filename used for the filename rules"`
}

// MergeToolResult is the output of the merge tool.
type MergeToolResult struct {
	Text        string                  `json:"text"`
	Removed     []workflow.RemovedField `json:"removed,omitempty"`
	Valid       bool                    `json:"valid"`
	Diagnostics DiagnosticsResult       `json:"diagnostics"`
}

// ValidateArgs are the arguments of the validate tool.
type ValidateArgs struct {
	Text     string `json:"text" jsonschema:"workflow YAML to validate"`
	Filename string `json:"filename,omitempty" jsonschema:"workflow filename used for the filename rules"`
}

// DiagnosticsResult is the tool view of workflow.Diagnostics.
type DiagnosticsResult struct {
	Valid      bool                       `json:"valid"`
	Errors     int                        `json:"errors"`
	Warnings   int                        `json:"warnings"`
	Validation []parser.ValidationError   `json:"validation,omitempty"`
	Security   []security.Warning         `json:"security,omitempty"`
	Filename   []filename.ValidationError `json:"filename,omitempty"`
}

// CheckFilenameArgs are the arguments of the check_filename tool.
type CheckFilenameArgs struct {
	Name string `json:"name" jsonschema:"workflow filename to check"`
}

// ReadConfigArgs are the arguments of the read_config tool.
type ReadConfigArgs struct {
	Text string `json:"text" jsonschema:"workflow YAML to read the scan configuration from"`
}

// ReadConfigResult is the output of the read_config tool.
type ReadConfigResult struct {
	Found  bool                `json:"found"`
	Config workflow.ScanConfig `json:"config"`
}

// mcpTools implements the tool handlers. Every call is independent: the
// reconciler and the validators hold no per-document state.
type mcpTools struct {
	reconciler *workflow.Reconciler
	engine     *workflow.Engine
	log        *slog.Logger
}

func newMCPTools() (*mcpTools, error) {
	engine, err := workflow.NewEngine(workflow.EngineOptions{Store: store.NewMemory(constants.DefaultFilename, "")})
	if err != nil {
		return nil, err
	}
	return &mcpTools{
		reconciler: workflow.NewReconciler(),
		engine:     engine,
		log:        logger.NewSlogLogger("cli:mcp_tools"),
	}, nil
}

func toDiagnosticsResult(d workflow.Diagnostics) DiagnosticsResult {
	return DiagnosticsResult{
		Valid:      d.Valid(),
		Errors:     d.ErrorCount(),
		Warnings:   d.WarningCount(),
		Validation: d.Validation,
		Security:   d.Security,
		Filename:   d.Filename,
	}
}

func (t *mcpTools) merge(_ context.Context, _ *mcp.CallToolRequest, args MergeArgs) (*mcp.CallToolResult, MergeToolResult, error) {
	cfg := workflow.DefaultScanConfig()
	if args.Config != nil {
		cfg = args.Config.WithDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, MergeToolResult{}, err
	}
	name := args.Filename
	if name == "" {
		name = constants.DefaultFilename
	}
	t.log.Info("merge", "previous_bytes", len(args.PreviousText), "platform", cfg.Platform)

	overflow := workflow.TreeOverflowExtractor{}.Extract(args.PreviousText, cfg)
	result, err := t.reconciler.Merge(cfg, args.PreviousText, overflow)
	if err != nil {
		return nil, MergeToolResult{}, err
	}
	d := t.engine.Validate(result.Text, name)
	return nil, MergeToolResult{
		Text:        result.Text,
		Removed:     result.Removed,
		Valid:       d.Valid(),
		Diagnostics: toDiagnosticsResult(d),
	}, nil
}

func (t *mcpTools) validate(_ context.Context, _ *mcp.CallToolRequest, args ValidateArgs) (*mcp.CallToolResult, DiagnosticsResult, error) {
	name := args.Filename
	if name == "" {
		name = constants.DefaultFilename
	}
	t.log.Info("validate", "bytes", len(args.Text), "filename", name)
	return nil, toDiagnosticsResult(t.engine.Validate(args.Text, name)), nil
}

func (t *mcpTools) checkFilename(_ context.Context, _ *mcp.CallToolRequest, args CheckFilenameArgs) (*mcp.CallToolResult, FilenameReport, error) {
	t.log.Info("check_filename", "name", args.Name)
	return nil, CheckFilename(args.Name), nil
}

func (t *mcpTools) readConfig(_ context.Context, _ *mcp.CallToolRequest, args ReadConfigArgs) (*mcp.CallToolResult, ReadConfigResult, error) {
	cfg, ok := workflow.ScanRenderer{}.Parse(args.Text, workflow.DefaultScanConfig())
	t.log.Info("read_config", "found", ok)
	return nil, ReadConfigResult{Found: ok, Config: cfg}, nil
}

// NewMCPServer creates an MCP server exposing the merge, validate,
// check_filename and read_config tools.
func NewMCPServer(version string) (*mcp.Server, error) {
	tools, err := newMCPTools()
	if err != nil {
		return nil, err
	}
	server := mcp.NewServer(&mcp.Implementation{Name: string(constants.CLIExtensionPrefix), Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge",
		Description: "Render a scan configuration and merge it into existing workflow YAML, keeping user jobs and keys. Returns the merged text and its diagnostics.",
	}, tools.merge)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "validate",
		Description: "Validate workflow YAML against the schema, the security rules, and the filename rules.",
	}, tools.validate)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_filename",
		Description: "Check a workflow filename and suggest a valid one.",
	}, tools.checkFilename)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_config",
		Description: "Read the scan configuration back from workflow YAML.",
	}, tools.readConfig)

	mcpServerLog.Print("MCP server created with 4 tools")
	return server, nil
}

// NewMCPServerCommand creates the mcp-server command
func NewMCPServerCommand(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run an MCP server exposing the merge and validation tools over stdio",
		Long: `Run a Model Context Protocol server on stdin/stdout. Assistants can call:

  merge           render a configuration and merge it into workflow YAML
  validate        validate workflow YAML
  check_filename  check a workflow filename
  read_config     read the scan configuration from workflow YAML

Examples:
  ` + string(constants.CLIExtensionPrefix) + ` mcp-server`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server, err := NewMCPServer(version)
			if err != nil {
				return err
			}
			mcpServerLog.Print("Serving MCP over stdio")
			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("mcp server stopped: %w", err)
			}
			return nil
		},
	}
	return cmd
}
