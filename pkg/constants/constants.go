package constants

import (
	"os"
	"path/filepath"
	"slices"
)

// CLIExtensionPrefix is the command name used in user-facing messages.
const CLIExtensionPrefix = "scanwf"

// Semantic types for identifiers that flow through the merge pipeline. They
// keep job keys, step ids, and action references from being mixed up.

// JobName is the key of a job under the jobs mapping.
type JobName string

func (j JobName) String() string { return string(j) }

// IsValid reports whether the job name is non-empty.
func (j JobName) IsValid() bool { return j != "" }

// StepID is the id field of a step.
type StepID string

func (s StepID) String() string { return string(s) }

// IsValid reports whether the step id is non-empty.
func (s StepID) IsValid() bool { return s != "" }

// ActionRef is a "owner/repo@ref" reference as it appears in a uses field.
type ActionRef string

func (a ActionRef) String() string { return string(a) }

// IsValid reports whether the reference is non-empty.
func (a ActionRef) IsValid() bool { return a != "" }

// Platform selects the CI system the generated job is named after.
type Platform string

const (
	PlatformGitHub    Platform = "github"
	PlatformGitLab    Platform = "gitlab"
	PlatformAzure     Platform = "azure"
	PlatformBitbucket Platform = "bitbucket"
)

// Platforms lists every supported platform in display order.
var Platforms = []Platform{PlatformGitHub, PlatformGitLab, PlatformAzure, PlatformBitbucket}

func (p Platform) String() string { return string(p) }

// IsValid reports whether p is one of Platforms.
func (p Platform) IsValid() bool { return slices.Contains(Platforms, p) }

// JobName returns the job key used for the security job on this platform.
// Unknown platforms fall back to FallbackJobName.
func (p Platform) JobName() JobName {
	if p.IsValid() {
		return JobName(p)
	}
	return FallbackJobName
}

// FallbackJobName is the job key used when the platform is unknown.
const FallbackJobName JobName = "security-scan"

// KnownJobNames are the job keys the generator may produce. The job locator
// falls back to them when no job references the scan action.
var KnownJobNames = []JobName{
	JobName(PlatformGitHub),
	JobName(PlatformGitLab),
	JobName(PlatformAzure),
	JobName(PlatformBitbucket),
	FallbackJobName,
}

// Action references emitted by the renderer.
const (
	ScanActionRepo                  = "scanwf/security-scan-action"
	ScanActionRef         ActionRef = ScanActionRepo + "@v2"
	CheckoutActionRef     ActionRef = "actions/checkout@v4"
	UploadSARIFActionRef  ActionRef = "github/codeql-action/upload-sarif@v3"
	ScanStepID            StepID    = "scan"
	SARIFOutputFile                 = "scanwf-results.sarif"
	DefaultWorkflowName             = "Security Scan"
	DefaultJobDisplayName           = "Security scan"
	DefaultRunsOn                   = "ubuntu-latest"
)

// CredentialField is the step input that carries the access token. It is
// pruned whenever no enabled option needs it.
const CredentialField = "token"

// DefaultToken is the credential expression used when none is configured.
const DefaultToken = "${{ secrets.GITHUB_TOKEN }}"

// BreakBuildDefault is the action's own default for breakBuild. Rendering it
// explicitly is redundant, so the pruner removes it.
const BreakBuildDefault = "failure"

// WorkflowDispatchKey is the only key whose empty mapping value is meaningful.
const WorkflowDispatchKey = "workflow_dispatch"

// Scan step inputs.
const (
	InputPaths                = "paths"
	InputSeverity             = "severity"
	InputBreakBuild           = "breakBuild"
	InputDecoratePullRequests = "decoratePullRequests"
	InputFixPullRequests      = "fixPullRequests"
	InputCreateSARIFFile      = "createSarifFile"
	InputUploadToGitHub       = "uploadToGitHub"
)

// Field ordering used when rendering. Fields not listed are sorted alphabetically after these.
var (
	PriorityWorkflowFields = []string{"name", "run-name", "on", "permissions", "env", "concurrency", "jobs"}
	PriorityTriggerFields  = []string{"push", "pull_request", "schedule", WorkflowDispatchKey}
	PriorityJobFields      = []string{"name", "runs-on", "needs", "if", "permissions", "environment", "env", "steps"}
	PriorityStepFields     = []string{"name", "id", "if", "uses", "run", "with", "env"}
	PriorityScanInputs     = []string{
		InputPaths,
		InputSeverity,
		InputBreakBuild,
		InputDecoratePullRequests,
		InputFixPullRequests,
		InputCreateSARIFFile,
		InputUploadToGitHub,
		CredentialField,
	}
)

// RiskyTriggers run with elevated privileges on code or input that an outside
// contributor controls.
var RiskyTriggers = []string{"pull_request_target", "workflow_run", "issue_comment"}

// Filename limits.
const (
	MaxFilenameLength = 255
	FallbackFilename  = "security-scan"
	DefaultFilename   = FallbackFilename + ".yml"
)

// Environment variables read by the CLI.
const (
	ParseCacheSizeEnvVar  = "SCANWF_PARSE_CACHE_SIZE"
	ValidateWorkersEnvVar = "SCANWF_VALIDATE_WORKERS"
	NoActionlintEnvVar    = "SCANWF_NO_ACTIONLINT"
	GitHubTokenEnvVar     = "GH_TOKEN"
)

const (
	DefaultParseCacheSize  = 64
	DefaultValidateWorkers = 4
)

// ConfigFileName is the scan configuration file, relative to the repository root.
var ConfigFileName = filepath.Join(".github", "scanwf.yml")

// WorkflowDirEnvVar overrides the directory workflows are written to.
const WorkflowDirEnvVar = "SCANWF_WORKFLOW_DIR"

// GetWorkflowDir returns the workflows directory, relative to the repository
// root unless SCANWF_WORKFLOW_DIR names another location.
func GetWorkflowDir() string {
	if dir := os.Getenv(WorkflowDirEnvVar); dir != "" {
		return dir
	}
	return filepath.Join(".github", "workflows")
}
