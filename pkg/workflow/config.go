package workflow

import (
	"fmt"
	"maps"
	"slices"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/parser"
)

var configLog = logger.New("workflow:config")

// Severity thresholds accepted by the scan action.
var ValidSeverities = []string{"low", "medium", "high", "critical"}

// BreakBuild modes accepted by the scan action. "failure" is the action default.
var ValidBreakBuildModes = []string{constants.BreakBuildDefault, "warning", "never"}

// ScanConfig is the structured configuration edited through forms. Every
// field renders into the generated workflow; fields at their zero value
// render nothing (or their documented default).
type ScanConfig struct {
	Name           string             `yaml:"name,omitempty" json:"name,omitempty" jsonschema:"workflow display name"`
	Platform       constants.Platform `yaml:"platform,omitempty" json:"platform,omitempty" jsonschema:"CI platform the security job is named after"`
	RunsOn         string             `yaml:"runs-on,omitempty" json:"runs-on,omitempty" jsonschema:"runner label"`
	Branches       []string           `yaml:"branches,omitempty" json:"branches,omitempty" jsonschema:"branches that trigger push and pull_request scans"`
	Schedule       string             `yaml:"schedule,omitempty" json:"schedule,omitempty" jsonschema:"cron expression for scheduled scans"`
	ManualDispatch bool               `yaml:"manual-dispatch,omitempty" json:"manual-dispatch,omitempty" jsonschema:"allow manual runs"`

	ScanPaths  []string `yaml:"paths,omitempty" json:"paths,omitempty" jsonschema:"paths to scan"`
	Severity   string   `yaml:"severity,omitempty" json:"severity,omitempty" jsonschema:"minimum reported severity"`
	BreakBuild string   `yaml:"break-build,omitempty" json:"break-build,omitempty" jsonschema:"build outcome when findings exist"`

	DecoratePullRequests bool `yaml:"decorate-pull-requests,omitempty" json:"decorate-pull-requests,omitempty" jsonschema:"comment findings on pull requests"`
	FixPullRequests      bool `yaml:"fix-pull-requests,omitempty" json:"fix-pull-requests,omitempty" jsonschema:"open fix pull requests"`
	CreateSARIFFile      bool `yaml:"create-sarif-file,omitempty" json:"create-sarif-file,omitempty" jsonschema:"write a SARIF report"`
	UploadToGitHub       bool `yaml:"upload-to-github,omitempty" json:"upload-to-github,omitempty" jsonschema:"upload results to GitHub code scanning"`

	Token string            `yaml:"token,omitempty" json:"token,omitempty" jsonschema:"credential expression for the scan action"`
	Env   map[string]string `yaml:"env,omitempty" json:"env,omitempty" jsonschema:"job environment variables"`
}

// DefaultScanConfig returns the configuration a new project starts from.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{}.WithDefaults()
}

// WithDefaults fills unset identity fields with their defaults. Options are left alone.
func (c ScanConfig) WithDefaults() ScanConfig {
	if c.Name == "" {
		c.Name = constants.DefaultWorkflowName
	}
	if c.Platform == "" {
		c.Platform = constants.PlatformGitHub
	}
	if c.RunsOn == "" {
		c.RunsOn = constants.DefaultRunsOn
	}
	if len(c.Branches) == 0 {
		c.Branches = []string{"main"}
	}
	return c
}

// RequiresCredential reports whether any post-scan option is enabled. Each of
// them needs the token input.
func (c ScanConfig) RequiresCredential() bool {
	return c.DecoratePullRequests || c.FixPullRequests || c.CreateSARIFFile || c.UploadToGitHub
}

// TokenOrDefault returns the configured token expression or the default secret reference.
func (c ScanConfig) TokenOrDefault() string {
	if c.Token != "" {
		return c.Token
	}
	return constants.DefaultToken
}

// JobName is the key the security job is rendered under.
func (c ScanConfig) JobName() constants.JobName {
	return c.Platform.JobName()
}

// Validate checks enumerated fields. All problems are reported together.
func (c ScanConfig) Validate() error {
	collector := NewErrorCollector(false)
	if c.Platform != "" && !c.Platform.IsValid() {
		_ = collector.Add(fmt.Errorf("unknown platform %q (expected one of %v)", c.Platform, constants.Platforms))
	}
	if c.Severity != "" && !slices.Contains(ValidSeverities, c.Severity) {
		_ = collector.Add(fmt.Errorf("unknown severity %q (expected one of %v)", c.Severity, ValidSeverities))
	}
	if c.BreakBuild != "" && !slices.Contains(ValidBreakBuildModes, c.BreakBuild) {
		_ = collector.Add(fmt.Errorf("unknown break-build mode %q (expected one of %v)", c.BreakBuild, ValidBreakBuildModes))
	}
	if c.Schedule != "" && !parser.IsCronExpression(c.Schedule) {
		_ = collector.Add(fmt.Errorf("schedule %q is not a five-field cron expression", c.Schedule))
	}
	if slices.Contains(c.Branches, "") {
		_ = collector.Add(fmt.Errorf("branches must not contain empty names"))
	}
	if collector.HasErrors() {
		configLog.Printf("Config validation found %d problems", collector.Count())
	}
	return collector.FormattedError("configuration")
}

// Equal reports whether two configurations render identically.
func (c ScanConfig) Equal(o ScanConfig) bool {
	return c.Name == o.Name &&
		c.Platform == o.Platform &&
		c.RunsOn == o.RunsOn &&
		slices.Equal(c.Branches, o.Branches) &&
		c.Schedule == o.Schedule &&
		c.ManualDispatch == o.ManualDispatch &&
		slices.Equal(c.ScanPaths, o.ScanPaths) &&
		c.Severity == o.Severity &&
		c.BreakBuild == o.BreakBuild &&
		c.DecoratePullRequests == o.DecoratePullRequests &&
		c.FixPullRequests == o.FixPullRequests &&
		c.CreateSARIFFile == o.CreateSARIFFile &&
		c.UploadToGitHub == o.UploadToGitHub &&
		c.Token == o.Token &&
		maps.Equal(c.Env, o.Env)
}

// Clone returns a copy that shares no slices or maps with c.
func (c ScanConfig) Clone() ScanConfig {
	c.Branches = slices.Clone(c.Branches)
	c.ScanPaths = slices.Clone(c.ScanPaths)
	c.Env = maps.Clone(c.Env)
	return c
}
