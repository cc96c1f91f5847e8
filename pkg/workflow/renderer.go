package workflow

import (
	"slices"
	"strings"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
)

var rendererLog = logger.New("workflow:renderer")

// Renderer converts between the structured configuration and documents.
type Renderer interface {
	// Render builds the document the configuration describes.
	Render(cfg ScanConfig) *document.Node
	// Parse derives a configuration from text. Fields the text does not
	// express are taken from hint. ok is false when the text has no
	// recognizable security job.
	Parse(text string, hint ScanConfig) (ScanConfig, bool)
}

// ScanRenderer renders the security-scan workflow.
type ScanRenderer struct{}

var _ Renderer = ScanRenderer{}

// Render implements Renderer. The result has exactly one job, keyed by the
// platform job name. Disabled options are not emitted, and the token input
// only appears when an enabled option needs it.
func (ScanRenderer) Render(cfg ScanConfig) *document.Node {
	cfg = cfg.WithDefaults()
	rendererLog.Printf("Rendering workflow: platform=%s credential=%v sarif=%v", cfg.Platform, cfg.RequiresCredential(), cfg.CreateSARIFFile)

	job := map[string]any{
		"name":    constants.DefaultJobDisplayName,
		"runs-on": cfg.RunsOn,
		"steps":   renderSteps(cfg),
	}
	if len(cfg.Env) > 0 {
		job["env"] = cfg.Env
	}

	jobs := document.Mapping()
	jobs.Set(cfg.JobName().String(), document.OrderMapFields(job, constants.PriorityJobFields))

	workflow := map[string]any{
		"name":        cfg.Name,
		"on":          renderTriggers(cfg),
		"permissions": renderPermissions(cfg),
		"jobs":        jobs,
	}
	return document.OrderMapFields(workflow, constants.PriorityWorkflowFields)
}

func renderTriggers(cfg ScanConfig) *document.Node {
	on := map[string]any{
		"push":         map[string]any{"branches": slices.Clone(cfg.Branches)},
		"pull_request": map[string]any{"branches": slices.Clone(cfg.Branches)},
	}
	if cfg.Schedule != "" {
		on["schedule"] = []any{map[string]any{"cron": cfg.Schedule}}
	}
	if cfg.ManualDispatch {
		on[constants.WorkflowDispatchKey] = document.Mapping()
	}
	return document.OrderMapFields(on, constants.PriorityTriggerFields)
}

func renderPermissions(cfg ScanConfig) *document.Node {
	perms := map[string]any{"contents": "read"}
	if cfg.DecoratePullRequests || cfg.FixPullRequests {
		perms["pull-requests"] = "write"
	}
	if cfg.UploadToGitHub {
		perms["security-events"] = "write"
	}
	return document.OrderMapFields(perms, nil)
}

func renderSteps(cfg ScanConfig) []any {
	checkout := &WorkflowStep{Name: "Checkout", Uses: constants.CheckoutActionRef.String()}
	scan := &WorkflowStep{
		Name: "Run security scan",
		ID:   constants.ScanStepID.String(),
		Uses: constants.ScanActionRef.String(),
		With: scanInputs(cfg),
	}
	steps := []any{checkout.ToNode(), scan.ToNode()}

	if cfg.CreateSARIFFile && cfg.UploadToGitHub {
		upload := &WorkflowStep{
			Name: "Upload SARIF",
			If:   "always()",
			Uses: constants.UploadSARIFActionRef.String(),
			With: map[string]any{"sarif_file": constants.SARIFOutputFile},
		}
		steps = append(steps, upload.ToNode())
	}
	return steps
}

func scanInputs(cfg ScanConfig) map[string]any {
	with := make(map[string]any)
	if len(cfg.ScanPaths) > 0 {
		with[constants.InputPaths] = strings.Join(cfg.ScanPaths, "\n")
	}
	if cfg.Severity != "" {
		with[constants.InputSeverity] = cfg.Severity
	}
	if cfg.BreakBuild != "" {
		with[constants.InputBreakBuild] = cfg.BreakBuild
	}
	if cfg.DecoratePullRequests {
		with[constants.InputDecoratePullRequests] = true
	}
	if cfg.FixPullRequests {
		with[constants.InputFixPullRequests] = true
	}
	if cfg.CreateSARIFFile {
		with[constants.InputCreateSARIFFile] = true
	}
	if cfg.UploadToGitHub {
		with[constants.InputUploadToGitHub] = true
	}
	if cfg.RequiresCredential() {
		with[constants.CredentialField] = cfg.TokenOrDefault()
	}
	return with
}

// Parse implements Renderer.
func (ScanRenderer) Parse(text string, hint ScanConfig) (ScanConfig, bool) {
	doc, err := document.ParseMapping(text)
	if err != nil {
		return hint, false
	}
	jobKey, ok := FindSecurityJob(doc)
	if !ok {
		rendererLog.Print("No security job in text; config unchanged")
		return hint, false
	}
	job, _ := doc.Lookup("jobs", jobKey)

	cfg := hint.Clone()
	if name := stringField(doc, "name"); name != "" {
		cfg.Name = name
	}
	if p := constants.Platform(jobKey); p.IsValid() {
		cfg.Platform = p
	}
	parseTriggers(doc, &cfg)

	if runsOn := stringField(job, "runs-on"); runsOn != "" {
		cfg.RunsOn = runsOn
	}
	cfg.Env = nil
	if env, ok := job.Get("env"); ok && env.IsMapping() {
		cfg.Env = stringMap(env)
	}

	if _, step, ok := ScanStep(job); ok {
		parseScanInputs(StepFromNode(step), &cfg)
	}
	rendererLog.Printf("Parsed config from job %q", jobKey)
	return cfg, true
}

func parseTriggers(doc *document.Node, cfg *ScanConfig) {
	on, ok := doc.Get("on")
	if !ok || !on.IsMapping() {
		return
	}
	if branches, ok := on.Lookup("push", "branches"); ok && branches.IsSequence() {
		cfg.Branches = nil
		for _, b := range branches.Items {
			if s, ok := b.AsString(); ok {
				cfg.Branches = append(cfg.Branches, s)
			}
		}
	}
	cfg.Schedule = ""
	if cron, ok := on.Lookup("schedule", "0", "cron"); ok {
		cfg.Schedule, _ = cron.AsString()
	}
	cfg.ManualDispatch = on.Has(constants.WorkflowDispatchKey)
}

func parseScanInputs(step *WorkflowStep, cfg *ScanConfig) {
	with := step.With
	enabled := func(key string) bool {
		b, _ := with[key].(bool)
		return b
	}
	text := func(key string) string {
		s, _ := with[key].(string)
		return s
	}

	cfg.ScanPaths = nil
	for _, line := range strings.Split(text(constants.InputPaths), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cfg.ScanPaths = append(cfg.ScanPaths, line)
		}
	}
	cfg.Severity = text(constants.InputSeverity)
	cfg.BreakBuild = text(constants.InputBreakBuild)
	cfg.DecoratePullRequests = enabled(constants.InputDecoratePullRequests)
	cfg.FixPullRequests = enabled(constants.InputFixPullRequests)
	cfg.CreateSARIFFile = enabled(constants.InputCreateSARIFFile)
	cfg.UploadToGitHub = enabled(constants.InputUploadToGitHub)
	token := text(constants.CredentialField)
	if token != "" && (token != constants.DefaultToken || cfg.Token != "") {
		cfg.Token = token
	}
}
