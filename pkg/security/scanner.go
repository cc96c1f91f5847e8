// Package security scans workflow documents for risky patterns: broad
// permissions, script injection, literal credentials, risky triggers and
// unpinned actions.
//
// Each rule is a function over the parsed document. Findings carry the rule
// id, a severity taken from the rule, the line of the offending field when it
// can be located, and the JSON pointer of that field.
package security

import (
	"slices"
	"strconv"

	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/types"
)

var scannerLog = logger.New("security:scanner")

// Warning is one security finding.
type Warning struct {
	Rule     string         `json:"rule"`
	Message  string         `json:"message"`
	Severity types.Severity `json:"severity"`
	Line     int            `json:"line,omitempty"`
	Field    string         `json:"field,omitempty"`
	Value    string         `json:"value,omitempty"`
}

// Rule describes one entry of the catalogue.
type Rule struct {
	ID          string         `json:"id"`
	Severity    types.Severity `json:"severity"`
	Description string         `json:"description"`
}

var (
	RulePermissionsWriteAll   = Rule{"permissions-write-all", types.SeverityError, "permissions: write-all grants every scope"}
	RulePermissionsBroadWrite = Rule{"permissions-broad-write", types.SeverityWarning, "write access to contents, actions or packages"}
	RulePermissionsMissing    = Rule{"permissions-missing", types.SeverityWarning, "no permissions block, the repository default applies"}
	RuleTemplateInjection     = Rule{"template-injection", types.SeverityError, "untrusted expression interpolated into a run script"}
	RuleRemoteScriptExec      = Rule{"remote-script-exec", types.SeverityError, "downloaded script piped into a shell"}
	RuleHardcodedSecret       = Rule{"hardcoded-secret", types.SeverityError, "credential literal in env or with"}
	RuleCredentialLiteral     = Rule{"credential-literal", types.SeverityError, "token input that is not an expression"}
	RuleRiskyTrigger          = Rule{"risky-trigger", types.SeverityWarning, "trigger that runs with secrets on untrusted input"}
	RuleUnpinnedAction        = Rule{"unpinned-action", types.SeverityWarning, "action ref that is neither a commit SHA nor a version tag"}
	RuleSecretsInherit        = Rule{"secrets-inherit", types.SeverityWarning, "reusable workflow receives every secret"}
)

// Catalogue lists every rule in evaluation order.
func Catalogue() []Rule {
	return []Rule{
		RulePermissionsWriteAll,
		RulePermissionsBroadWrite,
		RulePermissionsMissing,
		RuleTemplateInjection,
		RuleRemoteScriptExec,
		RuleHardcodedSecret,
		RuleCredentialLiteral,
		RuleRiskyTrigger,
		RuleUnpinnedAction,
		RuleSecretsInherit,
	}
}

type check func(*scanContext)

// Scanner evaluates the rule catalogue. It holds no mutable state and is
// safe for concurrent use.
type Scanner struct {
	checks []check
}

// NewScanner returns a Scanner running every rule of the catalogue.
func NewScanner() *Scanner {
	return &Scanner{checks: []check{
		checkPermissions,
		checkTemplateInjection,
		checkRemoteScripts,
		checkHardcodedSecrets,
		checkCredentialLiterals,
		checkRiskyTriggers,
		checkUnpinnedActions,
		checkSecretsInherit,
	}}
}

// Scan parses text and returns its findings ordered by line. Text that does
// not parse yields no findings; the structural validator reports it.
func (s *Scanner) Scan(text string) []Warning {
	doc, err := document.ParseMapping(text)
	if err != nil {
		scannerLog.Printf("Skipping scan of unparsable text: %v", err)
		return nil
	}
	ctx := &scanContext{doc: doc, positions: document.IndexPositions(text)}
	for _, c := range s.checks {
		c(ctx)
	}
	slices.SortStableFunc(ctx.out, func(a, b Warning) int { return a.Line - b.Line })
	scannerLog.Printf("Scan found %d findings", len(ctx.out))
	return ctx.out
}

type scanContext struct {
	doc       *document.Node
	positions document.PositionIndex
	out       []Warning
}

func (c *scanContext) report(rule Rule, path []string, value, message string) {
	pointer := document.Pointer(path...)
	c.out = append(c.out, Warning{
		Rule:     rule.ID,
		Message:  message,
		Severity: rule.Severity,
		Line:     c.positions.Line(pointer),
		Field:    pointer,
		Value:    value,
	})
}

// eachJob calls fn for every mapping under jobs, in document order.
func (c *scanContext) eachJob(fn func(key string, job *document.Node)) {
	jobs, ok := c.doc.Get("jobs")
	if !ok || !jobs.IsMapping() {
		return
	}
	for _, e := range jobs.Entries {
		if e.Value.IsMapping() {
			fn(e.Key, e.Value)
		}
	}
}

// eachStep calls fn for every mapping in a job's steps sequence.
func (c *scanContext) eachStep(fn func(path []string, step *document.Node)) {
	c.eachJob(func(key string, job *document.Node) {
		steps, ok := job.Get("steps")
		if !ok || !steps.IsSequence() {
			return
		}
		for i, step := range steps.Items {
			if step.IsMapping() {
				fn([]string{"jobs", key, "steps", strconv.Itoa(i)}, step)
			}
		}
	})
}

// walkMappings calls fn for every key/value pair in the document, depth first.
func walkMappings(path []string, n *document.Node, fn func(path []string, key string, value *document.Node)) {
	switch n.Kind {
	case document.MappingKind:
		for _, e := range n.Entries {
			childPath := append(slices.Clone(path), e.Key)
			fn(path, e.Key, e.Value)
			walkMappings(childPath, e.Value, fn)
		}
	case document.SequenceKind:
		for i, item := range n.Items {
			walkMappings(append(slices.Clone(path), strconv.Itoa(i)), item, fn)
		}
	}
}
