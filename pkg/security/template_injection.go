package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/stringutil"
)

var templateInjectionLog = logger.New("security:template_injection")

var (
	// inlineExpressionRegex matches GitHub Actions template expressions ${{ ... }}
	inlineExpressionRegex = regexp.MustCompile(`\$\{\{[^}]+\}\}`)

	// unsafeContextRegex matches contexts an outside contributor can control.
	unsafeContextRegex = regexp.MustCompile(`\$\{\{\s*(github\.event\.|steps\.[^}]+\.outputs\.|inputs\.)[^}]+\}\}`)

	// remoteScriptRegex matches a download piped straight into a shell.
	remoteScriptRegex = regexp.MustCompile(`\b(curl|wget)\b[^|\n]*\|\s*(sudo\s+)?(ba|z|da|k)?sh\b`)

	heredocDelimiters = []string{"EOF", "EOL", "END", "HEREDOC", "JSON", "YAML", "SQL"}
	heredocPatterns   = compileHeredocPatterns()
)

func compileHeredocPatterns() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, delimiter := range heredocDelimiters {
		out = append(out,
			regexp.MustCompile(fmt.Sprintf(`(?ms)<<-?\s*['"]%s['"].*?\n\s*%s\s*$`, delimiter, delimiter)),
			regexp.MustCompile(fmt.Sprintf(`(?ms)<<-?\s*%s.*?\n\s*%s\s*$`, delimiter, delimiter)),
		)
	}
	return out
}

// runScript is a run: value and the path of its key.
type runScript struct {
	path   []string
	script string
}

// runScripts returns every string run: value in the document.
func runScripts(doc *document.Node) []runScript {
	var out []runScript
	walkMappings(nil, doc, func(path []string, key string, value *document.Node) {
		if key != "run" {
			return
		}
		if s, ok := value.AsString(); ok {
			out = append(out, runScript{path: append(append([]string(nil), path...), key), script: s})
		}
	})
	return out
}

// checkTemplateInjection reports untrusted expressions used directly in run
// scripts. Expressions inside heredocs are written to files, not executed,
// and are ignored.
func checkTemplateInjection(c *scanContext) {
	for _, run := range runScripts(c.doc) {
		if !inlineExpressionRegex.MatchString(run.script) {
			continue
		}
		script := removeHeredocContent(run.script)
		for _, expr := range inlineExpressionRegex.FindAllString(script, -1) {
			if !unsafeContextRegex.MatchString(expr) {
				continue
			}
			templateInjectionLog.Printf("Found template injection risk: %s", expr)
			c.report(RuleTemplateInjection, run.path, expr, fmt.Sprintf(
				"%s context used directly in a shell command (%s); pass it through an env variable instead",
				expressionContext(expr), extractRunSnippet(script, expr)))
		}
	}
}

func checkRemoteScripts(c *scanContext) {
	for _, run := range runScripts(c.doc) {
		for _, line := range strings.Split(run.script, "\n") {
			if m := remoteScriptRegex.FindString(line); m != "" {
				c.report(RuleRemoteScriptExec, run.path, strings.TrimSpace(line),
					fmt.Sprintf("remote script executed without verification: %s", stringutil.Truncate(m, 80)))
			}
		}
	}
}

// removeHeredocContent removes heredoc bodies from a shell script.
func removeHeredocContent(content string) string {
	result := content
	for _, re := range heredocPatterns {
		result = re.ReplaceAllString(result, "# heredoc removed")
	}
	return result
}

// extractRunSnippet returns the trimmed line of the script holding expression.
func extractRunSnippet(runContent string, expression string) string {
	for _, line := range strings.Split(runContent, "\n") {
		if strings.Contains(line, expression) {
			return stringutil.Truncate(strings.TrimSpace(line), 100)
		}
	}
	return expression
}

// expressionContext names the untrusted context an expression reads.
func expressionContext(expression string) string {
	switch {
	case strings.Contains(expression, "github.event."):
		return "github.event"
	case strings.Contains(expression, "steps.") && strings.Contains(expression, ".outputs."):
		return "steps.*.outputs"
	case strings.Contains(expression, "inputs."):
		return "workflow inputs"
	default:
		return "unknown"
	}
}
