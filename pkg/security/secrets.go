package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/stringutil"
)

// secretPattern is a credential format that should never appear as a literal.
type secretPattern struct {
	name string
	re   *regexp.Regexp
}

var secretPatterns = []secretPattern{
	{"GitHub personal access token", regexp.MustCompile(`ghp_[A-Za-z0-9]{36}`)},
	{"GitHub fine-grained token", regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`)},
	{"GitHub app or OAuth token", regexp.MustCompile(`gh[ousr]_[A-Za-z0-9]{36}`)},
	{"AWS access key id", regexp.MustCompile(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"Google API key", regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`)},
	{"Slack token", regexp.MustCompile(`xox[baprs]-[A-Za-z0-9-]{10,}`)},
	{"private key", regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
}

// secretBlocks are the mapping keys whose values end up in the job environment.
var secretBlocks = map[string]bool{"env": true, "with": true}

// checkHardcodedSecrets looks for credential literals in env and with blocks.
func checkHardcodedSecrets(c *scanContext) {
	walkMappings(nil, c.doc, func(path []string, key string, value *document.Node) {
		if !secretBlocks[key] || !value.IsMapping() {
			return
		}
		for _, e := range value.Entries {
			s, ok := e.Value.AsString()
			if !ok {
				continue
			}
			for _, p := range secretPatterns {
				if match := p.re.FindString(s); match != "" {
					c.report(RuleHardcodedSecret, appendPath(path, key, e.Key), stringutil.MaskSecret(match),
						fmt.Sprintf("%s found in %s.%s; store it as a repository secret", p.name, key, e.Key))
					break
				}
			}
		}
	})
}

// checkCredentialLiterals reports token inputs written as plain strings.
func checkCredentialLiterals(c *scanContext) {
	walkMappings(nil, c.doc, func(path []string, key string, value *document.Node) {
		if key != "with" || !value.IsMapping() {
			return
		}
		token, ok := value.Get(constants.CredentialField)
		if !ok {
			return
		}
		s, ok := token.AsString()
		if !ok || s == "" || strings.Contains(s, "${{") {
			return
		}
		c.report(RuleCredentialLiteral, appendPath(path, key, constants.CredentialField), stringutil.MaskSecret(s),
			"token input is a literal value; reference a secret such as "+constants.DefaultToken)
	})
}

func appendPath(path []string, segs ...string) []string {
	return append(append([]string(nil), path...), segs...)
}
