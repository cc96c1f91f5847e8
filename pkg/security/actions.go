package security

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/scanwf/scanwf/pkg/document"
)

var fullSHARegex = regexp.MustCompile(`^[0-9a-f]{40}$`)

// checkUnpinnedActions reports step and reusable-workflow references whose
// ref can move: branches, missing refs, or anything that is neither a
// commit SHA nor a semantic version tag.
func checkUnpinnedActions(c *scanContext) {
	c.eachStep(func(path []string, step *document.Node) {
		checkActionRef(c, appendPath(path, "uses"), step)
	})
	c.eachJob(func(key string, job *document.Node) {
		checkActionRef(c, []string{"jobs", key, "uses"}, job)
	})
}

func checkActionRef(c *scanContext, path []string, n *document.Node) {
	v, ok := n.Get("uses")
	if !ok {
		return
	}
	uses, ok := v.AsString()
	if !ok || uses == "" || strings.HasPrefix(uses, "./") || strings.HasPrefix(uses, "docker://") {
		return
	}
	_, ref, hasRef := strings.Cut(uses, "@")
	switch {
	case !hasRef || ref == "":
		c.report(RuleUnpinnedAction, path, uses, fmt.Sprintf("'%s' has no ref; pin it to a release tag or commit SHA", uses))
	case fullSHARegex.MatchString(ref), semver.IsValid(ref):
	default:
		c.report(RuleUnpinnedAction, path, uses, fmt.Sprintf("'%s' uses ref '%s', which can change; pin it to a release tag or commit SHA", uses, ref))
	}
}

// checkSecretsInherit reports reusable-workflow jobs that receive every secret.
func checkSecretsInherit(c *scanContext) {
	c.eachJob(func(key string, job *document.Node) {
		secrets, ok := job.Get("secrets")
		if !ok {
			return
		}
		if s, _ := secrets.AsString(); s == "inherit" {
			c.report(RuleSecretsInherit, []string{"jobs", key, "secrets"}, s,
				fmt.Sprintf("job '%s' passes every repository secret to a reusable workflow; list the secrets it needs", key))
		}
	})
}
