package security

import (
	"fmt"

	"github.com/scanwf/scanwf/pkg/document"
)

// broadWriteScopes are the scopes whose write access lets a job change code,
// workflow runs or published packages.
var broadWriteScopes = []string{"contents", "actions", "packages"}

// checkPermissions evaluates the three permission rules at workflow and job level.
func checkPermissions(c *scanContext) {
	found := false
	if perms, ok := c.doc.Get("permissions"); ok {
		found = true
		checkPermissionBlock(c, []string{"permissions"}, "workflow", perms)
	}
	c.eachJob(func(key string, job *document.Node) {
		if perms, ok := job.Get("permissions"); ok {
			found = true
			checkPermissionBlock(c, []string{"jobs", key, "permissions"}, fmt.Sprintf("job '%s'", key), perms)
		}
	})

	if !found {
		c.report(RulePermissionsMissing, nil, "",
			"no permissions block found; the job token gets the repository default, which may include write access")
	}
}

func checkPermissionBlock(c *scanContext, path []string, scope string, perms *document.Node) {
	if s, ok := perms.AsString(); ok {
		if s == "write-all" {
			c.report(RulePermissionsWriteAll, path, s,
				fmt.Sprintf("%s grants write-all permissions; list only the scopes the jobs need", scope))
		}
		return
	}
	if !perms.IsMapping() {
		return
	}
	for _, name := range broadWriteScopes {
		level, ok := perms.Get(name)
		if !ok {
			continue
		}
		if s, _ := level.AsString(); s == "write" {
			c.report(RulePermissionsBroadWrite, append(path, name), s,
				fmt.Sprintf("%s grants %s: write", scope, name))
		}
	}
}
