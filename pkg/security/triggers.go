package security

import (
	"fmt"
	"slices"

	"github.com/scanwf/scanwf/pkg/constants"
)

// checkRiskyTriggers reports triggers that run with repository secrets on
// content from forks or other untrusted sources.
func checkRiskyTriggers(c *scanContext) {
	on, ok := c.doc.Get("on")
	if !ok {
		return
	}
	risky := func(name string, path []string) {
		if slices.Contains(constants.RiskyTriggers, name) {
			c.report(RuleRiskyTrigger, path, name,
				fmt.Sprintf("trigger '%s' runs with write access and secrets on untrusted input", name))
		}
	}

	if s, ok := on.AsString(); ok {
		risky(s, []string{"on"})
		return
	}
	for i, item := range on.Items {
		if s, ok := item.AsString(); ok {
			risky(s, []string{"on", fmt.Sprint(i)})
		}
	}
	for _, e := range on.Entries {
		risky(e.Key, []string{"on", e.Key})
	}
}
