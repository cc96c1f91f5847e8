package console

import (
	"strings"

	"github.com/fatih/camelcase"
)

// Words that camelcase splitting breaks apart or lowercases wrongly.
var labelFixups = []struct{ from, to string }{
	{"git hub", "GitHub"},
	{"sarif", "SARIF"},
	{"id", "ID"},
}

// HumanizeKey turns an input or config key such as "decoratePullRequests" or
// "persist-credentials" into a sentence-case label ("Decorate pull requests").
func HumanizeKey(key string) string {
	var words []string
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' || r == '.' }) {
		for _, w := range camelcase.Split(part) {
			words = append(words, strings.ToLower(w))
		}
	}
	if len(words) == 0 {
		return ""
	}

	label := " " + strings.Join(words, " ") + " "
	for _, f := range labelFixups {
		label = strings.ReplaceAll(label, " "+f.from+" ", " "+f.to+" ")
	}
	label = strings.TrimSpace(label)
	return strings.ToUpper(label[:1]) + label[1:]
}
