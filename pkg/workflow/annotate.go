package workflow

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/stringutil"
)

var annotateLog = logger.New("workflow:annotate")

// withBlockKey is the only block whose removals are written back as comments.
const withBlockKey = "with"

// Annotate re-inserts pruned action inputs as YAML comments so the user can
// see which options were turned off. For every group of removals whose path
// runs through a with block, comment lines of the form
//
//	# decoratePullRequests: false
//
// are inserted after the last line of that block, at the indentation of its
// children. If the block itself was pruned away, the comments go under the
// nearest surviving ancestor, preceded by a "# with:" header. Existing
// lines are never modified.
func Annotate(text string, removed RemovalLog) string {
	if len(removed) == 0 {
		return text
	}

	lines := strings.Split(text, "\n")
	positions := document.IndexPositions(text)
	order, groups := removed.Group()

	type insertion struct {
		after int
		seq   int
		lines []string
	}
	var inserts []insertion

	for i, key := range order {
		group := groups[key]
		path := group[0].Path
		if !slices.Contains(path, withBlockKey) || slices.Contains(path, DroppedElement) {
			continue
		}
		after, comments, ok := planComments(lines, positions, path, group)
		if !ok {
			annotateLog.Printf("No anchor for removals under %s", key)
			continue
		}
		inserts = append(inserts, insertion{after: after, seq: i, lines: comments})
	}

	if len(inserts) == 0 {
		return text
	}

	// Apply bottom-up so earlier line numbers stay valid.
	sort.SliceStable(inserts, func(a, b int) bool {
		if inserts[a].after != inserts[b].after {
			return inserts[a].after > inserts[b].after
		}
		return inserts[a].seq > inserts[b].seq
	})
	for _, ins := range inserts {
		lines = slices.Insert(lines, ins.after+1, ins.lines...)
	}
	annotateLog.Printf("Inserted comments for %d blocks", len(inserts))
	return strings.Join(lines, "\n")
}

// planComments finds where the comments for path go and renders them.
// after is the 0-based index of the line the comments follow.
func planComments(lines []string, positions document.PositionIndex, path []string, group []RemovedField) (int, []string, bool) {
	anchorDepth := -1
	var anchor document.Position
	for depth := len(path); depth >= 1; depth-- {
		if pos, ok := positions[document.Pointer(path[:depth]...)]; ok {
			anchorDepth, anchor = depth, pos
			break
		}
	}
	if anchorDepth < 0 || anchor.Line < 1 || anchor.Line > len(lines) {
		return 0, nil, false
	}
	missing := path[anchorDepth:]
	for _, seg := range missing {
		if isIndex(seg) {
			return 0, nil, false
		}
	}

	isItem := isIndex(path[anchorDepth-1])
	keyIndent := anchor.Column - 1
	start := anchor.Line - 1

	last := start
	childIndent := -1
	for i := start + 1; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		indent := stringutil.LeadingSpaces(lines[i])
		inBlock := indent > keyIndent ||
			(isItem && indent == keyIndent) ||
			(!isItem && indent == keyIndent && strings.HasPrefix(trimmed, "- "))
		if !inBlock {
			break
		}
		if childIndent < 0 {
			childIndent = indent
		}
		last = i
	}

	switch {
	case isItem:
		childIndent = keyIndent
	case childIndent < 0:
		childIndent = keyIndent + 2
	}

	var out []string
	indent := childIndent
	for _, seg := range missing {
		out = append(out, strings.Repeat(" ", indent)+"# "+seg+":")
		indent += 2
	}
	for _, r := range group {
		out = append(out, strings.Repeat(" ", indent)+"# "+r.Key+": "+formatCommentValue(r.Value))
	}
	return last, out, true
}

func formatCommentValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strings.ReplaceAll(t, "\n", `\n`)
	default:
		return fmt.Sprint(t)
	}
}

func isIndex(seg string) bool {
	_, err := strconv.Atoi(seg)
	return err == nil
}
