package workflow

import (
	"sort"
	"strings"

	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
)

var overflowLog = logger.New("workflow:overflow")

// OverflowData holds content found in a workflow text that the structured
// configuration cannot express, keyed by JSON pointer. It lets user
// additions survive a regeneration even when the stored text is lost.
type OverflowData struct {
	// SecurityJob is the key of the security job in the text the data was
	// extracted from. Pointers below it follow the job if it is renamed.
	SecurityJob string
	Entries     map[string]*document.Node
}

// Len returns the number of recorded entries.
func (o OverflowData) Len() int {
	return len(o.Entries)
}

// Pointers returns the entry pointers in sorted order.
func (o OverflowData) Pointers() []string {
	out := make([]string, 0, len(o.Entries))
	for p := range o.Entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// OverflowExtractor derives OverflowData from a text and the configuration it is paired with.
type OverflowExtractor interface {
	Extract(text string, cfg ScanConfig) OverflowData
}

// TreeOverflowExtractor compares the parsed text against the rendered configuration.
type TreeOverflowExtractor struct {
	Renderer Renderer
}

var _ OverflowExtractor = TreeOverflowExtractor{}

// Extract implements OverflowExtractor. Keys present in the text but absent
// from the rendered document become entries; steps of the security job that
// the renderer does not produce are recorded as one sequence under
// /jobs/<job>/steps. Unparsable text yields no entries.
func (x TreeOverflowExtractor) Extract(text string, cfg ScanConfig) OverflowData {
	out := OverflowData{Entries: map[string]*document.Node{}}
	doc, err := document.ParseMapping(text)
	if err != nil {
		return out
	}
	renderer := x.Renderer
	if renderer == nil {
		renderer = ScanRenderer{}
	}
	rendered := renderer.Render(cfg)

	w := overflowWalker{out: out, renderedJob: cfg.WithDefaults().JobName().String()}
	if renderedJobs, ok := rendered.Get("jobs"); ok && renderedJobs.Len() == 1 {
		w.renderedJob = renderedJobs.Entries[0].Key
	}
	if job, ok := FindSecurityJob(doc); ok {
		w.textJob = job
		w.out.SecurityJob = job
	}
	w.walk(nil, doc, rendered)

	if out.Len() > 0 {
		overflowLog.Printf("Extracted %d overflow entries: %s", out.Len(), strings.Join(out.Pointers(), ", "))
	}
	return w.out
}

type overflowWalker struct {
	out         OverflowData
	textJob     string
	renderedJob string
}

func (w *overflowWalker) walk(path []string, text, rendered *document.Node) {
	for _, e := range text.Entries {
		childPath := appendPath(path, e.Key)

		counterpart, ok := rendered.Get(e.Key)
		if w.isSecurityJob(path, e.Key) {
			counterpart, ok = rendered.Get(w.renderedJob)
		}
		if !ok {
			w.out.Entries[document.Pointer(childPath...)] = e.Value.Clone()
			continue
		}

		switch {
		case e.Value.IsMapping() && counterpart.IsMapping():
			w.walk(childPath, e.Value, counterpart)
		case e.Key == "steps" && e.Value.IsSequence() && counterpart.IsSequence() && w.isSecurityJobPath(path):
			if extra := extraSteps(e.Value, counterpart); extra.Len() > 0 {
				w.out.Entries[document.Pointer(childPath...)] = extra
			}
		}
	}
}

func (w *overflowWalker) isSecurityJob(parent []string, key string) bool {
	return w.textJob != "" && len(parent) == 1 && parent[0] == "jobs" && key == w.textJob
}

func (w *overflowWalker) isSecurityJobPath(path []string) bool {
	return len(path) == 2 && w.isSecurityJob(path[:1], path[1])
}

// extraSteps returns the steps of have that want does not contain, by identity.
func extraSteps(have, want *document.Node) *document.Node {
	out := document.Sequence()
	for _, step := range have.Items {
		if !containsStep(want, step) {
			out.Items = append(out.Items, step.Clone())
		}
	}
	return out
}

func containsStep(steps, step *document.Node) bool {
	for _, s := range steps.Items {
		if sameStep(s, step) {
			return true
		}
	}
	return false
}

// sameStep compares the first identity field set on both steps. Steps that
// share no identity field are compared structurally.
func sameStep(a, b *document.Node) bool {
	for _, field := range stepIdentityFields {
		va, vb := stringField(a, field), stringField(b, field)
		if va != "" && vb != "" {
			return va == vb
		}
	}
	return a.Equal(b)
}

// Apply returns a copy of doc with every entry whose target is missing
// inserted. Sequences already present receive the entry's items they do not
// yet contain. Entries whose parent does not exist are skipped, so partial
// jobs are never created.
func (o OverflowData) Apply(doc *document.Node) *document.Node {
	if o.Len() == 0 || !doc.IsMapping() {
		return doc
	}
	out := doc.Clone()
	currentJob, hasJob := FindSecurityJob(out)

	for _, ptr := range o.Pointers() {
		value := o.Entries[ptr]
		segs := document.SplitPointer(ptr)
		if len(segs) == 0 {
			continue
		}
		if hasJob && o.SecurityJob != "" && len(segs) > 2 && segs[0] == "jobs" && segs[1] == o.SecurityJob {
			segs[1] = currentJob
		}

		parent, ok := out.Lookup(segs[:len(segs)-1]...)
		if !ok || !parent.IsMapping() {
			overflowLog.Printf("Skipping overflow %s: parent missing", ptr)
			continue
		}
		key := segs[len(segs)-1]
		existing, exists := parent.Get(key)
		switch {
		case !exists:
			parent.Set(key, value.Clone())
		case existing.IsSequence() && value.IsSequence():
			for _, item := range value.Items {
				if !containsStep(existing, item) {
					existing.Items = append(existing.Items, item.Clone())
				}
			}
		}
	}
	return out
}
