// This file implements the merge between a freshly rendered workflow and the
// text the user already has.
//
// # Merge Policy
//
// The rendered document (D_new) comes from the structured configuration; the
// previous document (D_prev) is whatever was stored or typed. D_prev may
// contain anything: extra triggers, unrelated jobs, hand-written steps.
//
//   - Top-level sections are deep-merged with D_new on top: new scalars win,
//     mappings merge key by key, so content the renderer does not produce
//     survives.
//   - Jobs are matched by identity, not by key. The security job found in
//     D_prev (see FindSecurityJob) is overwritten in place under its existing
//     key, so a user who renamed "github" to "security" keeps that name. Its
//     runs-on is kept if present and its env is unioned with existing
//     variables winning.
//   - Without a previous security job, the rendered job is inserted under the
//     platform job name next to the user's jobs.
//
// After merging, overflow entries the merged tree lacks are re-applied, the
// result is pruned, serialized, and annotated.

package workflow

import (
	"fmt"

	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
)

var mergeLog = logger.New("workflow:merge")

// MergeResult is the outcome of a merge.
type MergeResult struct {
	Text     string
	Document *document.Node
	Removed  RemovalLog
}

// Reconciler merges rendered configurations into existing workflow text.
// The zero value uses ScanRenderer and ActionJobLocator.
type Reconciler struct {
	Renderer Renderer
	Locator  JobLocator
}

// NewReconciler returns a Reconciler with the default renderer and locator.
func NewReconciler() *Reconciler {
	return &Reconciler{Renderer: ScanRenderer{}, Locator: ActionJobLocator{}}
}

func (r *Reconciler) renderer() Renderer {
	if r == nil || r.Renderer == nil {
		return ScanRenderer{}
	}
	return r.Renderer
}

func (r *Reconciler) locator() JobLocator {
	if r == nil || r.Locator == nil {
		return ActionJobLocator{}
	}
	return r.Locator
}

// Merge renders cfg, merges it over previousText, re-applies overflow, prunes,
// serializes, and annotates. Unparsable previousText is treated as empty.
func (r *Reconciler) Merge(cfg ScanConfig, previousText string, overflow OverflowData) (MergeResult, error) {
	dNew := r.renderer().Render(cfg)

	dPrev, err := document.ParseMapping(previousText)
	if err != nil {
		mergeLog.Printf("Previous text does not parse, starting from scratch: %v", err)
		dPrev = document.Mapping()
	}

	merged := document.DeepMerge(dPrev, dNew)

	prevJobs, prevOK := dPrev.Get("jobs")
	newJobs, newOK := dNew.Get("jobs")
	if prevOK && newOK && prevJobs.IsMapping() && newJobs.IsMapping() {
		merged.Set("jobs", r.reconcileJobs(cfg, previousText, prevJobs, newJobs))
	}

	merged = overflow.Apply(merged)

	pruned, removed := Prune(merged, cfg.RequiresCredential())
	text, err := document.Marshal(pruned)
	if err != nil {
		return MergeResult{}, fmt.Errorf("failed to serialize merged workflow: %w", err)
	}
	text = Annotate(text, removed)

	mergeLog.Printf("Merged workflow: %d bytes, %d removals", len(text), len(removed))
	return MergeResult{Text: text, Document: pruned, Removed: removed}, nil
}

func (r *Reconciler) reconcileJobs(cfg ScanConfig, previousText string, prevJobs, newJobs *document.Node) *document.Node {
	newKey := cfg.WithDefaults().JobName().String()
	if newJobs.Len() == 1 {
		newKey = newJobs.Entries[0].Key
	}
	newJob, hasNew := newJobs.Get(newKey)

	out := prevJobs.Clone()
	prevKey, found := r.locator().PreferredJobName(previousText)
	if found && !out.Has(prevKey) {
		found = false
	}

	if hasNew {
		if found {
			old, _ := out.Get(prevKey)
			mergeLog.Printf("Overlaying security job %q with rendered job %q", prevKey, newKey)
			out.Set(prevKey, overlayJob(old, newJob))
		} else if existing, ok := out.Get(newKey); ok {
			mergeLog.Printf("No previous security job, overlaying user job %q", newKey)
			out.Set(newKey, overlayJob(existing, newJob))
		} else {
			mergeLog.Printf("No previous security job, inserting %q", newKey)
			out.Set(newKey, newJob.Clone())
		}
	}

	for _, e := range newJobs.Entries {
		if e.Key == newKey {
			continue
		}
		if existing, ok := out.Get(e.Key); ok {
			out.Set(e.Key, document.DeepMerge(existing, e.Value))
		} else {
			out.Set(e.Key, e.Value.Clone())
		}
	}
	return out
}

// overlayJob copies every field of next over prev, except that an existing
// runs-on is kept and env is unioned with prev's variables winning.
func overlayJob(prev, next *document.Node) *document.Node {
	if !prev.IsMapping() || !next.IsMapping() {
		return next.Clone()
	}
	out := prev.Clone()
	for _, e := range next.Entries {
		switch e.Key {
		case "runs-on":
			if out.Has("runs-on") {
				continue
			}
		case "env":
			if prevEnv, ok := out.Get("env"); ok && prevEnv.IsMapping() && e.Value.IsMapping() {
				env := prevEnv.Clone()
				for _, v := range e.Value.Entries {
					if !env.Has(v.Key) {
						env.Set(v.Key, v.Value.Clone())
					}
				}
				out.Set("env", env)
				continue
			}
		}
		out.Set(e.Key, e.Value.Clone())
	}
	return out
}
