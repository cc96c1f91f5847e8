package workflow

import (
	"slices"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
)

var jobLocatorLog = logger.New("workflow:job_locator")

// JobLocator finds the key of the security job in a workflow text.
type JobLocator interface {
	PreferredJobName(text string) (string, bool)
}

// ActionJobLocator identifies the security job by the scan action it runs.
type ActionJobLocator struct{}

// PreferredJobName implements JobLocator. Unparsable text has no security job.
func (ActionJobLocator) PreferredJobName(text string) (string, bool) {
	doc, err := document.Parse(text)
	if err != nil {
		return "", false
	}
	return FindSecurityJob(doc)
}

// FindSecurityJob returns the key of the job whose steps use the scan
// action. When several jobs do, the document is ambiguous and no job is
// returned. When none does, a job keyed by a known platform job name is
// used if exactly one exists.
func FindSecurityJob(doc *document.Node) (string, bool) {
	jobs, ok := doc.Get("jobs")
	if !ok || !jobs.IsMapping() {
		return "", false
	}

	var byAction, byName []string
	for _, e := range jobs.Entries {
		if jobUsesScanAction(e.Value) {
			byAction = append(byAction, e.Key)
		}
		if slices.Contains(constants.KnownJobNames, constants.JobName(e.Key)) {
			byName = append(byName, e.Key)
		}
	}

	switch {
	case len(byAction) == 1:
		return byAction[0], true
	case len(byAction) > 1:
		jobLocatorLog.Printf("Ambiguous security job: %v all use %s", byAction, constants.ScanActionRepo)
		return "", false
	case len(byName) == 1:
		return byName[0], true
	default:
		return "", false
	}
}

// ScanStep returns the index and node of the first step using the scan action.
func ScanStep(job *document.Node) (int, *document.Node, bool) {
	steps, ok := job.Get("steps")
	if !ok || !steps.IsSequence() {
		return -1, nil, false
	}
	for i, step := range steps.Items {
		if ActionRepository(stringField(step, "uses")) == constants.ScanActionRepo {
			return i, step, true
		}
	}
	return -1, nil, false
}

func jobUsesScanAction(job *document.Node) bool {
	_, _, ok := ScanStep(job)
	return ok
}
