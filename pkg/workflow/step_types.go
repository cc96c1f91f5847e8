package workflow

import (
	"maps"
	"strings"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/document"
	"github.com/scanwf/scanwf/pkg/logger"
)

var stepTypesLog = logger.New("workflow:step_types")

// WorkflowStep is a single step of a job. It gives the renderer a typed way
// to build steps and the locator a typed view of parsed ones.
type WorkflowStep struct {
	Name string
	ID   string
	If   string
	Uses string
	Run  string
	With map[string]any
	Env  map[string]string
}

// IsUsesStep returns true if this step uses an action (has a "uses" field)
func (s *WorkflowStep) IsUsesStep() bool {
	return s.Uses != ""
}

// IsRunStep returns true if this step runs a command (has a "run" field)
func (s *WorkflowStep) IsRunStep() bool {
	return s.Run != ""
}

// ActionRepository returns the "owner/repo" part of Uses, without the ref.
func (s *WorkflowStep) ActionRepository() string {
	return ActionRepository(s.Uses)
}

// ToNode renders the step with conventional field order. With inputs are
// ordered by constants.PriorityScanInputs; unknown inputs follow alphabetically.
func (s *WorkflowStep) ToNode() *document.Node {
	stepTypesLog.Printf("Rendering step: name=%q uses=%q with=%d", s.Name, s.Uses, len(s.With))
	m := make(map[string]any)
	if s.Name != "" {
		m["name"] = s.Name
	}
	if s.ID != "" {
		m["id"] = s.ID
	}
	if s.If != "" {
		m["if"] = s.If
	}
	if s.Uses != "" {
		m["uses"] = s.Uses
	}
	if s.Run != "" {
		m["run"] = s.Run
	}
	if len(s.With) > 0 {
		m["with"] = document.OrderMapFields(s.With, constants.PriorityScanInputs)
	}
	if len(s.Env) > 0 {
		m["env"] = maps.Clone(s.Env)
	}
	return document.OrderMapFields(m, constants.PriorityStepFields)
}

// StepFromNode reads the typed fields of a parsed step. Non-mapping nodes yield nil.
func StepFromNode(n *document.Node) *WorkflowStep {
	if !n.IsMapping() {
		return nil
	}
	step := &WorkflowStep{
		Name: stringField(n, "name"),
		ID:   stringField(n, "id"),
		If:   stringField(n, "if"),
		Uses: stringField(n, "uses"),
		Run:  stringField(n, "run"),
	}
	if with, ok := n.Get("with"); ok && with.IsMapping() {
		step.With = make(map[string]any, with.Len())
		for _, e := range with.Entries {
			if e.Value.IsScalar() {
				step.With[e.Key] = e.Value.Value
			}
		}
	}
	if env, ok := n.Get("env"); ok && env.IsMapping() {
		step.Env = stringMap(env)
	}
	return step
}

var stepIdentityFields = []string{"id", "name", "uses", "run"}

// StepIdentity returns the key used to tell steps apart when merging step
// lists: id, then name, then uses, then run. Empty when none is set.
func StepIdentity(n *document.Node) string {
	for _, field := range stepIdentityFields {
		if v := stringField(n, field); v != "" {
			return field + ":" + v
		}
	}
	return ""
}

// ActionRepository strips the "@ref" suffix from a uses value.
func ActionRepository(uses string) string {
	repo, _, _ := strings.Cut(uses, "@")
	return repo
}

func stringField(n *document.Node, key string) string {
	v, ok := n.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

func stringMap(n *document.Node) map[string]string {
	out := make(map[string]string, n.Len())
	for _, e := range n.Entries {
		if e.Value.IsScalar() && !e.Value.IsNull() {
			out[e.Key] = e.Value.Text()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
