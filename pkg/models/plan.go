package models

// ExecutionPlan is the full-plan view of a resolved workflow.
type ExecutionPlan struct {
	ID               string              `json:"id"`
	Workflow         string              `json:"workflow"`
	Description      string              `json:"description,omitempty"`
	TotalSteps       int                 `json:"totalSteps"`
	Summary          string              `json:"summary"`
	Entries          []PlanEntry         `json:"entries"`
	Steps            []ResolvedStep      `json:"steps"`
	InitialData      map[string]any      `json:"initialData"`
	ExpectedOutputs  FieldSet            `json:"expectedOutputs,omitempty"`
	Guidance         map[StepType]string `json:"guidance"`
	Instructions     []string            `json:"instructions"`
	UnresolvedFields []string            `json:"unresolvedFields,omitempty"`
}

// PlanEntry is one numbered line of the plan.
type PlanEntry struct {
	Index          int      `json:"index"`
	Type           StepType `json:"type"`
	Description    string   `json:"description"`
	SourceWorkflow string   `json:"sourceWorkflow"`
	Origin         string   `json:"origin,omitempty"`
	Reads          []string `json:"reads,omitempty"`
	Writes         []string `json:"writes,omitempty"`
}
