package models

// AdvanceMode selects which step sequence the stepwise advancer indexes.
type AdvanceMode string

const (
	// AdvanceModeTopLevel indexes the named workflow's own steps array.
	AdvanceModeTopLevel AdvanceMode = "top-level"
	// AdvanceModeFlattened indexes the fully resolved step sequence.
	AdvanceModeFlattened AdvanceMode = "flattened"
)

// AdvanceState is the advancer state reached by a call.
type AdvanceState string

const (
	AdvanceStateIdle     AdvanceState = "idle"
	AdvanceStateRunning  AdvanceState = "running"
	AdvanceStateComplete AdvanceState = "complete"
	AdvanceStateFailed   AdvanceState = "failed"
)

// AdvanceRequest asks for the step at StepIndex. A nil StepIndex means 1.
type AdvanceRequest struct {
	Workflow  string         `json:"workflow"            validate:"required"`
	StepIndex *int           `json:"stepIndex,omitempty"`
	Data      map[string]any `json:"data"`
	Mode      AdvanceMode    `json:"mode,omitempty"      validate:"omitempty,oneof=top-level flattened"`
}

// AdvanceResult carries exactly one of Next, Complete or Failure, matching State.
type AdvanceResult struct {
	State     AdvanceState         `json:"state"`
	StepIndex int                  `json:"stepIndex,omitempty"`
	Next      *NextStepInstruction `json:"next,omitempty"`
	Complete  *CompletionNotice    `json:"complete,omitempty"`
	Failure   *Failure             `json:"failure,omitempty"`
}

// NextStepInstruction is everything an external agent needs to run one step.
type NextStepInstruction struct {
	Workflow      string         `json:"workflow"`
	Mode          AdvanceMode    `json:"mode"`
	StepIndex     int            `json:"stepIndex"`
	TotalSteps    int            `json:"totalSteps"`
	NextStepIndex int            `json:"nextStepIndex"`
	Step          ResolvedStep   `json:"step"`
	Data          map[string]any `json:"data"`
	Guidance      string         `json:"guidance"`
	Reads         []string       `json:"reads,omitempty"`
	Writes        []string       `json:"writes,omitempty"`
	Instructions  []string       `json:"instructions"`
}

// CompletionNotice ends a run. Result is the caller-supplied data, echoed verbatim.
type CompletionNotice struct {
	Workflow   string         `json:"workflow"`
	TotalSteps int            `json:"totalSteps"`
	Message    string         `json:"message"`
	Result     map[string]any `json:"result"`
}
