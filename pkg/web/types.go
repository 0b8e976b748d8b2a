// Package web provides HTTP request and response types for the workflow API.
package web

// WorkflowListResponse lists the stored workflow names.
type WorkflowListResponse struct {
	Workflows  []string `json:"workflows"`
	TotalCount int      `json:"total_count"`
}

// PlanRequest represents the request body for building an execution plan.
type PlanRequest struct {
	Data map[string]any `json:"data"`
}

// AdvanceRequest represents the request body for advancing a workflow by one step.
// An omitted stepIndex starts from the first step.
type AdvanceRequest struct {
	StepIndex *int           `json:"stepIndex,omitempty"`
	Data      map[string]any `json:"data"`
	Mode      string         `json:"mode,omitempty"      validate:"omitempty,oneof=top-level flattened"`
}

// SaveWorkflowResponse acknowledges a stored definition.
type SaveWorkflowResponse struct {
	Name  string `json:"name"`
	Saved bool   `json:"saved"`
}
