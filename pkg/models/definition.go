// Package models defines the workflow definition and orchestration result types.
package models

import (
	"encoding/json"
	"strings"
)

// StepType discriminates the StepSpec tagged union.
type StepType string

const (
	StepTypePrompt   StepType = "prompt"   // Templated natural-language instruction
	StepTypeMCP      StepType = "mcp"      // Named external tool invocation
	StepTypeWorkflow StepType = "workflow" // Reference to another workflow, inlined at resolution
)

// WorkflowDefinition is the stored shape of a workflow.
type WorkflowDefinition struct {
	Name            string     `json:"name"                      validate:"required,kebabcase"`
	Description     string     `json:"description"`
	Inputs          FieldSet   `json:"inputs,omitempty"`
	Outputs         FieldSet   `json:"outputs,omitempty"`
	ExpectedOutputs FieldSet   `json:"expectedOutputs,omitempty"`
	Steps           []StepSpec `json:"steps"                     validate:"required,min=1,dive"`
}

// DeclaredOutputs returns expectedOutputs, falling back to outputs.
func (d *WorkflowDefinition) DeclaredOutputs() FieldSet {
	if len(d.ExpectedOutputs) > 0 {
		return d.ExpectedOutputs
	}

	return d.Outputs
}

// StepSpec is one step of a workflow. Only the fields belonging to Type are meaningful.
// Raw keeps the stored object so keys unknown to this package survive resolution.
type StepSpec struct {
	Raw json.RawMessage `json:"-"`


	Type        StepType `json:"type"                  validate:"required"`
	Description string   `json:"description,omitempty"`

	// prompt
	Template        string   `json:"template,omitempty"`
	Outputs         FieldSet `json:"outputs,omitempty"`
	ExpectedOutputs FieldSet `json:"expectedOutputs,omitempty"`
	Hints           string   `json:"hints,omitempty"`

	// mcp
	Tool         string   `json:"tool,omitempty"`
	Inputs       RawValue `json:"inputs,omitempty"`
	InputMapping RawValue `json:"inputMapping,omitempty"`

	// workflow
	Workflow string `json:"workflow,omitempty"`
}

// DeclaredOutputs returns expectedOutputs, falling back to outputs.
func (s *StepSpec) DeclaredOutputs() FieldSet {
	if len(s.ExpectedOutputs) > 0 {
		return s.ExpectedOutputs
	}

	return s.Outputs
}

// ToolInputs returns whichever of inputMapping or inputs is set.
func (s *StepSpec) ToolInputs() RawValue {
	if len(s.InputMapping) > 0 {
		return s.InputMapping
	}

	return s.Inputs
}

// IsKebabCase reports whether name is lowercase words joined by single hyphens.
func IsKebabCase(name string) bool {
	if name == "" || strings.HasPrefix(name, "-") || strings.HasSuffix(name, "-") || strings.Contains(name, "--") {
		return false
	}

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
		default:
			return false
		}
	}

	return true
}
