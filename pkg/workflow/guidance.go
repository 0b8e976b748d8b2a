package workflow

import (
	"fmt"

	"github.com/dukex/stepwise/pkg/models"
)

const (
	promptGuidance = "Build the prompt by replacing every {{field}} placeholder in \"template\" with the value " +
		"of that field from the current data. If a field is missing, substitute nothing, note the missing " +
		"field and continue. Follow any \"hints\", perform the instruction, and produce every declared output " +
		"as a new field in the data."
	mcpGuidance = "Invoke the tool named in \"tool\". Build its arguments from the current data as described " +
		"by \"inputMapping\" (or \"inputs\"), then merge the tool's result into the data without removing any " +
		"existing field."
	workflowGuidance = "Run the sub-workflow named in \"workflow\" from its first step, passing the current data " +
		"in. When it completes, continue with the next step of this workflow using the data it returned."
	genericGuidance = "This step type has no built-in guidance. Execute it according to its own fields and merge " +
		"any results into the data without removing existing fields."
)

// Guidance returns the fixed execution instructions for a step type.
func Guidance(stepType models.StepType) string {
	switch stepType {
	case models.StepTypePrompt:
		return promptGuidance
	case models.StepTypeMCP:
		return mcpGuidance
	case models.StepTypeWorkflow:
		return workflowGuidance
	default:
		return genericGuidance
	}
}

// planInstructions is the contract every consumer of an execution plan follows.
func planInstructions() []string {
	return []string{
		"Execute the steps in order, starting with step 1.",
		"Carry a single data object through the run: start from initialData and merge each step's outputs " +
			"into it. Never drop or rename fields produced by earlier steps.",
		"Replace each {{field}} placeholder with that field's current value. If the field is absent, " +
			"substitute nothing, record the missing field and continue; a missing field never stops the run.",
		"Steps annotated with a sub-workflow origin were inlined from that workflow; execute them like any other step.",
		"After the last step, return the accumulated data as the workflow result, including every expected output.",
	}
}

func advanceInstructions(name string, step models.ResolvedStep, index, total int, mode models.AdvanceMode) []string {
	instructions := []string{
		fmt.Sprintf("Execute step %d of %d of workflow %q using the guidance for %q steps.", index, total, name, step.Type),
		"Merge the step's outputs into the data, keeping every existing field.",
	}

	if step.Type == models.StepTypeWorkflow && mode != models.AdvanceModeFlattened {
		instructions = append(instructions, fmt.Sprintf(
			"This step inlines workflow %q: advance through it from step 1 with the current data before returning here.",
			step.Workflow))
	}

	return append(instructions, fmt.Sprintf(
		"Then call advance again with workflow %q, stepIndex %d and the updated data.", name, index+1))
}
