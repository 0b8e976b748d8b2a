package workflow

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/template"
	"github.com/google/uuid"
)

const descriptionPreviewLength = 60

// BuildPlan packages a resolved workflow into an execution plan. It performs no
// substitution and never fails: fields missing from initialData are only noted.
func BuildPlan(resolved *models.ResolvedWorkflow, initialData map[string]any) *models.ExecutionPlan {
	entries := make([]models.PlanEntry, 0, len(resolved.FlattenedSteps))
	guidance := make(map[models.StepType]string)

	known := make(map[string]bool, len(initialData))
	for field := range initialData {
		known[field] = true
	}

	var unresolved []string

	seenUnresolved := make(map[string]bool)

	for i, step := range resolved.FlattenedSteps {
		reads := stepReads(step.StepSpec)
		writes := step.DeclaredOutputs().Names()

		for _, expr := range reads {
			field := template.RootField(expr)
			if !known[field] && !seenUnresolved[field] {
				seenUnresolved[field] = true
				unresolved = append(unresolved, field)
			}
		}

		for _, field := range writes {
			known[field] = true
		}

		entry := models.PlanEntry{
			Index:          i + 1,
			Type:           step.Type,
			Description:    describeStep(step.StepSpec),
			SourceWorkflow: step.SourceWorkflow,
			Reads:          reads,
			Writes:         writes,
		}

		if step.SourceWorkflow != resolved.Name {
			entry.Origin = origin(step)
		}

		entries = append(entries, entry)
		guidance[step.Type] = Guidance(step.Type)
	}

	steps := make([]models.ResolvedStep, len(resolved.FlattenedSteps))
	copy(steps, resolved.FlattenedSteps)

	return &models.ExecutionPlan{
		ID:               uuid.NewString(),
		Workflow:         resolved.Name,
		Description:      resolved.Description,
		TotalSteps:       len(steps),
		Summary:          summarize(resolved, entries),
		Entries:          entries,
		Steps:            steps,
		InitialData:      initialData,
		ExpectedOutputs:  resolved.ExpectedOutputs,
		Guidance:         guidance,
		Instructions:     planInstructions(),
		UnresolvedFields: unresolved,
	}
}

// describeStep picks the explicit description, then a template preview, then a
// type-based fallback.
func describeStep(step models.StepSpec) string {
	if description := strings.TrimSpace(step.Description); description != "" {
		return description
	}

	if step.Type == models.StepTypePrompt && strings.TrimSpace(step.Template) != "" {
		return preview(step.Template, descriptionPreviewLength)
	}

	switch {
	case step.Type == models.StepTypeMCP && step.Tool != "":
		return fmt.Sprintf("Call tool %s", step.Tool)
	case step.Type == models.StepTypeWorkflow && step.Workflow != "":
		return fmt.Sprintf("Run workflow %s", step.Workflow)
	case step.Type != "":
		return fmt.Sprintf("Execute %s step", step.Type)
	default:
		return "Execute step"
	}
}

func preview(text string, limit int) string {
	collapsed := strings.Join(strings.Fields(text), " ")

	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}

	return string(runes[:limit]) + "..."
}

func origin(step models.ResolvedStep) string {
	if step.ParentDescription != "" {
		return fmt.Sprintf("from sub-workflow %s (%s)", step.SourceWorkflow, step.ParentDescription)
	}

	return fmt.Sprintf("from sub-workflow %s", step.SourceWorkflow)
}

// stepReads lists the placeholders a step reads from its template and tool inputs.
func stepReads(step models.StepSpec) []string {
	reads := template.Placeholders(step.Template)

	if inputs := step.ToolInputs(); len(inputs) > 0 {
		for _, expr := range template.Placeholders(string(inputs)) {
			if !slices.Contains(reads, expr) {
				reads = append(reads, expr)
			}
		}
	}

	return reads
}

func summarize(resolved *models.ResolvedWorkflow, entries []models.PlanEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Workflow %s (%d steps)", resolved.Name, len(entries))

	if resolved.Description != "" {
		fmt.Fprintf(&b, ": %s", resolved.Description)
	}

	for _, entry := range entries {
		fmt.Fprintf(&b, "\n%d. [%s] %s", entry.Index, entry.Type, entry.Description)

		if entry.Origin != "" {
			fmt.Fprintf(&b, " (%s)", entry.Origin)
		}
	}

	return b.String()
}
