package workflow

import (
	"testing"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"report": `{
			"name": "report",
			"description": "Write a report",
			"inputs": {"topic": "string"},
			"expectedOutputs": {"report": "string"},
			"steps": [
				{"type": "mcp", "tool": "search", "inputMapping": {"query": "{{topic}}"}, "outputs": {"results": "array"}},
				{"type": "workflow", "workflow": "digest", "description": "Digest the results"},
				{"type": "prompt", "template": "Write a report on {{topic}} from {{digest}} for {{audience}}", "outputs": {"report": "string"}}
			]
		}`,
		"digest": `{"name":"digest","steps":[{"type":"prompt","description":"Condense","template":"Condense {{results}}","outputs":{"digest":"string"}}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "report")
	require.NoError(t, err)

	initial := map[string]any{"topic": "otters"}
	plan := BuildPlan(resolved, initial)

	_, err = uuid.Parse(plan.ID)
	require.NoError(t, err)

	assert.Equal(t, "report", plan.Workflow)
	assert.Equal(t, "Write a report", plan.Description)
	assert.Equal(t, 3, plan.TotalSteps)
	assert.Equal(t, initial, plan.InitialData)
	assert.Equal(t, []string{"report"}, plan.ExpectedOutputs.Names())
	assert.Equal(t, resolved.FlattenedSteps, plan.Steps)
	assert.NotEmpty(t, plan.Instructions)

	require.Len(t, plan.Entries, 3)

	assert.Equal(t, 1, plan.Entries[0].Index)
	assert.Equal(t, "Call tool search", plan.Entries[0].Description)
	assert.Equal(t, []string{"topic"}, plan.Entries[0].Reads)
	assert.Equal(t, []string{"results"}, plan.Entries[0].Writes)
	assert.Empty(t, plan.Entries[0].Origin)

	assert.Equal(t, "Condense", plan.Entries[1].Description)
	assert.Equal(t, "digest", plan.Entries[1].SourceWorkflow)
	assert.Equal(t, "from sub-workflow digest (Digest the results)", plan.Entries[1].Origin)

	assert.Equal(t, []string{"topic", "digest", "audience"}, plan.Entries[2].Reads)

	// topic comes from initial data, results and digest from earlier steps.
	assert.Equal(t, []string{"audience"}, plan.UnresolvedFields)

	assert.Len(t, plan.Guidance, 2)
	assert.Equal(t, Guidance(models.StepTypePrompt), plan.Guidance[models.StepTypePrompt])
	assert.Equal(t, Guidance(models.StepTypeMCP), plan.Guidance[models.StepTypeMCP])

	assert.Contains(t, plan.Summary, "Workflow report (3 steps): Write a report")
	assert.Contains(t, plan.Summary, "2. [prompt] Condense (from sub-workflow digest (Digest the results))")
}

func TestBuildPlan_DoesNotSubstitute(t *testing.T) {
	resolved := &models.ResolvedWorkflow{
		Name: "greet",
		FlattenedSteps: []models.ResolvedStep{{
			StepSpec:       models.StepSpec{Type: models.StepTypePrompt, Template: "Say hello to {{name}}"},
			SourceWorkflow: "greet",
		}},
	}

	plan := BuildPlan(resolved, map[string]any{"name": "Ada"})

	assert.Equal(t, "Say hello to {{name}}", plan.Steps[0].Template)
	assert.Empty(t, plan.UnresolvedFields)
}

func TestBuildPlan_MissingFieldsAreOnlyNoted(t *testing.T) {
	resolved := &models.ResolvedWorkflow{
		Name: "greet",
		FlattenedSteps: []models.ResolvedStep{{
			StepSpec:       models.StepSpec{Type: models.StepTypePrompt, Template: "Hi {{user.name}}, {{user.email}} and {{ mood }}"},
			SourceWorkflow: "greet",
		}},
	}

	plan := BuildPlan(resolved, nil)

	assert.Equal(t, []string{"user", "mood"}, plan.UnresolvedFields)
	assert.Nil(t, plan.InitialData)
}

func TestDescribeStep(t *testing.T) {
	long := "Summarize   the following text\nin three short bullet points for an executive reader please"

	tests := []struct {
		name string
		step models.StepSpec
		want string
	}{
		{"explicit description", models.StepSpec{Type: models.StepTypePrompt, Description: " Greet ", Template: "Hi"}, "Greet"},
		{"short template", models.StepSpec{Type: models.StepTypePrompt, Template: "Say hello to {{name}}"}, "Say hello to {{name}}"},
		{"long template", models.StepSpec{Type: models.StepTypePrompt, Template: long}, "Summarize the following text in three short bullet points fo..."},
		{"tool", models.StepSpec{Type: models.StepTypeMCP, Tool: "search"}, "Call tool search"},
		{"workflow", models.StepSpec{Type: models.StepTypeWorkflow, Workflow: "inner"}, "Run workflow inner"},
		{"unknown type", models.StepSpec{Type: "shell"}, "Execute shell step"},
		{"no type", models.StepSpec{}, "Execute step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, describeStep(tt.step))
		})
	}
}
