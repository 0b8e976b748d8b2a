package workflow

import (
	"encoding/json"
	"testing"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sources(steps []models.ResolvedStep) []string {
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, step.SourceWorkflow)
	}

	return out
}

func tools(steps []models.ResolvedStep) []string {
	out := make([]string, 0, len(steps))
	for _, step := range steps {
		out = append(out, step.Tool)
	}

	return out
}

func TestResolver_Resolve_SubWorkflowIsInlined(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"outer": `{"name":"outer","steps":[{"type":"workflow","workflow":"inner"}]}`,
		"inner": `{"name":"inner","steps":[{"type":"mcp","tool":"t1"},{"type":"mcp","tool":"t2"}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "outer")
	require.NoError(t, err)

	assert.Equal(t, "outer", resolved.Name)
	require.Len(t, resolved.FlattenedSteps, 2)
	assert.Equal(t, []string{"inner", "inner"}, sources(resolved.FlattenedSteps))
	assert.Equal(t, []string{"t1", "t2"}, tools(resolved.FlattenedSteps))
}

func TestResolver_Resolve_KeepsOrderAndOwnSteps(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"main": `{
			"name": "main",
			"description": "Main flow",
			"inputs": {"topic": "string"},
			"outputs": {"report": "string"},
			"steps": [
				{"type": "mcp", "tool": "before"},
				{"type": "workflow", "workflow": "middle", "description": "Do the middle part"},
				{"type": "mcp", "tool": "after"}
			]
		}`,
		"middle": `{"name":"middle","steps":[{"type":"mcp","tool":"m1"},{"type":"workflow","workflow":"leaf"},{"type":"mcp","tool":"m2"}]}`,
		"leaf":   `{"name":"leaf","steps":[{"type":"mcp","tool":"l1"}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "main")
	require.NoError(t, err)

	assert.Equal(t, "Main flow", resolved.Description)
	assert.Equal(t, []string{"topic"}, resolved.Inputs.Names())
	assert.Equal(t, []string{"report"}, resolved.ExpectedOutputs.Names())
	assert.Equal(t, []string{"before", "m1", "l1", "m2", "after"}, tools(resolved.FlattenedSteps))
	assert.Equal(t, []string{"main", "middle", "leaf", "middle", "main"}, sources(resolved.FlattenedSteps))

	// Spliced steps carry the description of the step that inlined them.
	assert.Empty(t, resolved.FlattenedSteps[0].ParentDescription)
	assert.Equal(t, "Do the middle part", resolved.FlattenedSteps[1].ParentDescription)
	assert.Empty(t, resolved.FlattenedSteps[2].ParentDescription)
	assert.Equal(t, "Do the middle part", resolved.FlattenedSteps[3].ParentDescription)
	assert.Empty(t, resolved.FlattenedSteps[4].ParentDescription)

	for _, step := range resolved.FlattenedSteps {
		assert.NotEqual(t, models.StepTypeWorkflow, step.Type)
	}
}

func TestResolver_Resolve_DeepChainFlattensCompletely(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"a": `{"name":"a","steps":[{"type":"workflow","workflow":"b"}]}`,
		"b": `{"name":"b","steps":[{"type":"workflow","workflow":"c"}]}`,
		"c": `{"name":"c","steps":[{"type":"prompt","template":"deep"}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "a")
	require.NoError(t, err)

	require.Len(t, resolved.FlattenedSteps, 1)
	assert.Equal(t, "deep", resolved.FlattenedSteps[0].Template)
	assert.Equal(t, "c", resolved.FlattenedSteps[0].SourceWorkflow)
}

func TestResolver_Resolve_DiamondIsNotACycle(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"a": `{"name":"a","steps":[{"type":"workflow","workflow":"b"},{"type":"workflow","workflow":"b"}]}`,
		"b": `{"name":"b","steps":[{"type":"mcp","tool":"x"},{"type":"mcp","tool":"y"}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "x", "y"}, tools(resolved.FlattenedSteps))
}

func TestResolver_Resolve_NestedDiamondIsNotACycle(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"top":   `{"name":"top","steps":[{"type":"workflow","workflow":"left"},{"type":"workflow","workflow":"right"}]}`,
		"left":  `{"name":"left","steps":[{"type":"workflow","workflow":"share"}]}`,
		"right": `{"name":"right","steps":[{"type":"workflow","workflow":"share"}]}`,
		"share": `{"name":"share","steps":[{"type":"prompt","template":"shared"}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "top")
	require.NoError(t, err)
	assert.Len(t, resolved.FlattenedSteps, 2)
}

func TestResolver_Resolve_CircularDependency(t *testing.T) {
	tests := []struct {
		name        string
		definitions map[string]string
		start       string
		wantClosing string
		wantPath    []string
	}{
		{
			name: "two workflows",
			definitions: map[string]string{
				"a": `{"name":"a","steps":[{"type":"workflow","workflow":"b"}]}`,
				"b": `{"name":"b","steps":[{"type":"workflow","workflow":"a"}]}`,
			},
			start:       "a",
			wantClosing: "a",
			wantPath:    []string{"a", "b", "a"},
		},
		{
			name: "self reference",
			definitions: map[string]string{
				"self": `{"name":"self","steps":[{"type":"mcp","tool":"t"},{"type":"workflow","workflow":"self"}]}`,
			},
			start:       "self",
			wantClosing: "self",
			wantPath:    []string{"self", "self"},
		},
		{
			name: "loop below the entry point",
			definitions: map[string]string{
				"entry": `{"name":"entry","steps":[{"type":"workflow","workflow":"x"}]}`,
				"x":     `{"name":"x","steps":[{"type":"workflow","workflow":"y"}]}`,
				"y":     `{"name":"y","steps":[{"type":"workflow","workflow":"x"}]}`,
			},
			start:       "entry",
			wantClosing: "x",
			wantPath:    []string{"entry", "x", "y", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, _ := newTestResolver(t, tt.definitions)

			resolved, err := resolver.Resolve(t.Context(), tt.start)
			require.Error(t, err)
			assert.Nil(t, resolved)

			assert.True(t, IsCircularDependency(err))
			assert.Equal(t, models.ErrorKindCircularDependency, KindOf(err))

			var wfErr *Error
			require.ErrorAs(t, err, &wfErr)
			assert.Equal(t, tt.wantClosing, wfErr.Workflow)
			assert.Equal(t, tt.wantPath, wfErr.Path)
			assert.Contains(t, err.Error(), tt.wantClosing)
		})
	}
}

func TestResolver_Resolve_KeepsUnknownStepKeys(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"outer": `{"name":"outer","steps":[{"type":"workflow","workflow":"greet","description":"Greet first"}]}`,
		"greet": `{"name":"greet","steps":[{"type":"prompt","id":"s1","model":"fast","template":"Hi {{name}}","x-vendor":{"retries":2}}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "outer")
	require.NoError(t, err)
	require.Len(t, resolved.FlattenedSteps, 1)

	out, err := json.Marshal(resolved.FlattenedSteps[0])
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"type":"prompt","id":"s1","model":"fast","template":"Hi {{name}}","x-vendor":{"retries":2},"sourceWorkflow":"greet","parentDescription":"Greet first"}`,
		string(out))
}

func TestResolver_Resolve_AcceptsArrayShapedOutputs(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"greet": `{"name":"greet","outputs":["greeting"],"steps":[{"type":"prompt","template":"Hi","outputs":["greeting"]}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "greet")
	require.NoError(t, err)

	assert.Equal(t, []string{"greeting"}, resolved.ExpectedOutputs.Names())
	require.Len(t, resolved.FlattenedSteps, 1)
	assert.Equal(t, []string{"greeting"}, resolved.FlattenedSteps[0].DeclaredOutputs().Names())
}

func TestResolver_Resolve_Failures(t *testing.T) {
	tests := []struct {
		name         string
		definitions  map[string]string
		start        string
		wantKind     models.ErrorKind
		wantWorkflow string
	}{
		{
			name:         "missing workflow",
			definitions:  map[string]string{},
			start:        "ghost",
			wantKind:     models.ErrorKindNotFound,
			wantWorkflow: "ghost",
		},
		{
			name: "missing sub-workflow",
			definitions: map[string]string{
				"parent": `{"name":"parent","steps":[{"type":"mcp","tool":"t"},{"type":"workflow","workflow":"ghost"}]}`,
			},
			start:        "parent",
			wantKind:     models.ErrorKindNotFound,
			wantWorkflow: "ghost",
		},
		{
			name:         "invalid json",
			definitions:  map[string]string{"broken": `{"name":"broken","steps":[`},
			start:        "broken",
			wantKind:     models.ErrorKindParseError,
			wantWorkflow: "broken",
		},
		{
			name:         "no steps",
			definitions:  map[string]string{"empty": `{"name":"empty"}`},
			start:        "empty",
			wantKind:     models.ErrorKindInvalidDefinition,
			wantWorkflow: "empty",
		},
		{
			name: "invalid sub-workflow",
			definitions: map[string]string{
				"parent": `{"name":"parent","steps":[{"type":"workflow","workflow":"child"}]}`,
				"child":  `{"name":"child","steps":[]}`,
			},
			start:        "parent",
			wantKind:     models.ErrorKindInvalidDefinition,
			wantWorkflow: "child",
		},
		{
			name:         "path traversal name",
			definitions:  map[string]string{},
			start:        "../etc/passwd",
			wantKind:     models.ErrorKindNotFound,
			wantWorkflow: "../etc/passwd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver, _ := newTestResolver(t, tt.definitions)

			resolved, err := resolver.Resolve(t.Context(), tt.start)
			require.Error(t, err)
			assert.Nil(t, resolved)

			assert.Equal(t, tt.wantKind, KindOf(err))

			failure := ToFailure(err)
			assert.Equal(t, tt.wantKind, failure.Kind)
			assert.Equal(t, tt.wantWorkflow, failure.Workflow)
			assert.NotEmpty(t, failure.Hints)
		})
	}
}

func TestResolver_Resolve_PassesUnknownStepTypesThrough(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"custom": `{"name":"custom","steps":[{"type":"shell","description":"Run a command"}]}`,
	})

	resolved, err := resolver.Resolve(t.Context(), "custom")
	require.NoError(t, err)

	require.Len(t, resolved.FlattenedSteps, 1)
	assert.Equal(t, models.StepType("shell"), resolved.FlattenedSteps[0].Type)
}

func TestResolver_Resolve_ReadsStoreOnEveryCall(t *testing.T) {
	resolver, dir := newTestResolver(t, map[string]string{
		"evolving": `{"name":"evolving","steps":[{"type":"mcp","tool":"v1"}]}`,
	})

	first, err := resolver.Resolve(t.Context(), "evolving")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, tools(first.FlattenedSteps))

	writeDefinition(t, dir, "evolving", `{"name":"evolving","steps":[{"type":"mcp","tool":"v2"},{"type":"mcp","tool":"v3"}]}`)

	second, err := resolver.Resolve(t.Context(), "evolving")
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v3"}, tools(second.FlattenedSteps))
}

func TestResolver_Load(t *testing.T) {
	resolver, _ := newTestResolver(t, map[string]string{
		"outer": `{"name":"outer","steps":[{"type":"workflow","workflow":"inner","description":"Inline inner"}]}`,
	})

	definition, err := resolver.Load(t.Context(), "outer")
	require.NoError(t, err)

	require.Len(t, definition.Steps, 1)
	assert.Equal(t, models.StepTypeWorkflow, definition.Steps[0].Type)
	assert.Equal(t, "inner", definition.Steps[0].Workflow)
}
