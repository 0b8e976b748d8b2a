package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_SaveAndRead(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewPersistence("file://" + root)

	definition := []byte(`{"name":"greet","steps":[{"type":"prompt","template":"Say hello to {{name}}"}]}`)

	require.NoError(t, store.SaveWorkflow(ctx, "greet", definition))
	assert.FileExists(t, filepath.Join(root, "greet.json"))

	got, err := store.Workflow(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, definition, got)
}

func TestPersistence_WorkflowNotFound(t *testing.T) {
	store := NewPersistence(t.TempDir())

	_, err := store.Workflow(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_RejectsPathTraversal(t *testing.T) {
	store := NewPersistence(t.TempDir())

	_, err := store.Workflow(context.Background(), "../outside")
	assert.True(t, persistence.IsInvalidWorkflowName(err))

	err = store.SaveWorkflow(context.Background(), "a/b", []byte(`{}`))
	assert.True(t, persistence.IsInvalidWorkflowName(err))
}

func TestPersistence_ReadsYAMLAsJSON(t *testing.T) {
	root := t.TempDir()
	yamlDefinition := `
name: outer
description: Wraps inner
steps:
  - type: workflow
    workflow: inner
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "outer.yaml"), []byte(yamlDefinition), 0600))

	store := NewPersistence(root)

	got, err := store.Workflow(context.Background(), "outer")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"name":"outer","description":"Wraps inner","steps":[{"type":"workflow","workflow":"inner"}]}`,
		string(got))
}

func TestPersistence_YAMLKeepsKeyOrder(t *testing.T) {
	root := t.TempDir()
	yamlDefinition := `
name: ordered
outputs:
  zeta: string
  alpha: number
steps:
  - type: prompt
    template: Hi
    retries: 2
    strict: true
    note: null
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "ordered.yml"), []byte(yamlDefinition), 0600))

	store := NewPersistence(root)

	got, err := store.Workflow(context.Background(), "ordered")
	require.NoError(t, err)
	assert.Equal(t,
		`{"name":"ordered","outputs":{"zeta":"string","alpha":"number"},"steps":[{"type":"prompt","template":"Hi","retries":2,"strict":true,"note":null}]}`,
		string(got))
}

func TestPersistence_MalformedYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.yml"), []byte("steps: [unclosed"), 0600))

	store := NewPersistence(root)

	_, err := store.Workflow(context.Background(), "broken")
	require.Error(t, err)
	assert.True(t, persistence.IsMalformedDefinition(err))
}

func TestPersistence_JSONWinsOverYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dup.yaml"), []byte("name: from-yaml\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dup.json"), []byte(`{"name":"from-json"}`), 0600))

	got, err := NewPersistence(root).Workflow(context.Background(), "dup")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"from-json"}`, string(got))
}

func TestPersistence_Workflows(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewPersistence(root)

	names, err := store.Workflows(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.SaveWorkflow(ctx, "beta", []byte(`{}`)))
	require.NoError(t, store.SaveWorkflow(ctx, "alpha", []byte(`{}`)))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gamma.yml"), []byte("{}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "nested.json"), 0750))

	names, err = store.Workflows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, names)
}

func TestPersistence_Workflows_MissingRoot(t *testing.T) {
	store := NewPersistence(filepath.Join(t.TempDir(), "does-not-exist"))

	names, err := store.Workflows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Error(t, store.HealthCheck(context.Background()))
}

func TestPersistence_SaveReplacesYAML(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "flow.yaml"), []byte("name: flow\n"), 0600))

	store := NewPersistence(root)
	require.NoError(t, store.SaveWorkflow(ctx, "flow", []byte(`{"name":"flow","description":"v2"}`)))

	assert.NoFileExists(t, filepath.Join(root, "flow.yaml"))

	got, err := store.Workflow(ctx, "flow")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"flow","description":"v2"}`, string(got))
}

func TestPersistence_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewPersistence(t.TempDir())

	require.NoError(t, store.SaveWorkflow(ctx, "gone", []byte(`{}`)))
	require.NoError(t, store.DeleteWorkflow(ctx, "gone"))

	_, err := store.Workflow(ctx, "gone")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	err = store.DeleteWorkflow(ctx, "gone")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestPersistence_HealthCheckAndClose(t *testing.T) {
	store := NewPersistence(t.TempDir())

	assert.NoError(t, store.HealthCheck(context.Background()))
	assert.NoError(t, store.Close(context.Background()))
}
