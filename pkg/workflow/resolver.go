// Package workflow resolves workflow definitions into flat step sequences and
// turns them into execution plans and stepwise instructions.
package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/otelhelper"
	"github.com/dukex/stepwise/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Resolver loads definitions and expands sub-workflow steps in place. It holds no
// cache: every call reads the store again.
type Resolver struct {
	store  persistence.DefinitionReader
	logger *slog.Logger
	tracer trace.Tracer
}

// NewResolver creates a resolver. A nil tracer disables tracing.
func NewResolver(store persistence.DefinitionReader, logger *slog.Logger, tracer trace.Tracer) *Resolver {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Resolver{
		store:  store,
		logger: logger,
		tracer: tracer,
	}
}

// Load reads and decodes a single definition without expanding it.
func (r *Resolver) Load(ctx context.Context, name string) (*models.WorkflowDefinition, error) {
	raw, err := r.store.Workflow(ctx, name)
	if err != nil {
		return nil, StoreError(name, err)
	}

	definition, err := DecodeDefinition(name, raw)
	if err != nil {
		return nil, err
	}

	if definition.Name != "" && definition.Name != name {
		r.logger.WarnContext(ctx, "Definition name differs from store name",
			"workflow", name, "definition_name", definition.Name)
	}

	return definition, nil
}

// Resolve expands name into its flat leaf-step sequence, depth-first and
// left-to-right.
func (r *Resolver) Resolve(ctx context.Context, name string) (*models.ResolvedWorkflow, error) {
	resolved, err := r.resolve(ctx, name, visitedSet{})
	if err != nil {
		r.logger.DebugContext(ctx, "Workflow resolution failed", "workflow", name, "error", err)

		return nil, err
	}

	r.logger.DebugContext(ctx, "Workflow resolved",
		"workflow", name, "total_steps", resolved.TotalSteps())

	return resolved, nil
}

func (r *Resolver) resolve(ctx context.Context, name string, visited visitedSet) (*models.ResolvedWorkflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, r.tracer, "workflow.resolve",
		attribute.String(otelhelper.WorkflowNameKey, name),
		attribute.Int(otelhelper.ResolveDepthKey, visited.depth()),
	)
	defer span.End()

	if visited.contains(name) {
		err := &Error{
			Kind:     models.ErrorKindCircularDependency,
			Workflow: name,
			Path:     visited.pathTo(name),
			Message:  fmt.Sprintf("circular dependency detected: workflow %q is referenced while it is still being resolved", name),
			Err:      ErrCircularDependency,
		}
		otelhelper.SetError(span, err, attribute.String(otelhelper.FailureKindKey, string(err.Kind)))

		return nil, err
	}

	definition, err := r.Load(ctx, name)
	if err != nil {
		if wfErr, ok := err.(*Error); ok && len(wfErr.Path) == 0 {
			wfErr.Path = visited.pathTo(name)
		}

		otelhelper.SetError(span, err, attribute.String(otelhelper.FailureKindKey, string(KindOf(err))))

		return nil, err
	}

	branch := visited.with(name)
	steps := make([]models.ResolvedStep, 0, len(definition.Steps))

	for _, step := range definition.Steps {
		if step.Type != models.StepTypeWorkflow {
			steps = append(steps, models.ResolvedStep{
				StepSpec:       step,
				SourceWorkflow: name,
			})

			continue
		}

		span.AddEvent("inline_sub_workflow", trace.WithAttributes(
			attribute.String(otelhelper.SubWorkflowKey, step.Workflow),
		))

		sub, err := r.resolve(ctx, step.Workflow, branch)
		if err != nil {
			return nil, err
		}

		for _, subStep := range sub.FlattenedSteps {
			subStep.SourceWorkflow = step.Workflow
			subStep.ParentDescription = step.Description
			steps = append(steps, subStep)
		}
	}

	span.SetAttributes(attribute.Int(otelhelper.TotalStepsKey, len(steps)))

	return &models.ResolvedWorkflow{
		Name:            name,
		Description:     definition.Description,
		Inputs:          definition.Inputs,
		ExpectedOutputs: definition.DeclaredOutputs(),
		FlattenedSteps:  steps,
	}, nil
}
