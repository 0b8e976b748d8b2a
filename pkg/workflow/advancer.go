package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Advancer is a pointer into a workflow's step array. It returns the next step to
// run or a completion notice, and reports failures as results rather than errors.
type Advancer struct {
	resolver *Resolver
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewAdvancer creates an advancer reading definitions through resolver.
func NewAdvancer(resolver *Resolver, logger *slog.Logger, tracer trace.Tracer) *Advancer {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Advancer{
		resolver: resolver,
		logger:   logger,
		tracer:   tracer,
	}
}

// ParseMode maps a textual mode to an AdvanceMode. The empty string selects the
// top-level mode.
func ParseMode(mode string) (models.AdvanceMode, error) {
	switch models.AdvanceMode(mode) {
	case "", models.AdvanceModeTopLevel:
		return models.AdvanceModeTopLevel, nil
	case models.AdvanceModeFlattened:
		return models.AdvanceModeFlattened, nil
	default:
		return "", fmt.Errorf("unknown advance mode %q (use %s or %s)",
			mode, models.AdvanceModeTopLevel, models.AdvanceModeFlattened)
	}
}

// Advance moves one step forward. A nil StepIndex means 1. In top-level mode the
// index addresses the workflow's own steps; in flattened mode it addresses the
// fully resolved sequence.
func (a *Advancer) Advance(ctx context.Context, req models.AdvanceRequest) *models.AdvanceResult {
	index := 1
	if req.StepIndex != nil {
		index = *req.StepIndex
	}

	mode := req.Mode
	if mode != models.AdvanceModeFlattened {
		mode = models.AdvanceModeTopLevel
	}

	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "workflow.advance",
		attribute.String(otelhelper.WorkflowNameKey, req.Workflow),
		attribute.Int(otelhelper.StepIndexKey, index),
		attribute.String(otelhelper.AdvanceModeKey, string(mode)),
	)
	defer span.End()

	logger := a.logger.With("workflow", req.Workflow, "step_index", index, "mode", mode)

	if index < 1 {
		err := newError(models.ErrorKindInvalidStepIndex, req.Workflow,
			fmt.Sprintf("step index must be 1 or greater, got %d", index), nil)

		return a.fail(ctx, span, logger, index, err)
	}

	steps, err := a.steps(ctx, req.Workflow, mode)
	if err != nil {
		return a.fail(ctx, span, logger, index, err)
	}

	total := len(steps)
	span.SetAttributes(attribute.Int(otelhelper.TotalStepsKey, total))

	if index > total {
		logger.InfoContext(ctx, "Workflow complete", "total_steps", total)
		span.SetAttributes(attribute.String(otelhelper.AdvanceStateKey, string(models.AdvanceStateComplete)))

		return &models.AdvanceResult{
			State:     models.AdvanceStateComplete,
			StepIndex: index,
			Complete: &models.CompletionNotice{
				Workflow:   req.Workflow,
				TotalSteps: total,
				Message:    fmt.Sprintf("Workflow %q is complete: all %d steps have been executed.", req.Workflow, total),
				Result:     req.Data,
			},
		}
	}

	step := steps[index-1]

	logger.InfoContext(ctx, "Advancing workflow", "step_type", step.Type, "total_steps", total)
	span.SetAttributes(
		attribute.String(otelhelper.AdvanceStateKey, string(models.AdvanceStateRunning)),
		attribute.String(otelhelper.StepTypeKey, string(step.Type)),
	)

	return &models.AdvanceResult{
		State:     models.AdvanceStateRunning,
		StepIndex: index,
		Next: &models.NextStepInstruction{
			Workflow:      req.Workflow,
			Mode:          mode,
			StepIndex:     index,
			TotalSteps:    total,
			NextStepIndex: index + 1,
			Step:          step,
			Data:          req.Data,
			Guidance:      Guidance(step.Type),
			Reads:         stepReads(step.StepSpec),
			Writes:        step.DeclaredOutputs().Names(),
			Instructions:  advanceInstructions(req.Workflow, step, index, total, mode),
		},
	}
}

func (a *Advancer) steps(ctx context.Context, name string, mode models.AdvanceMode) ([]models.ResolvedStep, error) {
	if mode == models.AdvanceModeFlattened {
		resolved, err := a.resolver.Resolve(ctx, name)
		if err != nil {
			return nil, err
		}

		return resolved.FlattenedSteps, nil
	}

	definition, err := a.resolver.Load(ctx, name)
	if err != nil {
		return nil, err
	}

	steps := make([]models.ResolvedStep, 0, len(definition.Steps))
	for _, step := range definition.Steps {
		steps = append(steps, models.ResolvedStep{StepSpec: step, SourceWorkflow: name})
	}

	return steps, nil
}

func (a *Advancer) fail(ctx context.Context, span trace.Span, logger *slog.Logger, index int, err error) *models.AdvanceResult {
	failure := ToFailure(err)

	logger.WarnContext(ctx, "Advance failed", "kind", failure.Kind, "error", err)
	otelhelper.SetError(span, err, attribute.String(otelhelper.FailureKindKey, string(failure.Kind)))

	return &models.AdvanceResult{
		State:     models.AdvanceStateFailed,
		StepIndex: index,
		Failure:   failure,
	}
}
