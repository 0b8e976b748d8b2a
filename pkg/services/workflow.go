package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/schema"
	"github.com/dukex/stepwise/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
)

// Workflow is the entry point for every workflow operation: store management,
// resolution, planning and stepwise advancement.
type Workflow struct {
	persistence persistence.Persistence
	resolver    *workflow.Resolver
	advancer    *workflow.Advancer
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewWorkflow creates a new workflow service. A nil tracer disables tracing.
func NewWorkflow(persistence persistence.Persistence, logger *slog.Logger, tracer trace.Tracer) *Workflow {
	logger = logger.With("module", "workflow_service")
	resolver := workflow.NewResolver(persistence, logger, tracer)

	return &Workflow{
		persistence: persistence,
		resolver:    resolver,
		advancer:    workflow.NewAdvancer(resolver, logger, tracer),
		validate:    schema.NewValidator(),
		logger:      logger,
	}
}

// ResolveResult holds either the resolved workflow or the reason it could not be resolved.
type ResolveResult struct {
	Workflow *models.ResolvedWorkflow `json:"workflow,omitempty"`
	Failure  *models.Failure          `json:"failure,omitempty"`
}

// PlanResult holds either an execution plan or the reason none could be built.
type PlanResult struct {
	Plan    *models.ExecutionPlan `json:"plan,omitempty"`
	Failure *models.Failure       `json:"failure,omitempty"`
}

// ValidationResult reports every problem found in a stored workflow.
type ValidationResult struct {
	Workflow   string          `json:"workflow"`
	Valid      bool            `json:"valid"`
	TotalSteps int             `json:"totalSteps,omitempty"`
	Problems   []string        `json:"problems,omitempty"`
	Failure    *models.Failure `json:"failure,omitempty"`
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// List returns the names of all stored workflows in ascending order.
func (w *Workflow) List(ctx context.Context) ([]string, error) {
	names, err := w.persistence.Workflows(ctx)
	if err != nil {
		return nil, workflow.StoreError("", err)
	}

	if names == nil {
		names = []string{}
	}

	return names, nil
}

// Get returns the raw JSON definition stored under name.
func (w *Workflow) Get(ctx context.Context, name string) (json.RawMessage, error) {
	raw, err := w.persistence.Workflow(ctx, name)
	if err != nil {
		return nil, workflow.StoreError(name, err)
	}

	return raw, nil
}

// Save validates definition and stores it under name, replacing any previous version.
func (w *Workflow) Save(ctx context.Context, name string, definition []byte) error {
	err := persistence.ValidateName(name)
	if err != nil {
		return NewValidationError("Save", name, []string{"workflow name must not be empty or contain path separators"}, ErrInvalidDefinition)
	}

	decoded, problems, err := w.validateDefinition(name, definition)
	if err != nil {
		return NewValidationError("Save", name, []string{err.Error()}, ErrInvalidDefinition)
	}

	if len(problems) > 0 {
		return NewValidationError("Save", name, problems, ErrInvalidDefinition)
	}

	if decoded.Name != name {
		return NewValidationError("Save", name,
			[]string{fmt.Sprintf("definition is named %q", decoded.Name)}, ErrNameMismatch)
	}

	err = w.persistence.SaveWorkflow(ctx, name, definition)
	if err != nil {
		return workflow.StoreError(name, err)
	}

	w.logger.InfoContext(ctx, "Workflow saved", "workflow", name)

	return nil
}

// Delete removes the workflow stored under name.
func (w *Workflow) Delete(ctx context.Context, name string) error {
	err := w.persistence.DeleteWorkflow(ctx, name)
	if err != nil {
		return workflow.StoreError(name, err)
	}

	w.logger.InfoContext(ctx, "Workflow deleted", "workflow", name)

	return nil
}

// Resolve expands name into its flat step sequence.
func (w *Workflow) Resolve(ctx context.Context, name string) *ResolveResult {
	resolved, err := w.resolver.Resolve(ctx, name)
	if err != nil {
		return &ResolveResult{Failure: workflow.ToFailure(err)}
	}

	return &ResolveResult{Workflow: resolved}
}

// Plan resolves name and packages it with initialData into an execution plan.
func (w *Workflow) Plan(ctx context.Context, name string, initialData map[string]any) *PlanResult {
	resolved, err := w.resolver.Resolve(ctx, name)
	if err != nil {
		return &PlanResult{Failure: workflow.ToFailure(err)}
	}

	plan := workflow.BuildPlan(resolved, initialData)

	w.logger.DebugContext(ctx, "Execution plan built",
		"workflow", name, "plan_id", plan.ID, "total_steps", plan.TotalSteps,
		"unresolved_fields", plan.UnresolvedFields)

	return &PlanResult{Plan: plan}
}

// Advance returns the step at req.StepIndex or a completion notice.
func (w *Workflow) Advance(ctx context.Context, req models.AdvanceRequest) *models.AdvanceResult {
	return w.advancer.Advance(ctx, req)
}

// ValidateDefinition checks a raw definition's structure without touching the store.
// The error is reserved for input that is not JSON at all.
func (w *Workflow) ValidateDefinition(name string, raw []byte) ([]string, error) {
	_, problems, err := w.validateDefinition(name, raw)

	return problems, err
}

// validateDefinition returns the decoded definition alongside the problems. The
// definition is nil whenever problems is non-empty.
func (w *Workflow) validateDefinition(name string, raw []byte) (*models.WorkflowDefinition, []string, error) {
	problems, err := schema.Validate(raw)
	if err != nil {
		return nil, nil, err
	}

	definition, err := workflow.DecodeDefinition(name, raw)
	if err != nil {
		return nil, append(problems, err.Error()), nil
	}

	if len(problems) > 0 {
		return nil, problems, nil
	}

	err = w.validate.Struct(definition)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, append(problems, err.Error()), nil
		}

		for _, fieldErr := range validationErrors {
			problems = append(problems, fmt.Sprintf("%s failed the %q rule", fieldErr.Namespace(), fieldErr.Tag()))
		}
	}

	if len(problems) > 0 {
		return nil, problems, nil
	}

	return definition, nil, nil
}

// Validate checks the stored definition of name and resolves it so that missing
// sub-workflows and cycles are reported too.
func (w *Workflow) Validate(ctx context.Context, name string) *ValidationResult {
	result := &ValidationResult{Workflow: name}

	raw, err := w.persistence.Workflow(ctx, name)
	if err != nil {
		result.Failure = workflow.ToFailure(workflow.StoreError(name, err))

		return result
	}

	problems, err := w.ValidateDefinition(name, raw)
	if err != nil {
		problems = []string{err.Error()}
	}

	resolved, err := w.resolver.Resolve(ctx, name)
	if err != nil {
		// Failures of name itself are already covered by the structural check.
		var wfErr *workflow.Error
		if len(problems) == 0 || !errors.As(err, &wfErr) || wfErr.Workflow != name {
			problems = append(problems, err.Error())
		}
	} else {
		result.TotalSteps = resolved.TotalSteps()
	}

	result.Problems = problems
	result.Valid = len(problems) == 0

	return result
}
