package web

import (
	"errors"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/dukex/stepwise/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// failureProblem is a problem document extended with the failure's kind and hints.
type failureProblem struct {
	*problems.Problem

	Kind     models.ErrorKind `json:"kind"`
	Workflow string           `json:"workflow,omitempty"`
	Hints    []string         `json:"hints,omitempty"`
}

// validationProblem is a problem document listing every validation finding.
type validationProblem struct {
	*problems.Problem

	Problems []string `json:"problems,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// statusForKind maps a failure kind to its HTTP status.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.ErrorKindNotFound:
		return fiber.StatusNotFound
	case models.ErrorKindParseError, models.ErrorKindInvalidDefinition, models.ErrorKindCircularDependency:
		return fiber.StatusUnprocessableEntity
	case models.ErrorKindInvalidStepIndex:
		return fiber.StatusBadRequest
	case models.ErrorKindStoreUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// problemType maps a failure kind to a problem type, e.g. CircularDependency -> circular_dependency.
func problemType(kind models.ErrorKind) string {
	switch kind {
	case models.ErrorKindNotFound:
		return "workflow_not_found"
	case models.ErrorKindParseError:
		return "parse_error"
	case models.ErrorKindInvalidDefinition:
		return "invalid_definition"
	case models.ErrorKindCircularDependency:
		return "circular_dependency"
	case models.ErrorKindInvalidStepIndex:
		return "invalid_step_index"
	case models.ErrorKindStoreUnavailable:
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

// handleFailure renders a failure result as a problem document.
func handleFailure(c fiber.Ctx, failure *models.Failure) error {
	status := statusForKind(failure.Kind)

	problem := failureProblem{
		Problem: problems.NewStatusProblem(status).
			WithInstance(c.Path()).
			WithType(problemType(failure.Kind)).
			WithDetail(failure.Message),
		Kind:     failure.Kind,
		Workflow: failure.Workflow,
		Hints:    failure.Hints,
	}

	return c.Status(status).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	var validationErr *services.ValidationError

	switch {
	case errors.As(err, &validationErr):
		problem := validationProblem{
			Problem: problems.NewStatusProblem(422).
				WithInstance(c.Path()).
				WithType("invalid_definition").
				WithDetail(validationErr.Err.Error()),
			Problems: validationErr.Problems,
		}

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case workflow.KindOf(err) != "":
		return handleFailure(c, workflow.ToFailure(err))

	default:
		return internalError(c, err)
	}
}
