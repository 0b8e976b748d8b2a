// Package web provides HTTP handlers and REST API endpoints for workflow orchestration.
package web

import (
	"net/http"
	"time"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
	}
}

// Register mounts every workflow route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Get("/:name", h.GetWorkflow)
	w.Put("/:name", h.SaveWorkflow)
	w.Delete("/:name", h.DeleteWorkflow)
	w.Get("/:name/resolve", h.ResolveWorkflow)
	w.Post("/:name/plan", h.PlanWorkflow)
	w.Post("/:name/advance", h.AdvanceWorkflow)
	w.Post("/:name/validate", h.ValidateWorkflow)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	names, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(WorkflowListResponse{
		Workflows:  names,
		TotalCount: len(names),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	raw, err := h.workflowService.Get(c.Context(), c.Params("name"))
	if err != nil {
		return handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.Send(raw)
}

func (h *APIHandlers) SaveWorkflow(c fiber.Ctx) error {
	name := c.Params("name")

	body := c.Body()
	if len(body) == 0 {
		return badRequest(c, "Request body must contain a workflow definition")
	}

	// Body is copied: fiber reuses the request buffer once the handler returns.
	definition := make([]byte, len(body))
	copy(definition, body)

	err := h.workflowService.Save(c.Context(), name, definition)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(SaveWorkflowResponse{Name: name, Saved: true})
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	err := h.workflowService.Delete(c.Context(), c.Params("name"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ResolveWorkflow(c fiber.Ctx) error {
	result := h.workflowService.Resolve(c.Context(), c.Params("name"))
	if result.Failure != nil {
		return handleFailure(c, result.Failure)
	}

	return c.JSON(result.Workflow)
}

func (h *APIHandlers) PlanWorkflow(c fiber.Ctx) error {
	var req PlanRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	result := h.workflowService.Plan(c.Context(), c.Params("name"), dataOrEmpty(req.Data))
	if result.Failure != nil {
		return handleFailure(c, result.Failure)
	}

	return c.JSON(result.Plan)
}

func (h *APIHandlers) AdvanceWorkflow(c fiber.Ctx) error {
	var req AdvanceRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.workflowService.Advance(c.Context(), models.AdvanceRequest{
		Workflow:  c.Params("name"),
		StepIndex: req.StepIndex,
		Data:      dataOrEmpty(req.Data),
		Mode:      models.AdvanceMode(req.Mode),
	})
	if result.Failure != nil {
		return handleFailure(c, result.Failure)
	}

	return c.JSON(result)
}

// dataOrEmpty treats an omitted or null data object as {}.
func dataOrEmpty(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}

	return data
}

func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	result := h.workflowService.Validate(c.Context(), c.Params("name"))
	if result.Failure != nil {
		return handleFailure(c, result.Failure)
	}

	return c.JSON(result)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	message, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	httpStatus := http.StatusServiceUnavailable

	if ok {
		status = "healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"persistence": message,
		},
		"timestamp": time.Now().UTC(),
	})
}
