package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/example/task-store/domain/task"
	cachemod "github.com/example/task-store/modules/cache"
	"github.com/example/task-store/modules/report"
	taskmod "github.com/example/task-store/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers provides HTTP handlers for the API.
type Handlers struct {
	taskService *taskmod.Service
	cacheModule *cachemod.Module
	healthFn    func(context.Context) map[string]string
	exporter    *report.Exporter
}

// NewHandlers creates a new handlers instance.
func NewHandlers(taskService *taskmod.Service, cacheModule *cachemod.Module, healthFn func(context.Context) map[string]string) *Handlers {
	return &Handlers{
		taskService: taskService,
		cacheModule: cacheModule,
		healthFn:    healthFn,
		exporter:    report.NewExporter(),
	}
}

// Root handles GET / with the service listing.
func (h *Handlers) Root(c *fiber.Ctx) error {
	return c.JSON(RootResponse{
		Message: "Task Store Service is running",
		Endpoints: map[string]EndpointInfo{
			"create_task":      {Method: "POST", Path: "/tasks"},
			"list_tasks":       {Method: "GET", Path: "/tasks"},
			"get_task":         {Method: "GET", Path: "/tasks/{id}"},
			"update_task":      {Method: "PUT", Path: "/tasks/{id}"},
			"delete_task":      {Method: "DELETE", Path: "/tasks/{id}"},
			"weekly_analytics": {Method: "GET", Path: "/tasks/analytics/weekly-completion"},
			"weekly_export":    {Method: "GET", Path: "/tasks/analytics/weekly-completion/export"},
		},
	})
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	checks := map[string]string{}
	if h.healthFn != nil {
		checks = h.healthFn(c.UserContext())
	}

	status := "ok"
	code := fiber.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = "degraded"
			code = fiber.StatusServiceUnavailable
			break
		}
	}

	return c.Status(code).JSON(HealthResponse{Status: status, Checks: checks})
}

// CreateTask handles POST /tasks.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req task.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return h.validationDetail(c, "body", "invalid request body")
	}

	created, err := h.taskService.Create(c.Context(), &req)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListTasks handles GET /tasks with an optional status filter.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	var status *task.Status
	if q := c.Query("status"); q != "" {
		s := task.Status(q)
		status = &s
	}

	tasks, fromCache, err := h.taskService.List(c.Context(), status)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(task.TaskListResponse{
		Tasks:     tasks,
		Total:     len(tasks),
		FromCache: fromCache,
	})
}

// GetTask handles GET /tasks/:id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	id, err := h.parseID(c)
	if err != nil {
		return h.validationDetail(c, "id", "must be a positive integer")
	}

	t, _, err := h.taskService.GetByID(c.Context(), id)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(t)
}

// UpdateTask handles PUT /tasks/:id.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	id, err := h.parseID(c)
	if err != nil {
		return h.validationDetail(c, "id", "must be a positive integer")
	}

	var req task.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return h.validationDetail(c, "body", "invalid request body")
	}

	updated, err := h.taskService.Update(c.Context(), id, &req)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(updated)
}

// DeleteTask handles DELETE /tasks/:id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	id, err := h.parseID(c)
	if err != nil {
		return h.validationDetail(c, "id", "must be a positive integer")
	}

	if err := h.taskService.Delete(c.Context(), id); err != nil {
		return h.handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// WeeklyCompletion handles GET /tasks/analytics/weekly-completion.
func (h *Handlers) WeeklyCompletion(c *fiber.Ctx) error {
	weeks := c.QueryInt("weeks", 4)

	rows, _, err := h.taskService.WeeklyCompletion(c.Context(), weeks)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	return c.JSON(rows)
}

// ExportWeeklyCompletion handles GET /tasks/analytics/weekly-completion/export.
func (h *Handlers) ExportWeeklyCompletion(c *fiber.Ctx) error {
	weeks := c.QueryInt("weeks", 4)
	format := c.Query("format", report.FormatJSON)

	rows, _, err := h.taskService.WeeklyCompletion(c.Context(), weeks)
	if err != nil {
		return h.handleServiceError(c, err)
	}

	data, contentType, err := h.exporter.Export(rows, format)
	if err != nil {
		var ufErr *report.ErrUnknownFormat
		if errors.As(err, &ufErr) {
			return h.validationDetail(c, "format", ufErr.Error())
		}
		return h.handleServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=weekly-completion.%s", format))
	return c.Send(data)
}

// CacheStats handles GET /cache/stats.
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	if h.cacheModule == nil || h.cacheModule.GetService() == nil {
		return c.JSON(cachemod.StatsSnapshot{})
	}
	return c.JSON(h.cacheModule.GetService().Stats())
}

// ResetCacheStats handles POST /cache/stats/reset.
func (h *Handlers) ResetCacheStats(c *fiber.Ctx) error {
	if h.cacheModule != nil && h.cacheModule.GetService() != nil {
		h.cacheModule.GetService().ResetStats()
	}
	return c.JSON(fiber.Map{"message": "cache statistics reset"})
}

// parseID extracts the numeric task ID from the route.
func (h *Handlers) parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// validationDetail returns a 422 with a single field error.
func (h *Handlers) validationDetail(c *fiber.Ctx, field, message string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
		Error:   "validation_error",
		Details: []task.FieldError{{Field: field, Message: message}},
	})
}

// handleServiceError maps service errors onto HTTP status codes.
func (h *Handlers) handleServiceError(c *fiber.Ctx, err error) error {
	var verr *task.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
			Error:   "validation_error",
			Details: verr.Fields,
		})
	}

	if errors.Is(err, task.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	}

	log.Printf("[api] %s %s failed: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "Internal Server Error",
	})
}
