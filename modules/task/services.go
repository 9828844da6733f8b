package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/example/task-store/domain/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Service bus request/reply types. The HTTP surface in modules/api is
// the primary interface; these expose the same operations over the
// mono service container as "services.task.*".

// GetTaskRequest asks for a single task by ID.
type GetTaskRequest struct {
	ID uint `json:"id"`
}

// ListTasksRequest optionally restricts the listing to a status.
type ListTasksRequest struct {
	Status *task.Status `json:"status,omitempty"`
}

// ListTasksResponse carries the task listing.
type ListTasksResponse struct {
	Tasks []task.Task `json:"tasks"`
	Total int         `json:"total"`
}

// UpdateTaskServiceRequest pairs a task ID with the partial update.
type UpdateTaskServiceRequest struct {
	ID uint `json:"id"`
	task.UpdateTaskRequest
}

// DeleteTaskRequest asks for a task to be removed.
type DeleteTaskRequest struct {
	ID uint `json:"id"`
}

// DeleteTaskResponse reports the outcome of a delete.
type DeleteTaskResponse struct {
	Deleted bool `json:"deleted"`
	ID      uint `json:"id"`
}

// WeeklyCompletionRequest asks for the trailing-window report.
type WeeklyCompletionRequest struct {
	Weeks int `json:"weeks"`
}

// WeeklyCompletionResponse carries the report rows.
type WeeklyCompletionResponse struct {
	Weeks []task.WeeklyCompletion `json:"weeks"`
}

// RegisterServices registers request-reply services in the service
// container. The framework prefixes service names with the module
// name, so "create" becomes "services.task.create".
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update", json.Unmarshal, json.Marshal, m.handleUpdate,
	); err != nil {
		return fmt.Errorf("failed to register update service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "weekly", json.Unmarshal, json.Marshal, m.handleWeekly,
	); err != nil {
		return fmt.Errorf("failed to register weekly service: %w", err)
	}

	log.Printf("[task] Registered services: services.task.{create,get,list,update,delete,weekly}")
	return nil
}

func (m *Module) handleCreate(ctx context.Context, req task.CreateTaskRequest, _ *mono.Msg) (task.Task, error) {
	svc, err := m.runningService()
	if err != nil {
		return task.Task{}, err
	}
	t, err := svc.Create(ctx, &req)
	if err != nil {
		return task.Task{}, err
	}
	return *t, nil
}

func (m *Module) handleGet(ctx context.Context, req GetTaskRequest, _ *mono.Msg) (task.Task, error) {
	svc, err := m.runningService()
	if err != nil {
		return task.Task{}, err
	}
	t, _, err := svc.GetByID(ctx, req.ID)
	if err != nil {
		return task.Task{}, err
	}
	return *t, nil
}

func (m *Module) handleList(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	svc, err := m.runningService()
	if err != nil {
		return ListTasksResponse{}, err
	}
	tasks, _, err := svc.List(ctx, req.Status)
	if err != nil {
		return ListTasksResponse{}, err
	}
	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

func (m *Module) handleUpdate(ctx context.Context, req UpdateTaskServiceRequest, _ *mono.Msg) (task.Task, error) {
	svc, err := m.runningService()
	if err != nil {
		return task.Task{}, err
	}
	t, err := svc.Update(ctx, req.ID, &req.UpdateTaskRequest)
	if err != nil {
		return task.Task{}, err
	}
	return *t, nil
}

func (m *Module) handleDelete(ctx context.Context, req DeleteTaskRequest, _ *mono.Msg) (DeleteTaskResponse, error) {
	svc, err := m.runningService()
	if err != nil {
		return DeleteTaskResponse{}, err
	}
	if err := svc.Delete(ctx, req.ID); err != nil {
		return DeleteTaskResponse{Deleted: false, ID: req.ID}, err
	}
	return DeleteTaskResponse{Deleted: true, ID: req.ID}, nil
}

func (m *Module) handleWeekly(ctx context.Context, req WeeklyCompletionRequest, _ *mono.Msg) (WeeklyCompletionResponse, error) {
	svc, err := m.runningService()
	if err != nil {
		return WeeklyCompletionResponse{}, err
	}
	rows, _, err := svc.WeeklyCompletion(ctx, req.Weeks)
	if err != nil {
		return WeeklyCompletionResponse{}, err
	}
	return WeeklyCompletionResponse{Weeks: rows}, nil
}

// runningService returns the service once Start has run.
func (m *Module) runningService() (*Service, error) {
	if m.service == nil {
		return nil, fmt.Errorf("task service not started")
	}
	return m.service, nil
}
