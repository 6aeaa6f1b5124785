package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// taskAdapter wraps ServiceContainer for type-safe cross-module
// communication. It implements the TaskPort interface.
type taskAdapter struct {
	container mono.ServiceContainer
}

// NewTaskAdapter creates a new adapter for task services. container is
// the ServiceContainer from the task module received via
// SetDependencyServiceContainer.
func NewTaskAdapter(container mono.ServiceContainer) TaskPort {
	if container == nil {
		panic("task adapter requires non-nil ServiceContainer")
	}
	return &taskAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, a *taskAdapter, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx, a.container, service, json.Marshal, json.Unmarshal, req, resp,
	); err != nil {
		return fmt.Errorf("%s service call failed: %w", service, err)
	}
	return nil
}

// CreateTask creates a new task via the create-task service.
func (a *taskAdapter) CreateTask(ctx context.Context, req *CreateTaskRequest) (*CreateTaskResponse, error) {
	var resp CreateTaskResponse
	if err := call(ctx, a, "create-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTask retrieves a task by ID via the get-task service.
func (a *taskAdapter) GetTask(ctx context.Context, taskID string) (*GetTaskResponse, error) {
	req := GetTaskRequest{TaskID: taskID}
	var resp GetTaskResponse
	if err := call(ctx, a, "get-task", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask applies one requested change via the update-task service.
func (a *taskAdapter) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*UpdateTaskResponse, error) {
	var resp UpdateTaskResponse
	if err := call(ctx, a, "update-task", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResolveApproval applies a manager decision via the resolve-approval service.
func (a *taskAdapter) ResolveApproval(ctx context.Context, req *ResolveApprovalRequest) (*ResolveApprovalResponse, error) {
	var resp ResolveApprovalResponse
	if err := call(ctx, a, "resolve-approval", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTasks lists tasks for a viewer via the list-tasks service.
func (a *taskAdapter) ListTasks(ctx context.Context, viewerEmail string) (*ListTasksResponse, error) {
	req := ListTasksRequest{ViewerEmail: viewerEmail}
	var resp ListTasksResponse
	if err := call(ctx, a, "list-tasks", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListActivity fetches per-task or flattened activity via the
// list-activity service.
func (a *taskAdapter) ListActivity(ctx context.Context, taskID string) (*ListActivityResponse, error) {
	req := ListActivityRequest{TaskID: taskID}
	var resp ListActivityResponse
	if err := call(ctx, a, "list-activity", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DashboardSummary computes viewer-scoped counts via the
// dashboard-summary service.
func (a *taskAdapter) DashboardSummary(ctx context.Context, viewerEmail string) (*DashboardSummaryResponse, error) {
	req := DashboardSummaryRequest{ViewerEmail: viewerEmail}
	var resp DashboardSummaryResponse
	if err := call(ctx, a, "dashboard-summary", &req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
