package task

import (
	"context"
	"errors"
	"time"

	domain "github.com/example/team-tasks/domain/task"
)

// ServiceError carries an expected domain failure across the service
// boundary. Infrastructure failures travel as plain errors instead.
type ServiceError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds surfaced to callers.
const (
	KindNotFound       = "not_found"
	KindForbidden      = "forbidden"
	KindInvalidRequest = "invalid_request"
	KindInvalidState   = "invalid_state"
)

// asServiceError converts a domain error into its wire form. Returns
// nil for errors outside the taxonomy, which the caller should treat
// as a store failure.
func asServiceError(err error) *ServiceError {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return &ServiceError{Kind: KindNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrForbidden):
		return &ServiceError{Kind: KindForbidden, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidRequest):
		return &ServiceError{Kind: KindInvalidRequest, Message: err.Error()}
	case errors.Is(err, domain.ErrInvalidState):
		return &ServiceError{Kind: KindInvalidState, Message: err.Error()}
	default:
		return nil
	}
}

// CreateTaskRequest is the request for creating a task. The assignee,
// when given, is identified by email; display names come from the
// employee directory.
type CreateTaskRequest struct {
	Title           string              `json:"title"`
	Brief           string              `json:"brief,omitempty"`
	Priority        domain.Priority     `json:"priority,omitempty"`
	AssignedToEmail string              `json:"assigned_to_email,omitempty"`
	CreatedByEmail  string              `json:"created_by_email"`
	StartDate       *time.Time          `json:"start_date,omitempty"`
	DueDate         *time.Time          `json:"due_date,omitempty"`
	Attachments     []domain.Attachment `json:"attachments,omitempty"`
}

// CreateTaskResponse is the response for creating a task.
type CreateTaskResponse struct {
	Task *domain.Task  `json:"task,omitempty"`
	Err  *ServiceError `json:"err,omitempty"`
}

// GetTaskRequest is the request for fetching one task.
type GetTaskRequest struct {
	TaskID string `json:"task_id"`
}

// GetTaskResponse is the response for fetching one task.
type GetTaskResponse struct {
	Task *domain.Task  `json:"task,omitempty"`
	Err  *ServiceError `json:"err,omitempty"`
}

// UpdateTaskRequest dispatches one requested change; which fields of
// Updates are set determines the transition taken.
type UpdateTaskRequest struct {
	TaskID         string         `json:"task_id"`
	RequesterEmail string         `json:"requester_email"`
	Updates        domain.Updates `json:"updates"`
}

// UpdateTaskResponse is the response for a task update. Pending means
// the change was parked behind manager approval; Deleted means the
// task was removed.
type UpdateTaskResponse struct {
	Task    *domain.Task  `json:"task,omitempty"`
	Pending bool          `json:"pending,omitempty"`
	Deleted bool          `json:"deleted,omitempty"`
	Err     *ServiceError `json:"err,omitempty"`
}

// ResolveApprovalRequest is a manager's approve/reject decision.
type ResolveApprovalRequest struct {
	TaskID       string `json:"task_id"`
	ManagerEmail string `json:"manager_email"`
	Approve      bool   `json:"approve"`
}

// ResolveApprovalResponse is the response for an approval decision.
type ResolveApprovalResponse struct {
	Task     *domain.Task  `json:"task,omitempty"`
	Approved bool          `json:"approved,omitempty"`
	Rejected bool          `json:"rejected,omitempty"`
	Deleted  bool          `json:"deleted,omitempty"`
	Err      *ServiceError `json:"err,omitempty"`
}

// ListTasksRequest lists tasks for a viewer. An empty viewer email
// returns everything (administrative path).
type ListTasksRequest struct {
	ViewerEmail string `json:"viewer_email,omitempty"`
}

// ListTasksResponse is the visibility-filtered task list, newest first.
type ListTasksResponse struct {
	Tasks []*domain.Task `json:"tasks"`
	Total int            `json:"total"`
	Err   *ServiceError  `json:"err,omitempty"`
}

// ActivityRow is one flattened activity record for the global feed.
type ActivityRow struct {
	TaskID     string    `json:"task_id"`
	TaskNumber int       `json:"task_number"`
	TaskTitle  string    `json:"task_title"`
	Action     string    `json:"action"`
	Comment    string    `json:"comment,omitempty"`
	User       string    `json:"user"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListActivityRequest fetches activity for one task, or the flattened
// feed across all tasks when TaskID is empty.
type ListActivityRequest struct {
	TaskID string `json:"task_id,omitempty"`
}

// ListActivityResponse carries per-task entries or flattened rows.
type ListActivityResponse struct {
	Activity []domain.ActivityEntry `json:"activity,omitempty"`
	Rows     []ActivityRow          `json:"rows,omitempty"`
	Err      *ServiceError          `json:"err,omitempty"`
}

// DashboardSummaryRequest computes counts over the viewer's visible
// task set.
type DashboardSummaryRequest struct {
	ViewerEmail string `json:"viewer_email,omitempty"`
}

// DashboardSummaryResponse is the read-side aggregation for dashboards.
type DashboardSummaryResponse struct {
	Total      int            `json:"total"`
	ByStage    map[string]int `json:"by_stage"`
	ByApproval map[string]int `json:"by_approval"`
	Overdue    int            `json:"overdue"`
	Err        *ServiceError  `json:"err,omitempty"`
}

// TaskPort is the interface driving adapters use to reach the task
// module.
type TaskPort interface {
	CreateTask(ctx context.Context, req *CreateTaskRequest) (*CreateTaskResponse, error)
	GetTask(ctx context.Context, taskID string) (*GetTaskResponse, error)
	UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*UpdateTaskResponse, error)
	ResolveApproval(ctx context.Context, req *ResolveApprovalRequest) (*ResolveApprovalResponse, error)
	ListTasks(ctx context.Context, viewerEmail string) (*ListTasksResponse, error)
	ListActivity(ctx context.Context, taskID string) (*ListActivityResponse, error)
	DashboardSummary(ctx context.Context, viewerEmail string) (*DashboardSummaryResponse, error)
}
