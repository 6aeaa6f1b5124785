package api

import (
	"context"
	"net/http"
	"strings"
	"testing"

	domain "github.com/example/team-tasks/domain/task"
	"github.com/example/team-tasks/modules/digest"
	"github.com/example/team-tasks/modules/employee"
	"github.com/example/team-tasks/modules/notification"
	"github.com/example/team-tasks/modules/task"
	"github.com/gofiber/fiber/v2"
)

// fakeTaskPort returns canned responses keyed by task ID.
type fakeTaskPort struct {
	tasks map[string]*domain.Task
}

func (f *fakeTaskPort) CreateTask(_ context.Context, req *task.CreateTaskRequest) (*task.CreateTaskResponse, error) {
	if req.Title == "" {
		return &task.CreateTaskResponse{Err: &task.ServiceError{Kind: task.KindInvalidRequest, Message: "title required"}}, nil
	}
	return &task.CreateTaskResponse{Task: &domain.Task{ID: "new-task", Title: req.Title}}, nil
}

func (f *fakeTaskPort) GetTask(_ context.Context, taskID string) (*task.GetTaskResponse, error) {
	t, ok := f.tasks[taskID]
	if !ok {
		return &task.GetTaskResponse{Err: &task.ServiceError{Kind: task.KindNotFound, Message: "task not found"}}, nil
	}
	return &task.GetTaskResponse{Task: t}, nil
}

func (f *fakeTaskPort) UpdateTask(_ context.Context, req *task.UpdateTaskRequest) (*task.UpdateTaskResponse, error) {
	if _, ok := f.tasks[req.TaskID]; !ok {
		return &task.UpdateTaskResponse{Err: &task.ServiceError{Kind: task.KindNotFound, Message: "task not found"}}, nil
	}
	if req.Updates.DeleteTask {
		return &task.UpdateTaskResponse{Pending: true}, nil
	}
	return &task.UpdateTaskResponse{Task: f.tasks[req.TaskID]}, nil
}

func (f *fakeTaskPort) ResolveApproval(_ context.Context, req *task.ResolveApprovalRequest) (*task.ResolveApprovalResponse, error) {
	if req.ManagerEmail != "dana@example.com" {
		return &task.ResolveApprovalResponse{Err: &task.ServiceError{Kind: task.KindForbidden, Message: "not a manager"}}, nil
	}
	return &task.ResolveApprovalResponse{Approved: req.Approve, Rejected: !req.Approve, Task: f.tasks[req.TaskID]}, nil
}

func (f *fakeTaskPort) ListTasks(_ context.Context, _ string) (*task.ListTasksResponse, error) {
	var list []*domain.Task
	for _, t := range f.tasks {
		list = append(list, t)
	}
	return &task.ListTasksResponse{Tasks: list, Total: len(list)}, nil
}

func (f *fakeTaskPort) ListActivity(_ context.Context, _ string) (*task.ListActivityResponse, error) {
	return &task.ListActivityResponse{}, nil
}

func (f *fakeTaskPort) DashboardSummary(_ context.Context, _ string) (*task.DashboardSummaryResponse, error) {
	return &task.DashboardSummaryResponse{Total: len(f.tasks)}, nil
}

type fakeEmployeePort struct{}

func (fakeEmployeePort) GetByEmail(context.Context, string) (*employee.EmployeeInfo, error) {
	return &employee.EmployeeInfo{}, nil
}
func (fakeEmployeePort) List(context.Context) ([]employee.EmployeeInfo, error) { return nil, nil }
func (fakeEmployeePort) Managers(context.Context) ([]employee.EmployeeInfo, error) {
	return nil, nil
}

type fakeNotificationPort struct{}

func (fakeNotificationPort) List(context.Context, string) ([]*notification.Notification, error) {
	return nil, nil
}
func (fakeNotificationPort) MarkAllRead(context.Context, string) (int64, error) { return 2, nil }

type fakeDigestPort struct{}

func (fakeDigestPort) Run(context.Context) (*digest.RunResponse, error) {
	return &digest.RunResponse{Sent: 3, Skipped: 1}, nil
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()
	m := &APIModule{
		addr: ":0",
		taskPort: &fakeTaskPort{tasks: map[string]*domain.Task{
			"task-1": {ID: "task-1", Title: "Write report"},
		}},
		employeePort:     fakeEmployeePort{},
		notificationPort: fakeNotificationPort{},
		digestPort:       fakeDigestPort{},
	}
	m.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})
	m.setupRoutes()
	return m.app
}

func TestStatusForKind(t *testing.T) {
	tests := []struct {
		kind string
		want int
	}{
		{task.KindNotFound, http.StatusNotFound},
		{task.KindForbidden, http.StatusForbidden},
		{task.KindInvalidRequest, http.StatusBadRequest},
		{task.KindInvalidState, http.StatusConflict},
		{"something_else", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestRoutes(t *testing.T) {
	app := setupTestApp(t)

	request := func(method, path, body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, path, strings.NewReader(body))
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test() error = %v", err)
		}
		return resp
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", "GET", "/health", "", http.StatusOK},
		{"create task", "POST", "/api/v1/tasks", `{"title":"T","created_by_email":"alice@example.com"}`, http.StatusCreated},
		{"create task invalid", "POST", "/api/v1/tasks", `{"created_by_email":"alice@example.com"}`, http.StatusBadRequest},
		{"list tasks", "GET", "/api/v1/tasks?viewer=alice@example.com", "", http.StatusOK},
		{"get task", "GET", "/api/v1/tasks/task-1", "", http.StatusOK},
		{"get missing task", "GET", "/api/v1/tasks/nope", "", http.StatusNotFound},
		{"update task", "PUT", "/api/v1/tasks/task-1", `{"requester_email":"alice@example.com","updates":{"title":"New"}}`, http.StatusOK},
		{"update missing task", "PUT", "/api/v1/tasks/nope", `{"requester_email":"alice@example.com","updates":{}}`, http.StatusNotFound},
		{"approval by manager", "PATCH", "/api/v1/tasks/task-1/approval", `{"approve":true,"manager_email":"dana@example.com"}`, http.StatusOK},
		{"approval by employee", "PATCH", "/api/v1/tasks/task-1/approval", `{"approve":true,"manager_email":"bob@example.com"}`, http.StatusForbidden},
		{"task activity", "GET", "/api/v1/tasks/task-1/activity", "", http.StatusOK},
		{"global activity", "GET", "/api/v1/activity", "", http.StatusOK},
		{"employees", "GET", "/api/v1/employees", "", http.StatusOK},
		{"dashboard", "GET", "/api/v1/dashboard/summary?viewer=dana@example.com", "", http.StatusOK},
		{"notifications without user", "GET", "/api/v1/notifications", "", http.StatusBadRequest},
		{"notifications", "GET", "/api/v1/notifications?user=alice@example.com", "", http.StatusOK},
		{"mark read", "POST", "/api/v1/notifications/mark-read", `{"user_email":"alice@example.com"}`, http.StatusOK},
		{"mark read without user", "POST", "/api/v1/notifications/mark-read", `{}`, http.StatusBadRequest},
		{"daily summary", "POST", "/api/v1/daily-summary", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := request(tt.method, tt.path, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
			}
		})
	}
}
