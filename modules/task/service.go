package task

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	employeedomain "github.com/example/team-tasks/domain/employee"
	domain "github.com/example/team-tasks/domain/task"
	"github.com/example/team-tasks/events"
	"github.com/go-monolith/mono"
	"github.com/google/uuid"
)

// How often a conditional update is retried after losing a write race.
// Each retry reloads the task and recomputes the transition.
const maxUpdateAttempts = 3

// createTask handles the create-task service request.
func (m *TaskModule) createTask(ctx context.Context, req CreateTaskRequest, _ *mono.Msg) (CreateTaskResponse, error) {
	if req.Title == "" || req.CreatedByEmail == "" {
		return CreateTaskResponse{Err: &ServiceError{
			Kind:    KindInvalidRequest,
			Message: "title and created_by_email are required",
		}}, nil
	}

	env, err := m.buildEnv(ctx, req.CreatedByEmail)
	if err != nil {
		return CreateTaskResponse{}, err
	}

	t := domain.New(uuid.New().String(), 0, req.Title, req.Brief, req.Priority, env)
	t.StartDate = req.StartDate
	t.DueDate = req.DueDate
	t.Attachments = append(t.Attachments, req.Attachments...)

	if req.AssignedToEmail != "" {
		t.AssignedToEmail = req.AssignedToEmail
		if ref := m.lookupRef(ctx, req.AssignedToEmail); ref != nil {
			t.AssignedToName = ref.Name
		}
	}

	if err := m.repo.Create(t); err != nil {
		return CreateTaskResponse{}, err
	}

	m.publishNotices(domain.CreationNotices(t, env))
	return CreateTaskResponse{Task: t}, nil
}

// getTask handles the get-task service request.
func (m *TaskModule) getTask(_ context.Context, req GetTaskRequest, _ *mono.Msg) (GetTaskResponse, error) {
	t, err := m.repo.FindByID(req.TaskID)
	if err != nil {
		if svcErr := asServiceError(err); svcErr != nil {
			return GetTaskResponse{Err: svcErr}, nil
		}
		return GetTaskResponse{}, err
	}
	return GetTaskResponse{Task: t}, nil
}

// updateTask handles the update-task service request. It parses the
// update payload into a single requested change, runs the approval
// state machine, persists the outcome with a conditional write, and
// dispatches the resulting notices. Lost write races reload and
// recompute the transition.
func (m *TaskModule) updateTask(ctx context.Context, req UpdateTaskRequest, _ *mono.Msg) (UpdateTaskResponse, error) {
	if req.TaskID == "" || req.RequesterEmail == "" {
		return UpdateTaskResponse{Err: &ServiceError{
			Kind:    KindInvalidRequest,
			Message: "task_id and requester_email are required",
		}}, nil
	}

	env, err := m.buildEnv(ctx, req.RequesterEmail)
	if err != nil {
		return UpdateTaskResponse{}, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		t, err := m.repo.FindByID(req.TaskID)
		if err != nil {
			if svcErr := asServiceError(err); svcErr != nil {
				return UpdateTaskResponse{Err: svcErr}, nil
			}
			return UpdateTaskResponse{}, err
		}

		change, err := domain.ParseChange(t, req.Updates)
		if err != nil {
			if svcErr := asServiceError(err); svcErr != nil {
				return UpdateTaskResponse{Err: svcErr}, nil
			}
			return UpdateTaskResponse{}, err
		}

		if re, ok := change.(domain.Reassign); ok {
			env.ProposedAssignee = m.lookupRef(ctx, re.AssigneeEmail)
		}

		out, err := domain.Apply(t, change, env)
		if err != nil {
			if svcErr := asServiceError(err); svcErr != nil {
				return UpdateTaskResponse{Err: svcErr}, nil
			}
			return UpdateTaskResponse{}, err
		}

		if out.Deleted {
			if err := m.repo.Delete(t.ID); err != nil {
				if svcErr := asServiceError(err); svcErr != nil {
					return UpdateTaskResponse{Err: svcErr}, nil
				}
				return UpdateTaskResponse{}, err
			}
			m.publishDeleted(t, env.Actor.Email)
			m.publishNotices(out.Notices)
			return UpdateTaskResponse{Deleted: true}, nil
		}

		if err := m.repo.Update(out.Task); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			if svcErr := asServiceError(err); svcErr != nil {
				return UpdateTaskResponse{Err: svcErr}, nil
			}
			return UpdateTaskResponse{}, err
		}

		m.publishNotices(out.Notices)
		return UpdateTaskResponse{Task: out.Task, Pending: out.Pending}, nil
	}
	return UpdateTaskResponse{}, fmt.Errorf("task %s: %w after %d attempts", req.TaskID, domain.ErrConflict, maxUpdateAttempts)
}

// resolveApproval handles the resolve-approval service request.
func (m *TaskModule) resolveApproval(ctx context.Context, req ResolveApprovalRequest, _ *mono.Msg) (ResolveApprovalResponse, error) {
	if req.TaskID == "" || req.ManagerEmail == "" {
		return ResolveApprovalResponse{Err: &ServiceError{
			Kind:    KindInvalidRequest,
			Message: "task_id and manager_email are required",
		}}, nil
	}

	env, err := m.buildEnv(ctx, req.ManagerEmail)
	if err != nil {
		return ResolveApprovalResponse{}, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		t, err := m.repo.FindByID(req.TaskID)
		if err != nil {
			if svcErr := asServiceError(err); svcErr != nil {
				return ResolveApprovalResponse{Err: svcErr}, nil
			}
			return ResolveApprovalResponse{}, err
		}

		if t.PendingAction == domain.PendingReassign {
			env.ProposedAssignee = m.lookupRef(ctx, t.PendingValue)
		}

		out, err := domain.Resolve(t, req.Approve, env)
		if err != nil {
			if svcErr := asServiceError(err); svcErr != nil {
				return ResolveApprovalResponse{Err: svcErr}, nil
			}
			return ResolveApprovalResponse{}, err
		}

		if out.Deleted {
			if err := m.repo.Delete(t.ID); err != nil {
				if svcErr := asServiceError(err); svcErr != nil {
					return ResolveApprovalResponse{Err: svcErr}, nil
				}
				return ResolveApprovalResponse{}, err
			}
			m.publishDeleted(t, env.Actor.Email)
			m.publishNotices(out.Notices)
			return ResolveApprovalResponse{Deleted: true}, nil
		}

		if err := m.repo.Update(out.Task); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			if svcErr := asServiceError(err); svcErr != nil {
				return ResolveApprovalResponse{Err: svcErr}, nil
			}
			return ResolveApprovalResponse{}, err
		}

		m.publishNotices(out.Notices)
		return ResolveApprovalResponse{
			Task:     out.Task,
			Approved: req.Approve,
			Rejected: !req.Approve,
		}, nil
	}
	return ResolveApprovalResponse{}, fmt.Errorf("task %s: %w after %d attempts", req.TaskID, domain.ErrConflict, maxUpdateAttempts)
}

// listTasks handles the list-tasks service request, applying the
// visibility filter for the viewer. No viewer returns everything.
func (m *TaskModule) listTasks(ctx context.Context, req ListTasksRequest, _ *mono.Msg) (ListTasksResponse, error) {
	tasks, err := m.repo.FindAll()
	if err != nil {
		return ListTasksResponse{}, err
	}

	if req.ViewerEmail != "" {
		manager := m.isManager(ctx, req.ViewerEmail)
		tasks = domain.FilterVisible(tasks, req.ViewerEmail, manager)
	}

	return ListTasksResponse{Tasks: tasks, Total: len(tasks)}, nil
}

// listActivity handles the activity service request: one task's log,
// or the flattened feed across all tasks.
func (m *TaskModule) listActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	if req.TaskID != "" {
		t, err := m.repo.FindByID(req.TaskID)
		if err != nil {
			if svcErr := asServiceError(err); svcErr != nil {
				return ListActivityResponse{Err: svcErr}, nil
			}
			return ListActivityResponse{}, err
		}
		return ListActivityResponse{Activity: t.Activity}, nil
	}

	tasks, err := m.repo.FindAll()
	if err != nil {
		return ListActivityResponse{}, err
	}
	rows := make([]ActivityRow, 0)
	for _, t := range tasks {
		for _, e := range t.Activity {
			rows = append(rows, ActivityRow{
				TaskID:     t.ID,
				TaskNumber: t.TaskNumber,
				TaskTitle:  t.Title,
				Action:     e.Action,
				Comment:    e.Comment,
				User:       e.User,
				Timestamp:  e.Timestamp,
			})
		}
	}
	return ListActivityResponse{Rows: rows}, nil
}

// dashboardSummary handles the dashboard-summary service request.
func (m *TaskModule) dashboardSummary(ctx context.Context, req DashboardSummaryRequest, _ *mono.Msg) (DashboardSummaryResponse, error) {
	tasks, err := m.repo.FindAll()
	if err != nil {
		return DashboardSummaryResponse{}, err
	}
	if req.ViewerEmail != "" {
		manager := m.isManager(ctx, req.ViewerEmail)
		tasks = domain.FilterVisible(tasks, req.ViewerEmail, manager)
	}

	resp := DashboardSummaryResponse{
		Total:      len(tasks),
		ByStage:    make(map[string]int),
		ByApproval: make(map[string]int),
	}
	now := time.Now()
	for _, t := range tasks {
		resp.ByStage[string(t.Stage)]++
		resp.ByApproval[string(t.ApprovalStatus)]++
		if t.DueDate != nil && t.DueDate.Before(now) && !t.Done() {
			resp.Overdue++
		}
	}
	return resp, nil
}

// buildEnv resolves the requester and the manager fan-out list into a
// machine environment. Requesters absent from the directory are
// treated as regular employees.
func (m *TaskModule) buildEnv(ctx context.Context, requesterEmail string) (domain.Env, error) {
	env := domain.Env{
		Now:   time.Now(),
		Actor: domain.Actor{Email: requesterEmail},
	}

	emp, err := m.employeePort.GetByEmail(ctx, requesterEmail)
	if err != nil && !errors.Is(err, employeedomain.ErrNotFound) {
		return env, fmt.Errorf("failed to resolve requester: %w", err)
	}
	if emp != nil {
		env.Actor.Name = emp.FullName
		env.Actor.Manager = emp.Role == employeedomain.RoleManager
	}

	managers, err := m.employeePort.Managers(ctx)
	if err != nil {
		return env, fmt.Errorf("failed to resolve managers: %w", err)
	}
	for _, mgr := range managers {
		env.Managers = append(env.Managers, domain.EmployeeRef{Name: mgr.FullName, Email: mgr.Email})
	}
	return env, nil
}

// lookupRef resolves a directory record to a machine reference, nil
// when the employee does not exist.
func (m *TaskModule) lookupRef(ctx context.Context, email string) *domain.EmployeeRef {
	emp, err := m.employeePort.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return &domain.EmployeeRef{Name: emp.FullName, Email: emp.Email}
}

func (m *TaskModule) isManager(ctx context.Context, email string) bool {
	emp, err := m.employeePort.GetByEmail(ctx, email)
	return err == nil && emp.Role == employeedomain.RoleManager
}

// publishNotices emits one NoticeIssued event per notice. Fan-out is
// best-effort: failures are logged and never abort the mutation that
// produced them.
func (m *TaskModule) publishNotices(notices []domain.Notice) {
	if m.eventBus == nil {
		return
	}
	for _, n := range notices {
		ev := events.NoticeIssuedEvent{
			Recipient:    n.Recipient,
			TaskID:       n.TaskID,
			Title:        n.Title,
			Message:      n.Message,
			EmailSubject: n.EmailSubject,
			EmailBody:    n.EmailBody,
			IssuedAt:     time.Now(),
		}
		if err := events.NoticeIssuedV1.Publish(m.eventBus, ev, nil); err != nil {
			log.Printf("[task] Warning: failed to publish notice for %s: %v", n.Recipient, err)
		}
	}
}

func (m *TaskModule) publishDeleted(t *domain.Task, deletedBy string) {
	if m.eventBus == nil {
		return
	}
	ev := events.TaskDeletedEvent{
		TaskID:     t.ID,
		TaskNumber: t.TaskNumber,
		Title:      t.Title,
		DeletedBy:  deletedBy,
		DeletedAt:  time.Now(),
	}
	if err := events.TaskDeletedV1.Publish(m.eventBus, ev, nil); err != nil {
		log.Printf("[task] Warning: failed to publish TaskDeleted event for task %s: %v", t.ID, err)
	}
}
