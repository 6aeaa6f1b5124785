package digest

import (
	"context"
	"strings"
	"testing"
	"time"

	employeedomain "github.com/example/team-tasks/domain/employee"
	domain "github.com/example/team-tasks/domain/task"
	"github.com/example/team-tasks/modules/employee"
	"github.com/example/team-tasks/modules/task"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	lastWeek := now.AddDate(0, 0, -7)
	email := "bob@example.com"

	tasks := []*domain.Task{
		{
			Title:           "Overdue",
			AssignedToEmail: email,
			DueDate:         timePtr(lastWeek),
			ApprovalStatus:  domain.ApprovalApproved,
		},
		{
			Title:           "Due today",
			AssignedToEmail: email,
			DueDate:         timePtr(now.Add(3 * time.Hour)),
			ApprovalStatus:  domain.ApprovalApproved,
		},
		{
			Title:           "Done yesterday",
			AssignedToEmail: email,
			CompletionDate:  timePtr(yesterday),
			ApprovalStatus:  domain.ApprovalApproved,
		},
		{
			// Completed overdue tasks leave the overdue bucket.
			Title:           "Finished late",
			AssignedToEmail: email,
			DueDate:         timePtr(lastWeek),
			CompletionDate:  timePtr(lastWeek),
			ApprovalStatus:  domain.ApprovalApproved,
		},
		{
			Title:          "Awaiting approval",
			CreatedByEmail: email,
			ApprovalStatus: domain.ApprovalPending,
		},
		{
			Title:           "Someone else's",
			AssignedToEmail: "alice@example.com",
			DueDate:         timePtr(lastWeek),
			ApprovalStatus:  domain.ApprovalApproved,
		},
	}

	s := summarize(tasks, email, now)

	if len(s.Overdue) != 1 || s.Overdue[0].Title != "Overdue" {
		t.Errorf("expected 1 overdue task, got %v", len(s.Overdue))
	}
	if len(s.DueToday) != 1 || s.DueToday[0].Title != "Due today" {
		t.Errorf("expected 1 due-today task, got %v", len(s.DueToday))
	}
	if len(s.CompletedYesterday) != 1 || s.CompletedYesterday[0].Title != "Done yesterday" {
		t.Errorf("expected 1 completed-yesterday task, got %v", len(s.CompletedYesterday))
	}
	if len(s.PendingApprovals) != 1 || s.PendingApprovals[0].Title != "Awaiting approval" {
		t.Errorf("expected 1 pending approval, got %v", len(s.PendingApprovals))
	}

	msg := s.message()
	want := "Overdue: 1, Due Today: 1, Completed Yesterday: 1, Pending Approvals: 1"
	if msg != want {
		t.Errorf("expected message %q, got %q", want, msg)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil, "bob@example.com", time.Now())
	if !s.Empty() {
		t.Error("expected empty summary for no tasks")
	}
}

func TestEmailBody(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s := summarize([]*domain.Task{
		{
			Title:           "Overdue",
			AssignedToEmail: "bob@example.com",
			DueDate:         timePtr(now.AddDate(0, 0, -2)),
		},
	}, "bob@example.com", now)

	body := s.emailBody("Bob Smith")
	if !strings.Contains(body, "Hello Bob Smith") {
		t.Errorf("expected greeting in body, got %q", body)
	}
	if !strings.Contains(body, "Overdue Tasks (1)") {
		t.Errorf("expected overdue section header, got %q", body)
	}
	if !strings.Contains(body, "Due: 2026-03-08") {
		t.Errorf("expected due date in body, got %q", body)
	}
}

// setupMarksDB opens an in-memory database holding only the marks table.
func setupMarksDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&Mark{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestClaim(t *testing.T) {
	m := &DigestModule{db: setupMarksDB(t)}

	claimed, err := m.claim("bob@example.com", "2026-03-10")
	if err != nil {
		t.Fatalf("claim() error = %v", err)
	}
	if !claimed {
		t.Fatal("expected first claim to succeed")
	}

	// Same employee, same day: already sent.
	claimed, err = m.claim("bob@example.com", "2026-03-10")
	if err != nil {
		t.Fatalf("claim() error = %v", err)
	}
	if claimed {
		t.Error("expected duplicate claim to be rejected")
	}

	// Different day and different employee are independent.
	if claimed, _ := m.claim("bob@example.com", "2026-03-11"); !claimed {
		t.Error("expected next-day claim to succeed")
	}
	if claimed, _ := m.claim("alice@example.com", "2026-03-10"); !claimed {
		t.Error("expected other-employee claim to succeed")
	}
}

func TestRelease(t *testing.T) {
	m := &DigestModule{db: setupMarksDB(t)}

	if claimed, err := m.claim("bob@example.com", "2026-03-10"); err != nil || !claimed {
		t.Fatalf("claim() = %v, %v", claimed, err)
	}

	// A released mark frees the day for a retry.
	m.release("bob@example.com", "2026-03-10")
	claimed, err := m.claim("bob@example.com", "2026-03-10")
	if err != nil {
		t.Fatalf("claim() error = %v", err)
	}
	if !claimed {
		t.Error("expected claim to succeed after release")
	}
}

// stubEmployees is a fixed directory for run tests.
type stubEmployees struct {
	list []employee.EmployeeInfo
}

func (s stubEmployees) GetByEmail(_ context.Context, email string) (*employee.EmployeeInfo, error) {
	for _, e := range s.list {
		if e.Email == email {
			return &e, nil
		}
	}
	return nil, employeedomain.ErrNotFound
}

func (s stubEmployees) List(context.Context) ([]employee.EmployeeInfo, error) {
	return s.list, nil
}

func (s stubEmployees) Managers(context.Context) ([]employee.EmployeeInfo, error) {
	return nil, nil
}

// stubTasks serves a fixed task list; the other port methods are never
// reached by the digest.
type stubTasks struct {
	tasks []*domain.Task
}

func (s stubTasks) ListTasks(context.Context, string) (*task.ListTasksResponse, error) {
	return &task.ListTasksResponse{Tasks: s.tasks, Total: len(s.tasks)}, nil
}

func (stubTasks) CreateTask(context.Context, *task.CreateTaskRequest) (*task.CreateTaskResponse, error) {
	return nil, nil
}

func (stubTasks) GetTask(context.Context, string) (*task.GetTaskResponse, error) {
	return nil, nil
}

func (stubTasks) UpdateTask(context.Context, *task.UpdateTaskRequest) (*task.UpdateTaskResponse, error) {
	return nil, nil
}

func (stubTasks) ResolveApproval(context.Context, *task.ResolveApprovalRequest) (*task.ResolveApprovalResponse, error) {
	return nil, nil
}

func (stubTasks) ListActivity(context.Context, string) (*task.ListActivityResponse, error) {
	return nil, nil
}

func (stubTasks) DashboardSummary(context.Context, string) (*task.DashboardSummaryResponse, error) {
	return nil, nil
}

func TestRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	m := &DigestModule{
		db: setupMarksDB(t),
		employeePort: stubEmployees{list: []employee.EmployeeInfo{
			{FullName: "Alice Johnson", Email: "alice@example.com", Role: employeedomain.RoleEmployee},
			{FullName: "Bob Smith", Email: "bob@example.com", Role: employeedomain.RoleEmployee},
		}},
		taskPort: stubTasks{tasks: []*domain.Task{
			{
				Title:           "Overdue",
				AssignedToEmail: "alice@example.com",
				DueDate:         timePtr(now.AddDate(0, 0, -2)),
				ApprovalStatus:  domain.ApprovalApproved,
			},
		}},
	}

	resp, err := m.run(context.Background(), now)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	// Alice has an overdue task; Bob has nothing to report.
	if resp.Sent != 1 {
		t.Errorf("expected 1 sent, got %d", resp.Sent)
	}
	if resp.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", resp.Skipped)
	}

	// A rerun the same day sends nothing: Alice is already marked.
	resp, err = m.run(context.Background(), now)
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if resp.Sent != 0 {
		t.Errorf("expected 0 sent on rerun, got %d", resp.Sent)
	}
	if resp.Skipped != 2 {
		t.Errorf("expected 2 skipped on rerun, got %d", resp.Skipped)
	}
}
