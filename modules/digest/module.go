// Package digest runs the scheduled daily-summary job: at most one
// notification and one email per employee per calendar day, covering
// overdue, due-today, completed-yesterday and pending-approval tasks.
// Employees with nothing to report are skipped.
package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/example/team-tasks/events"
	"github.com/example/team-tasks/modules/employee"
	"github.com/example/team-tasks/modules/task"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Mark records that an employee's digest went out on a date. The
// unique index is the idempotency key: a rerun on the same day
// conflicts and is skipped.
type Mark struct {
	ID        uint      `gorm:"primarykey"`
	Email     string    `gorm:"size:200;not null;uniqueIndex:idx_digest_email_date"`
	Date      string    `gorm:"size:10;not null;uniqueIndex:idx_digest_email_date"`
	CreatedAt time.Time
}

// TableName returns the table name for the Mark model.
func (Mark) TableName() string {
	return "digest_marks"
}

// RunRequest triggers a digest run on demand.
type RunRequest struct{}

// RunResponse reports how many digests went out and how many were
// skipped, either as already sent today or as empty.
type RunResponse struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
}

// DigestPort is the interface driving adapters use to trigger a run.
type DigestPort interface {
	Run(ctx context.Context) (*RunResponse, error)
}

// DigestModule owns the daily-summary schedule.
type DigestModule struct {
	db           *gorm.DB
	employeePort employee.EmployeePort
	taskPort     task.TaskPort
	eventBus     mono.EventBus
	dbPath       string
	interval     time.Duration
	cancel       context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*DigestModule)(nil)
var _ mono.ServiceProviderModule = (*DigestModule)(nil)
var _ mono.DependentModule = (*DigestModule)(nil)
var _ mono.EventEmitterModule = (*DigestModule)(nil)

// NewModule creates a new DigestModule.
func NewModule() *DigestModule {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	interval := 24 * time.Hour
	if v := os.Getenv("DIGEST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}
	return &DigestModule{dbPath: dbPath, interval: interval}
}

// Name returns the module name.
func (m *DigestModule) Name() string {
	return "digest"
}

// Dependencies returns the list of module dependencies.
func (m *DigestModule) Dependencies() []string {
	return []string{"employee", "task"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *DigestModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "employee":
		m.employeePort = employee.NewEmployeeAdapter(container)
	case "task":
		m.taskPort = task.NewTaskAdapter(container)
	}
}

// SetEventBus receives the application event bus.
func (m *DigestModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *DigestModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.NoticeIssuedV1.ToBase(),
	}
}

// RegisterServices registers the on-demand run trigger.
func (m *DigestModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "run", json.Unmarshal, json.Marshal, m.runService,
	); err != nil {
		return fmt.Errorf("failed to register run service: %w", err)
	}
	log.Printf("[digest] Registered services: run")
	return nil
}

func (m *DigestModule) runService(ctx context.Context, _ RunRequest, _ *mono.Msg) (RunResponse, error) {
	return m.run(ctx, time.Now())
}

// run computes and dispatches the digest for every employee, skipping
// those with nothing to report and those already marked for today's
// date. A mark claimed for a digest that then fails to publish is
// released so a later run can retry the same day.
func (m *DigestModule) run(ctx context.Context, now time.Time) (RunResponse, error) {
	employees, err := m.employeePort.List(ctx)
	if err != nil {
		return RunResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}
	taskList, err := m.taskPort.ListTasks(ctx, "")
	if err != nil {
		return RunResponse{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	var resp RunResponse
	today := dateOf(now)
	for _, emp := range employees {
		s := summarize(taskList.Tasks, emp.Email, now)
		if s.Empty() {
			resp.Skipped++
			continue
		}

		claimed, err := m.claim(emp.Email, today)
		if err != nil {
			log.Printf("[digest] Warning: failed to claim digest for %s: %v", emp.Email, err)
			continue
		}
		if !claimed {
			resp.Skipped++
			continue
		}

		if err := m.publish(emp.FullName, emp.Email, s); err != nil {
			log.Printf("[digest] Warning: failed to publish digest for %s, releasing today's mark: %v", emp.Email, err)
			m.release(emp.Email, today)
			continue
		}
		resp.Sent++
	}
	log.Printf("[digest] Run complete: %d sent, %d skipped", resp.Sent, resp.Skipped)
	return resp, nil
}

// claim inserts the (email, date) mark; false means another run
// already sent today's digest.
func (m *DigestModule) claim(email, date string) (bool, error) {
	err := m.db.Create(&Mark{Email: email, Date: date}).Error
	if err == nil {
		return true, nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return false, nil
	}
	return false, err
}

func (m *DigestModule) publish(name, email string, s Summary) error {
	if m.eventBus == nil {
		return nil
	}
	ev := events.NoticeIssuedEvent{
		Recipient:    email,
		Title:        "Daily Summary",
		Message:      s.message(),
		EmailSubject: "Daily Task Summary",
		EmailBody:    s.emailBody(name),
		IssuedAt:     time.Now(),
	}
	return events.NoticeIssuedV1.Publish(m.eventBus, ev, nil)
}

// release drops the (email, date) mark so a failed digest can be
// retried within the same day.
func (m *DigestModule) release(email, date string) {
	if err := m.db.Where("email = ? AND date = ?", email, date).Delete(&Mark{}).Error; err != nil {
		log.Printf("[digest] Warning: failed to release digest mark for %s: %v", email, err)
	}
}

// Start opens the marks table and launches the schedule loop.
func (m *DigestModule) Start(_ context.Context) error {
	if m.employeePort == nil || m.taskPort == nil {
		return fmt.Errorf("digest dependencies not set")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "true" {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(m.dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db
	if err := m.db.AutoMigrate(&Mark{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.loop(loopCtx)

	log.Printf("[digest] Module started (interval: %s)", m.interval)
	return nil
}

func (m *DigestModule) loop(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[digest] Schedule loop stopping")
			return
		case now := <-ticker.C:
			if _, err := m.run(ctx, now); err != nil {
				log.Printf("[digest] Warning: scheduled run failed: %v", err)
			}
		}
	}
}

// Stop cancels the schedule loop and closes the database.
func (m *DigestModule) Stop(_ context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	log.Println("[digest] Module stopped")
	return nil
}
