package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/example/team-tasks/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NotificationModule consumes notice events, persists in-app records
// and sends best-effort email. A failed insert or send is logged and
// swallowed: the task mutation that produced the notice already
// committed and must stand.
type NotificationModule struct {
	db     *gorm.DB
	repo   *Repository
	mailer Mailer
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)

// NewModule creates a new NotificationModule.
func NewModule() *NotificationModule {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	return &NotificationModule{
		dbPath: dbPath,
		mailer: NewMailer(SMTPConfigFromEnv()),
	}
}

// Name returns the module name.
func (m *NotificationModule) Name() string {
	return "notification"
}

// RegisterEventConsumers subscribes to notice events.
func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.NoticeIssuedV1, m.handleNoticeIssued, m); err != nil {
		return fmt.Errorf("failed to register NoticeIssued consumer: %w", err)
	}
	log.Printf("[notification] Registered event consumers: NoticeIssued")
	return nil
}

// handleNoticeIssued persists the in-app record (when the notice has a
// title) and sends the email (when it has a subject). Both legs are
// best-effort.
func (m *NotificationModule) handleNoticeIssued(_ context.Context, event events.NoticeIssuedEvent, _ *mono.Msg) error {
	if event.Recipient == "" {
		return nil
	}

	if event.Title != "" {
		n := &Notification{
			ID:             uuid.New().String(),
			RecipientEmail: event.Recipient,
			Title:          event.Title,
			Message:        event.Message,
			TaskID:         event.TaskID,
		}
		if err := m.repo.Insert(n); err != nil {
			log.Printf("[notification] Warning: failed to store notification for %s: %v", event.Recipient, err)
		}
	}

	if event.EmailSubject != "" {
		if err := m.mailer.Send(event.Recipient, event.EmailSubject, event.EmailBody); err != nil {
			log.Printf("[notification] Warning: failed to email %s: %v", event.Recipient, err)
		}
	}
	return nil
}

// RegisterServices registers request-reply services in the service container.
func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.list,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "mark-read", json.Unmarshal, json.Marshal, m.markRead,
	); err != nil {
		return fmt.Errorf("failed to register mark-read service: %w", err)
	}

	log.Printf("[notification] Registered services: list, mark-read")
	return nil
}

func (m *NotificationModule) list(_ context.Context, req ListRequest, _ *mono.Msg) (ListResponse, error) {
	if req.UserEmail == "" {
		return ListResponse{}, fmt.Errorf("user_email is required")
	}
	notifications, err := m.repo.ListByRecipient(req.UserEmail)
	if err != nil {
		return ListResponse{}, err
	}
	return ListResponse{Notifications: notifications}, nil
}

func (m *NotificationModule) markRead(_ context.Context, req MarkReadRequest, _ *mono.Msg) (MarkReadResponse, error) {
	if req.UserEmail == "" {
		return MarkReadResponse{}, fmt.Errorf("user_email is required")
	}
	updated, err := m.repo.MarkAllRead(req.UserEmail)
	if err != nil {
		return MarkReadResponse{}, err
	}
	return MarkReadResponse{Updated: updated}, nil
}

// Start initializes the database connection and runs migrations.
func (m *NotificationModule) Start(_ context.Context) error {
	log.Printf("[notification] Connecting to SQLite database: %s", m.dbPath)

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

	if err := m.db.AutoMigrate(&Notification{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.repo = NewRepository(m.db)

	log.Println("[notification] Module started - listening for notice events")
	return nil
}

// Stop gracefully closes the database connection.
func (m *NotificationModule) Stop(_ context.Context) error {
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
	log.Println("[notification] Module stopped")
	return nil
}
