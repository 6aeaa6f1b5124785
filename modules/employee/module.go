package employee

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	domain "github.com/example/team-tasks/domain/employee"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// EmployeeModule provides the employee directory service.
type EmployeeModule struct {
	db     *gorm.DB
	repo   *Repository
	dbPath string
}

// Compile-time interface checks.
var _ mono.Module = (*EmployeeModule)(nil)
var _ mono.ServiceProviderModule = (*EmployeeModule)(nil)
var _ mono.HealthCheckableModule = (*EmployeeModule)(nil)

// NewModule creates a new EmployeeModule.
func NewModule() *EmployeeModule {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "tasks.db"
	}
	return &EmployeeModule{dbPath: dbPath}
}

// Name returns the module name.
func (m *EmployeeModule) Name() string {
	return "employee"
}

// Health performs a health check on the employee module.
func (m *EmployeeModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not initialized"}
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("failed to get sql.DB: %v", err)}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{Healthy: false, Message: fmt.Sprintf("database ping failed: %v", err)}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers request-reply services in the service container.
func (m *EmployeeModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-by-email", json.Unmarshal, json.Marshal, m.getByEmail,
	); err != nil {
		return fmt.Errorf("failed to register get-by-email service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list", json.Unmarshal, json.Marshal, m.list,
	); err != nil {
		return fmt.Errorf("failed to register list service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "managers", json.Unmarshal, json.Marshal, m.managers,
	); err != nil {
		return fmt.Errorf("failed to register managers service: %w", err)
	}

	log.Printf("[employee] Registered services: get-by-email, list, managers")
	return nil
}

func (m *EmployeeModule) getByEmail(_ context.Context, req GetByEmailRequest, _ *mono.Msg) (GetByEmailResponse, error) {
	e, err := m.repo.FindByEmail(req.Email)
	if err != nil {
		if err == domain.ErrNotFound {
			return GetByEmailResponse{Found: false}, nil
		}
		return GetByEmailResponse{}, err
	}
	return GetByEmailResponse{Employee: toInfo(e), Found: true}, nil
}

func (m *EmployeeModule) list(_ context.Context, _ ListRequest, _ *mono.Msg) (ListResponse, error) {
	employees, err := m.repo.FindAll()
	if err != nil {
		return ListResponse{}, err
	}
	resp := ListResponse{Employees: make([]EmployeeInfo, 0, len(employees))}
	for _, e := range employees {
		resp.Employees = append(resp.Employees, *toInfo(e))
	}
	return resp, nil
}

func (m *EmployeeModule) managers(_ context.Context, _ ManagersRequest, _ *mono.Msg) (ManagersResponse, error) {
	managers, err := m.repo.FindByRole(domain.RoleManager)
	if err != nil {
		return ManagersResponse{}, err
	}
	resp := ManagersResponse{Managers: make([]EmployeeInfo, 0, len(managers))}
	for _, e := range managers {
		resp.Managers = append(resp.Managers, *toInfo(e))
	}
	return resp, nil
}

func toInfo(e *domain.Employee) *EmployeeInfo {
	return &EmployeeInfo{
		ID:       e.ID,
		FullName: e.FullName,
		Email:    e.Email,
		Role:     e.Role,
	}
}

// Start initializes the database connection and runs migrations.
func (m *EmployeeModule) Start(_ context.Context) error {
	log.Printf("[employee] Connecting to SQLite database: %s", m.dbPath)

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

	if err := m.db.AutoMigrate(&domain.Employee{}); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.repo = NewRepository(m.db)

	if err := m.seedDemoEmployees(); err != nil {
		return fmt.Errorf("failed to seed employees: %w", err)
	}

	log.Println("[employee] Module started")
	return nil
}

// seedDemoEmployees populates an empty directory with demo records so
// the system is usable out of the box.
func (m *EmployeeModule) seedDemoEmployees() error {
	n, err := m.repo.Count()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	demo := []*domain.Employee{
		{ID: uuid.New().String(), FullName: "Dana Reed", Email: "dana@example.com", Role: domain.RoleManager},
		{ID: uuid.New().String(), FullName: "Alice Johnson", Email: "alice@example.com", Role: domain.RoleEmployee},
		{ID: uuid.New().String(), FullName: "Bob Smith", Email: "bob@example.com", Role: domain.RoleEmployee},
		{ID: uuid.New().String(), FullName: "Charlie Brown", Email: "charlie@example.com", Role: domain.RoleEmployee},
	}
	for _, e := range demo {
		if err := m.repo.Create(e); err != nil {
			return err
		}
	}
	log.Printf("[employee] Seeded %d demo employees", len(demo))
	return nil
}

// Stop gracefully closes the database connection.
func (m *EmployeeModule) Stop(_ context.Context) error {
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
	log.Println("[employee] Module stopped")
	return nil
}
