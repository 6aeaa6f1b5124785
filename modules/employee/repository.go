package employee

import (
	"errors"
	"fmt"

	domain "github.com/example/team-tasks/domain/employee"
	"gorm.io/gorm"
)

// Repository provides access to employee storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new employee repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create saves a new employee.
func (r *Repository) Create(e *domain.Employee) error {
	if err := r.db.Create(e).Error; err != nil {
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// FindByEmail retrieves an employee by email.
func (r *Repository) FindByEmail(email string) (*domain.Employee, error) {
	var e domain.Employee
	if err := r.db.First(&e, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find employee: %w", err)
	}
	return &e, nil
}

// FindAll retrieves all employees ordered by full name.
func (r *Repository) FindAll() ([]*domain.Employee, error) {
	var employees []*domain.Employee
	if err := r.db.Order("full_name").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// FindByRole retrieves all employees with the given role.
func (r *Repository) FindByRole(role domain.Role) ([]*domain.Employee, error) {
	var employees []*domain.Employee
	if err := r.db.Where("role = ?", role).Order("full_name").Find(&employees).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees by role: %w", err)
	}
	return employees, nil
}

// Count returns the number of employees in the directory.
func (r *Repository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&domain.Employee{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return n, nil
}
