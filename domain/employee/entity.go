package employee

import (
	"errors"
	"time"
)

// Role distinguishes managers from regular employees.
type Role string

const (
	RoleManager  Role = "Manager"
	RoleEmployee Role = "Employee"
)

// ErrNotFound is returned when no employee matches the lookup.
var ErrNotFound = errors.New("employee not found")

// Employee is a directory record. Email is the stable identifier used
// for every assignment and ownership comparison; FullName is display
// data only.
type Employee struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	FullName  string    `gorm:"size:100;not null" json:"full_name"`
	Email     string    `gorm:"size:200;uniqueIndex;not null" json:"email"`
	Role      Role      `gorm:"size:20;not null;default:'Employee'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the Employee model.
func (Employee) TableName() string {
	return "employees"
}

// IsManager reports whether the employee holds the manager role.
func (e *Employee) IsManager() bool {
	return e.Role == RoleManager
}
