package employee

import (
	"context"

	domain "github.com/example/team-tasks/domain/employee"
)

// EmployeeInfo is the directory record exposed to other modules.
type EmployeeInfo struct {
	ID       string      `json:"id"`
	FullName string      `json:"full_name"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
}

// GetByEmailRequest is the request for looking up one employee.
type GetByEmailRequest struct {
	Email string `json:"email"`
}

// GetByEmailResponse is the response for an employee lookup.
type GetByEmailResponse struct {
	Employee *EmployeeInfo `json:"employee,omitempty"`
	Found    bool          `json:"found"`
}

// ListRequest is the request for listing the directory.
type ListRequest struct{}

// ListResponse is the directory listing, ordered by full name.
type ListResponse struct {
	Employees []EmployeeInfo `json:"employees"`
}

// ManagersRequest is the request for listing all managers.
type ManagersRequest struct{}

// ManagersResponse holds every employee with the Manager role.
type ManagersResponse struct {
	Managers []EmployeeInfo `json:"managers"`
}

// EmployeePort is the interface other modules use to reach the
// directory.
type EmployeePort interface {
	GetByEmail(ctx context.Context, email string) (*EmployeeInfo, error)
	List(ctx context.Context) ([]EmployeeInfo, error)
	Managers(ctx context.Context) ([]EmployeeInfo, error)
}
