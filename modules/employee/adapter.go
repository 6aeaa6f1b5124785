package employee

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/example/team-tasks/domain/employee"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// employeeAdapter wraps ServiceContainer for type-safe cross-module
// communication with the employee directory.
type employeeAdapter struct {
	container mono.ServiceContainer
}

// NewEmployeeAdapter creates a new adapter for employee services.
// container is the ServiceContainer from the employee module received
// via SetDependencyServiceContainer.
func NewEmployeeAdapter(container mono.ServiceContainer) EmployeePort {
	if container == nil {
		panic("employee adapter requires non-nil ServiceContainer")
	}
	return &employeeAdapter{container: container}
}

// GetByEmail looks up one employee. Returns domain.ErrNotFound when no
// record matches.
func (a *employeeAdapter) GetByEmail(ctx context.Context, email string) (*EmployeeInfo, error) {
	req := GetByEmailRequest{Email: email}
	var resp GetByEmailResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "get-by-email", json.Marshal, json.Unmarshal, &req, &resp,
	); err != nil {
		return nil, fmt.Errorf("get-by-email service call failed: %w", err)
	}
	if !resp.Found {
		return nil, domain.ErrNotFound
	}
	return resp.Employee, nil
}

// List returns the whole directory ordered by full name.
func (a *employeeAdapter) List(ctx context.Context) ([]EmployeeInfo, error) {
	var resp ListResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "list", json.Marshal, json.Unmarshal, &ListRequest{}, &resp,
	); err != nil {
		return nil, fmt.Errorf("list service call failed: %w", err)
	}
	return resp.Employees, nil
}

// Managers returns every employee with the Manager role.
func (a *employeeAdapter) Managers(ctx context.Context) ([]EmployeeInfo, error) {
	var resp ManagersResponse
	if err := helper.CallRequestReplyService(
		ctx, a.container, "managers", json.Marshal, json.Unmarshal, &ManagersRequest{}, &resp,
	); err != nil {
		return nil, fmt.Errorf("managers service call failed: %w", err)
	}
	return resp.Managers, nil
}
