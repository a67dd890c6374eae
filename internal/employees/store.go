// Package employees owns employee records and the self-service
// update-request lifecycle managers approve or reject.
package employees

import (
	"context"

	"shiftledger/internal/domain"
)

type Store interface {
	CreateEmployee(ctx context.Context, tenantID string, employee domain.Employee) (domain.Employee, error)
	GetEmployee(ctx context.Context, tenantID, id string) (domain.Employee, error)
	ListEmployees(ctx context.Context, tenantID string) ([]domain.Employee, error)
	UpdateEmployee(ctx context.Context, tenantID string, employee domain.Employee) (domain.Employee, error)

	CreateUpdateRequest(ctx context.Context, tenantID string, request domain.EmployeeUpdateRequest) (domain.EmployeeUpdateRequest, error)
	GetUpdateRequest(ctx context.Context, tenantID, id string) (domain.EmployeeUpdateRequest, error)
	ListUpdateRequests(ctx context.Context, tenantID string) ([]domain.EmployeeUpdateRequest, error)
	SaveUpdateRequest(ctx context.Context, tenantID string, request domain.EmployeeUpdateRequest) (domain.EmployeeUpdateRequest, error)
}
