package employees

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
	"shiftledger/pkg/requestcontext"
)

// Service drives the update-request lifecycle. Requests move from pending to
// exactly one of approved or rejected; both outcomes are terminal.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Submit files a pending profile-change request. The proposed field updates
// are validated up front so approval cannot fail on a malformed request.
func (s *Service) Submit(ctx context.Context, tenantID, employeeID string, updates map[string]string) (domain.EmployeeUpdateRequest, error) {
	if len(updates) == 0 {
		return domain.EmployeeUpdateRequest{}, fmt.Errorf("empty update set: %w", sentinel.ErrInvalidState)
	}
	employee, err := s.store.GetEmployee(ctx, tenantID, employeeID)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	if _, err := applyUpdates(employee, updates); err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}

	return s.store.CreateUpdateRequest(ctx, tenantID, domain.EmployeeUpdateRequest{
		EmployeeID:     employeeID,
		Updates:        updates,
		Status:         domain.UpdateRequestPending,
		RequestedAt:    requestcontext.Now(ctx),
		RequestedByUID: requestcontext.ActorUID(ctx),
	})
}

// Approve applies the request's updates to the employee record and stamps
// ApprovedAt. Approving a non-pending request fails without side effects.
func (s *Service) Approve(ctx context.Context, tenantID, requestID string) (domain.EmployeeUpdateRequest, error) {
	request, err := s.store.GetUpdateRequest(ctx, tenantID, requestID)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	if request.Status != domain.UpdateRequestPending {
		return domain.EmployeeUpdateRequest{}, fmt.Errorf("request %s is %s: %w", requestID, request.Status, sentinel.ErrInvalidState)
	}

	employee, err := s.store.GetEmployee(ctx, tenantID, request.EmployeeID)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	updated, err := applyUpdates(employee, request.Updates)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	if _, err := s.store.UpdateEmployee(ctx, tenantID, updated); err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}

	now := requestcontext.Now(ctx)
	request.Status = domain.UpdateRequestApproved
	request.ApprovedAt = &now

	saved, err := s.store.SaveUpdateRequest(ctx, tenantID, request)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	s.logger.Info("update request approved",
		"tenant_id", tenantID, "request_id", requestID, "employee_id", request.EmployeeID)
	return saved, nil
}

// Reject records the reason and stamps RejectedAt. The employee record is
// never touched.
func (s *Service) Reject(ctx context.Context, tenantID, requestID, reason string) (domain.EmployeeUpdateRequest, error) {
	request, err := s.store.GetUpdateRequest(ctx, tenantID, requestID)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	if request.Status != domain.UpdateRequestPending {
		return domain.EmployeeUpdateRequest{}, fmt.Errorf("request %s is %s: %w", requestID, request.Status, sentinel.ErrInvalidState)
	}

	now := requestcontext.Now(ctx)
	request.Status = domain.UpdateRequestRejected
	request.RejectedAt = &now
	request.Reason = reason

	saved, err := s.store.SaveUpdateRequest(ctx, tenantID, request)
	if err != nil {
		return domain.EmployeeUpdateRequest{}, err
	}
	s.logger.Info("update request rejected",
		"tenant_id", tenantID, "request_id", requestID, "reason", reason)
	return saved, nil
}

// applyUpdates maps the request's loose key/value pairs onto typed employee
// fields. Unknown keys are rejected rather than silently dropped.
func applyUpdates(employee domain.Employee, updates map[string]string) (domain.Employee, error) {
	for key, value := range updates {
		switch key {
		case "name":
			employee.Name = value
		case "email":
			employee.Email = value
		case "rate":
			rate, err := strconv.ParseFloat(value, 64)
			if err != nil || rate < 0 {
				return domain.Employee{}, fmt.Errorf("rate %q: %w", value, sentinel.ErrInvalidState)
			}
			employee.Rate = rate
		default:
			return domain.Employee{}, fmt.Errorf("unknown update field %q: %w", key, sentinel.ErrInvalidState)
		}
	}
	return employee, nil
}
