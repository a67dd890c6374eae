package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"shiftledger/internal/domain"
	"shiftledger/pkg/platform/sentinel"
	"shiftledger/pkg/requestcontext"
)

// Service wraps the store with the revision rules: confirmations are stamped
// with the period's revision at confirmation time, and a bump leaves every
// previously written confirmation in place while rendering it stale.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Finalize creates a period at revision 1 from its computed lines.
func (s *Service) Finalize(ctx context.Context, period domain.PayrollPeriod) (domain.PayrollPeriod, error) {
	if period.TenantID == "" {
		return domain.PayrollPeriod{}, fmt.Errorf("tenant id: %w", sentinel.ErrInvalidState)
	}
	if !period.EndDate.After(period.StartDate) {
		return domain.PayrollPeriod{}, fmt.Errorf("period end before start: %w", sentinel.ErrInvalidState)
	}
	period.Revision = 1

	created, err := s.store.CreatePeriod(ctx, period)
	if err != nil {
		return domain.PayrollPeriod{}, err
	}
	s.logger.Info("payroll period finalized",
		"tenant_id", created.TenantID, "period_id", created.ID,
		"start", created.StartDate, "end", created.EndDate)
	return created, nil
}

// Bump re-finalizes a period. Employees must confirm again against the new
// revision; their old confirmations stay on record.
func (s *Service) Bump(ctx context.Context, tenantID, periodID string) (domain.PayrollPeriod, error) {
	bumped, err := s.store.BumpRevision(ctx, tenantID, periodID)
	if err != nil {
		return domain.PayrollPeriod{}, err
	}
	s.logger.Info("payroll period revision bumped",
		"tenant_id", tenantID, "period_id", periodID, "revision", bumped.Revision)
	return bumped, nil
}

// Confirm records the employee's acknowledgement of the period's current
// revision. Confirming the same revision twice refreshes the timestamp.
func (s *Service) Confirm(ctx context.Context, tenantID, periodID, employeeID string) (domain.PayrollConfirmation, error) {
	if employeeID == "" {
		return domain.PayrollConfirmation{}, fmt.Errorf("employee id: %w", sentinel.ErrInvalidState)
	}
	period, err := s.store.GetPeriod(ctx, tenantID, periodID)
	if err != nil {
		return domain.PayrollConfirmation{}, err
	}

	return s.store.PutConfirmation(ctx, tenantID, periodID, domain.PayrollConfirmation{
		PeriodID:    periodID,
		EmployeeID:  employeeID,
		Revision:    period.Revision,
		ConfirmedAt: requestcontext.Now(ctx),
	})
}

// Current filters a period's confirmations down to those matching its present
// revision. Historical confirmations remain listed by the store but no longer
// count.
func Current(period domain.PayrollPeriod, confirmations []domain.PayrollConfirmation) []domain.PayrollConfirmation {
	matching := make([]domain.PayrollConfirmation, 0, len(confirmations))
	for _, c := range confirmations {
		if c.Revision == period.Revision {
			matching = append(matching, c)
		}
	}
	return matching
}
