package payroll

import (
	"context"

	"shiftledger/internal/domain"
)

// Store persists periods and their nested confirmations. BumpRevision is a
// store operation rather than a read-modify-write so the postgres
// implementation can make it a single atomic statement.
//
// Confirmations are append-only across revisions: confirming the same
// employee at the same revision twice overwrites that one document, but a
// bump never touches documents written under earlier revisions.
type Store interface {
	CreatePeriod(ctx context.Context, period domain.PayrollPeriod) (domain.PayrollPeriod, error)
	GetPeriod(ctx context.Context, tenantID, id string) (domain.PayrollPeriod, error)
	ListPeriods(ctx context.Context, tenantID string) ([]domain.PayrollPeriod, error)
	BumpRevision(ctx context.Context, tenantID, id string) (domain.PayrollPeriod, error)

	PutConfirmation(ctx context.Context, tenantID, periodID string, confirmation domain.PayrollConfirmation) (domain.PayrollConfirmation, error)
	ListConfirmations(ctx context.Context, tenantID, periodID string) ([]domain.PayrollConfirmation, error)
}
