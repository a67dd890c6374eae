package domain

import "time"

// PayrollPeriod is the persisted aggregate a manager finalizes. Revision is a
// monotonic counter bumped on every re-finalization; bumping logically
// invalidates all prior confirmations without deleting them.
type PayrollPeriod struct {
	ID        string
	TenantID  string
	StartDate time.Time
	EndDate   time.Time
	Revision  int
	Lines     []PayrollLine
}

// PayrollLine is one employee's totals within a period.
type PayrollLine struct {
	EmployeeID   string
	EmployeeName string
	Minutes      int64
	Amount       float64
}

// PayrollConfirmation records one employee acknowledging one revision of a
// period. A confirmation is only valid for the revision it names.
type PayrollConfirmation struct {
	PeriodID    string
	EmployeeID  string
	Revision    int
	ConfirmedAt time.Time
}
