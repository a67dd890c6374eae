package domain

import "time"

// The remaining flat collections the synchronizer projects. The engine only
// carries them through; none of them participate in session derivation.

// Schedule is a planned shift assignment.
type Schedule struct {
	ID         string
	EmployeeID string
	SiteName   string
	Start      time.Time
	End        time.Time
}

// MileageLog is a reimbursable drive record.
type MileageLog struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Miles      float64
	Purpose    string
}

// Expense is a non-mileage reimbursable cost.
type Expense struct {
	ID          string
	EmployeeID  string
	Date        time.Time
	Amount      float64
	Description string
}

// Invoice is a billed summary tied to a site or client.
type Invoice struct {
	ID       string
	SiteName string
	Issued   time.Time
	Total    float64
	Paid     bool
}
