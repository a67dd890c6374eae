package domain

import "time"

// Employee is the profile record behind clock events. Events snapshot the
// name at creation time, so renames never rewrite history.
type Employee struct {
	ID       string
	Name     string
	Email    string
	Rate     float64
	Archived bool
}

// UpdateRequestStatus tracks the lifecycle of a self-service profile change.
type UpdateRequestStatus string

const (
	UpdateRequestPending  UpdateRequestStatus = "pending"
	UpdateRequestApproved UpdateRequestStatus = "approved"
	UpdateRequestRejected UpdateRequestStatus = "rejected"
)

// EmployeeUpdateRequest is a pending profile-change proposal submitted by a
// non-manager. Approval applies Updates to the employee record; rejection
// records a reason and nothing else. Both outcomes are terminal.
type EmployeeUpdateRequest struct {
	ID             string
	EmployeeID     string
	Updates        map[string]string
	Status         UpdateRequestStatus
	RequestedAt    time.Time
	RequestedByUID string
	ApprovedAt     *time.Time
	RejectedAt     *time.Time
	Reason         string
}
