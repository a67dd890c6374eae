package domain

import (
	"fmt"
	"time"
)

// Action discriminates the two clock event kinds. Unknown strings are
// rejected at the adapter boundary, not at use sites.
type Action string

const (
	ActionIn  Action = "in"
	ActionOut Action = "out"
)

// ParseAction validates an action string coming off the wire.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionIn, ActionOut:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown clock action %q", s)
}

// TimeEvent is an immutable clock-in/clock-out fact. Action, EmployeeID and
// Timestamp are never mutated after creation; only Note and the location fix
// may be patched in later.
type TimeEvent struct {
	ID           string
	TenantID     string
	EmployeeID   string
	EmployeeName string // denormalized snapshot at event time
	Action       Action
	Timestamp    int64 // epoch millis
	SiteName     string
	Lat          *float64
	Lng          *float64
	Note         string
}

// Time converts the epoch-millis timestamp to a time.Time.
func (e TimeEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// EventPatch carries the only fields a TimeEvent allows to change after the
// fact. Absent pointers leave the stored value untouched.
type EventPatch struct {
	Note *string
	Lat  *float64
	Lng  *float64
}
