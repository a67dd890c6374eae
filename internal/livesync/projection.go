package livesync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"shiftledger/internal/domain"
)

// Projection is the owned, in-memory mirror of the tenant's collections. The
// synchronizer is its single writer; consumers read copies via Snapshot.
// Sessions are re-derived from Events on every events push, never diffed.
type Projection struct {
	TenantID       string
	Events         []domain.TimeEvent
	Sessions       []domain.Session
	Schedules      []domain.Schedule
	MileageLogs    []domain.MileageLog
	Expenses       []domain.Expense
	Employees      []domain.Employee
	Invoices       []domain.Invoice
	UpdateRequests []domain.EmployeeUpdateRequest
	Periods        []domain.PayrollPeriod
	Confirmations  []domain.PayrollConfirmation
}

// decodeSnapshot rejects unknown shapes at the adapter boundary so use sites
// never see loosely-typed payloads.
func decodeSnapshot[T any](snapshot []byte) ([]T, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(snapshot))
	dec.DisallowUnknownFields()
	var out []T
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return out, nil
}

// decodeEvents additionally validates action tags and restores the timestamp
// ordering the derivation engine depends on.
func decodeEvents(snapshot []byte) ([]domain.TimeEvent, error) {
	events, err := decodeSnapshot[domain.TimeEvent](snapshot)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if _, err := domain.ParseAction(string(ev.Action)); err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.ID, err)
		}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp < events[j].Timestamp })
	return events, nil
}

// mergeConfirmations replaces only the confirmations belonging to periodID,
// leaving other periods untouched. Sub-feeds push independently and out of
// order relative to each other, so a full replace would drop siblings.
func mergeConfirmations(existing []domain.PayrollConfirmation, periodID string, incoming []domain.PayrollConfirmation) []domain.PayrollConfirmation {
	merged := make([]domain.PayrollConfirmation, 0, len(existing)+len(incoming))
	for _, c := range existing {
		if c.PeriodID != periodID {
			merged = append(merged, c)
		}
	}
	for _, c := range incoming {
		c.PeriodID = periodID
		merged = append(merged, c)
	}
	return merged
}
