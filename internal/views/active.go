// Package views computes read-only projections on top of derived sessions.
// Every view is a pure function of its inputs and is recomputed wholesale on
// change; Cache offers identity-based memoization for callers that re-query
// the same snapshot repeatedly.
package views

import (
	"strings"

	"shiftledger/internal/domain"
)

// ActiveIndex maps employee IDs to the lowercased site names where they hold
// an open session right now.
type ActiveIndex map[string]map[string]struct{}

// BuildActiveIndex scans sessions for open ones.
func BuildActiveIndex(sessions []domain.Session) ActiveIndex {
	idx := make(ActiveIndex)
	for _, s := range sessions {
		if !s.Active || s.In == nil {
			continue
		}
		sites, ok := idx[s.EmployeeID]
		if !ok {
			sites = make(map[string]struct{})
			idx[s.EmployeeID] = sites
		}
		sites[strings.ToLower(s.SiteName)] = struct{}{}
	}
	return idx
}

// IsClockedIn reports whether the employee has any open session, or one at
// the named site when siteName is non-empty. Site comparison is
// case-insensitive.
func (idx ActiveIndex) IsClockedIn(employeeID, siteName string) bool {
	sites, ok := idx[employeeID]
	if !ok {
		return false
	}
	if siteName == "" {
		return len(sites) > 0
	}
	_, ok = sites[strings.ToLower(siteName)]
	return ok
}
