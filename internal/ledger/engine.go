// Package ledger derives work sessions from an ordered clock-event stream.
// Derivation is pure: no I/O, no shared state, and it never fails — malformed
// histories degrade into degenerate or orphan sessions instead of errors, so
// a corrupt event stream can never block the projection from rendering.
package ledger

import (
	"strings"

	"shiftledger/internal/domain"
)

// cursorKey scopes open sessions per employee and site. Site comparison is
// case-insensitive to match the rest of the system.
type cursorKey struct {
	employeeID string
	site       string
}

// Derive pairs clock events into sessions. Input must be sorted by timestamp
// ascending; the event store guarantees that on every read.
//
// Pairing rules:
//   - "in" with no open session opens one.
//   - "in" while one is already open closes the previous as degenerate (no
//     out, still counted active) and opens a new one. No event is dropped.
//   - "out" with an open session closes it; minutes = floor(delta/60000).
//   - "out" with no open session becomes an orphan session holding only the
//     out event.
//
// Sessions come back ordered by their opening (or, for orphans, only) event's
// timestamp, which is the order they were encountered in.
func Derive(events []domain.TimeEvent) []domain.Session {
	sessions := make([]domain.Session, 0, len(events)/2+1)
	open := make(map[cursorKey]int) // key -> index into sessions

	for i := range events {
		ev := events[i]
		key := cursorKey{employeeID: ev.EmployeeID, site: strings.ToLower(ev.SiteName)}

		switch ev.Action {
		case domain.ActionIn:
			// A second in force-closes the previous session as degenerate;
			// it simply stays open in the output.
			sessions = append(sessions, domain.Session{
				EmployeeID:   ev.EmployeeID,
				EmployeeName: ev.EmployeeName,
				SiteName:     ev.SiteName,
				In:           &events[i],
				Active:       true,
			})
			open[key] = len(sessions) - 1

		case domain.ActionOut:
			idx, ok := open[key]
			if !ok {
				// Orphan: keep the event visible rather than discarding it.
				sessions = append(sessions, domain.Session{
					EmployeeID:   ev.EmployeeID,
					EmployeeName: ev.EmployeeName,
					SiteName:     ev.SiteName,
					Out:          &events[i],
				})
				continue
			}
			s := &sessions[idx]
			s.Out = &events[i]
			s.Active = false
			s.Minutes = (ev.Timestamp - s.In.Timestamp) / 60000
			delete(open, key)
		}
	}

	return sessions
}
