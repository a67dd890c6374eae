package domain

// Session pairs an opening clock-in with an optional closing clock-out. It is
// derived wholesale from the ordered event stream and carries no identity
// across recomputations; consumers re-derive, never diff.
//
// Invariants: In (when present) has Action "in"; Out (when present) has
// Action "out" and Out.Timestamp >= In.Timestamp. A session with In == nil is
// an orphan (a clock-out that never matched an open session). A session with
// Out == nil is active, including degenerate sessions force-closed by a
// second clock-in.
type Session struct {
	EmployeeID   string
	EmployeeName string
	SiteName     string // taken from the opening event
	In           *TimeEvent
	Out          *TimeEvent
	Active       bool
	Minutes      int64 // meaningful only when Active is false and both ends exist
}

// Closed reports whether the session has both ends.
func (s Session) Closed() bool {
	return s.In != nil && s.Out != nil
}

// StartMillis is the ordering key: the opening event's timestamp, or the lone
// out event's for orphans.
func (s Session) StartMillis() int64 {
	if s.In != nil {
		return s.In.Timestamp
	}
	if s.Out != nil {
		return s.Out.Timestamp
	}
	return 0
}
