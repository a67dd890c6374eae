package views

import (
	"time"

	"shiftledger/internal/domain"
)

// Totals summarizes a date range: closed-session overlap minutes per
// employee, plus the open sessions that would otherwise be invisible.
type Totals struct {
	MinutesByEmployee map[string]int64
	ActiveShifts      []domain.Session
}

// RangeTotals sums each closed session's overlap (not full duration) with
// [from, to). Open sessions never contribute minutes but are listed as
// active shifts.
func RangeTotals(sessions []domain.Session, from, to time.Time) Totals {
	fromMS := from.UnixMilli()
	toMS := to.UnixMilli()

	t := Totals{MinutesByEmployee: make(map[string]int64)}
	for _, s := range sessions {
		if s.Active && s.In != nil {
			if s.In.Timestamp < toMS {
				t.ActiveShifts = append(t.ActiveShifts, s)
			}
			continue
		}
		if !s.Closed() {
			continue
		}
		if m := overlapMinutes(s.In.Timestamp, s.Out.Timestamp, fromMS, toMS); m > 0 {
			t.MinutesByEmployee[s.EmployeeID] += m
		}
	}
	return t
}

// SiteDayDurations breaks one day's worked minutes down by site and, inside
// each site, by employee. Durations are clipped to the day's window.
func SiteDayDurations(sessions []domain.Session, dayStart time.Time) map[string]map[string]int64 {
	fromMS := dayStart.UnixMilli()
	toMS := dayStart.Add(24 * time.Hour).UnixMilli()

	out := make(map[string]map[string]int64)
	for _, s := range sessions {
		if !s.Closed() {
			continue
		}
		m := overlapMinutes(s.In.Timestamp, s.Out.Timestamp, fromMS, toMS)
		if m <= 0 {
			continue
		}
		perEmployee, ok := out[s.SiteName]
		if !ok {
			perEmployee = make(map[string]int64)
			out[s.SiteName] = perEmployee
		}
		perEmployee[s.EmployeeID] += m
	}
	return out
}

func overlapMinutes(start, end, from, to int64) int64 {
	if start < from {
		start = from
	}
	if end > to {
		end = to
	}
	if end <= start {
		return 0
	}
	return (end - start) / 60000
}
