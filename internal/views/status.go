package views

import (
	"strings"
	"time"

	"shiftledger/internal/domain"
)

// DayStatus classifies a site's coverage for one calendar day.
type DayStatus string

const (
	// StatusComplete: at least one session overlapping the day has closed.
	StatusComplete DayStatus = "complete"
	// StatusInProcess: only active sessions overlap the day.
	StatusInProcess DayStatus = "in-process"
	// StatusIncomplete: no session overlaps the day at all.
	StatusIncomplete DayStatus = "incomplete"
)

// SiteDailyStatus classifies each configured site for the day starting at
// dayStart. A session overlaps the day when its effective interval
// [in, out ?? now) intersects [dayStart, dayStart+24h). Orphan sessions have
// no start and never overlap.
func SiteDailyStatus(dayStart time.Time, sites []domain.Site, sessions []domain.Session, now time.Time) map[string]DayStatus {
	dayFrom := dayStart.UnixMilli()
	dayTo := dayStart.Add(24 * time.Hour).UnixMilli()
	nowMS := now.UnixMilli()

	out := make(map[string]DayStatus, len(sites))
	for _, site := range sites {
		out[site.Name] = StatusIncomplete
	}

	for _, s := range sessions {
		if s.In == nil {
			continue
		}
		end := nowMS
		if s.Out != nil {
			end = s.Out.Timestamp
		}
		if s.In.Timestamp >= dayTo || end <= dayFrom {
			continue
		}
		name := matchSiteName(sites, s.SiteName)
		if name == "" {
			continue
		}
		if s.Closed() {
			out[name] = StatusComplete
		} else if out[name] != StatusComplete {
			out[name] = StatusInProcess
		}
	}
	return out
}

func matchSiteName(sites []domain.Site, name string) string {
	for _, site := range sites {
		if strings.EqualFold(site.Name, name) {
			return site.Name
		}
	}
	return ""
}
