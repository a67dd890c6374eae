package summary_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftledger/internal/domain"
	"shiftledger/internal/summary"
	"shiftledger/pkg/platform/sentinel"
	"shiftledger/pkg/testutil"
)

func session(employee, site string, in time.Time, out *time.Time, note string) domain.Session {
	s := domain.Session{
		EmployeeID:   employee,
		EmployeeName: employee,
		SiteName:     site,
		In: &domain.TimeEvent{
			EmployeeID: employee, EmployeeName: employee, Action: domain.ActionIn,
			Timestamp: in.UnixMilli(), SiteName: site, Note: note,
		},
		Active: out == nil,
	}
	if out != nil {
		s.Out = &domain.TimeEvent{
			EmployeeID: employee, EmployeeName: employee, Action: domain.ActionOut,
			Timestamp: out.UnixMilli(), SiteName: site,
		}
	}
	return s
}

func TestFlattenOverlapAndOrdering(t *testing.T) {
	day := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)
	out1 := day.Add(17 * time.Hour)
	outBefore := day.Add(-16 * time.Hour)

	sessions := []domain.Session{
		session("dana", "siteA", day.Add(9*time.Hour), &out1, "opening shift"),
		session("lee", "siteB", day.Add(10*time.Hour), nil, ""),
		// Fully before the range.
		session("kim", "siteA", day.Add(-24*time.Hour), &outBefore, ""),
	}

	rows := summary.Flatten(sessions, day, day.Add(24*time.Hour))

	require.Len(t, rows, 3)
	assert.Equal(t, "dana", rows[0].Employee)
	assert.Equal(t, "in", rows[0].Action)
	assert.Equal(t, "2026-05-04T09:00:00Z", rows[0].Timestamp)
	assert.Equal(t, "opening shift", rows[0].Note)
	assert.Equal(t, "lee", rows[1].Employee)
	assert.Equal(t, "in", rows[1].Action, "open session contributes only its in row")
	assert.Equal(t, "out", rows[2].Action)
}

func TestFlattenIncludesSessionsStraddlingRange(t *testing.T) {
	day := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)
	out := day.Add(2 * time.Hour)

	rows := summary.Flatten([]domain.Session{
		session("dana", "siteA", day.Add(-2*time.Hour), &out, ""),
	}, day, day.Add(24*time.Hour))

	require.Len(t, rows, 2, "session starting before the range still overlaps it")
}

func TestSummarizePostsRowsAndReturnsProse(t *testing.T) {
	day := time.Date(2026, time.May, 4, 0, 0, 0, 0, time.UTC)
	out := day.Add(17 * time.Hour)

	var received struct {
		From string        `json:"from"`
		To   string        `json:"to"`
		Rows []summary.Row `json:"rows"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_ = json.NewEncoder(w).Encode(map[string]string{"summary": "one shift worked"})
	}))
	defer server.Close()

	client := summary.NewClient(server.URL, testutil.Logger())
	prose, err := client.Summarize(context.Background(), []domain.Session{
		session("dana", "siteA", day.Add(9*time.Hour), &out, ""),
	}, day, day.Add(24*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "one shift worked", prose)
	assert.Equal(t, "2026-05-04T00:00:00Z", received.From)
	assert.Len(t, received.Rows, 2)
}

func TestSummarizeServiceFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := summary.NewClient(server.URL, testutil.Logger())
	_, err := client.Summarize(context.Background(), nil, time.Now(), time.Now())
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}
