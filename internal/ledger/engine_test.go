package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"shiftledger/internal/domain"
)

type DeriveSuite struct {
	suite.Suite
	day time.Time
}

func (s *DeriveSuite) SetupTest() {
	s.day = time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
}

func (s *DeriveSuite) at(hour, minute int) int64 {
	return s.day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute).UnixMilli()
}

func event(emp string, action domain.Action, ts int64, site string) domain.TimeEvent {
	return domain.TimeEvent{
		ID:           emp + "-" + string(action),
		EmployeeID:   emp,
		EmployeeName: "Employee " + emp,
		Action:       action,
		Timestamp:    ts,
		SiteName:     site,
	}
}

func (s *DeriveSuite) TestClosedSession() {
	events := []domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(9, 0), "siteA"),
		event("e1", domain.ActionOut, s.at(17, 0), "siteA"),
	}

	sessions := Derive(events)
	require.Len(s.T(), sessions, 1)

	got := sessions[0]
	assert.False(s.T(), got.Active)
	assert.True(s.T(), got.Closed())
	assert.EqualValues(s.T(), 480, got.Minutes)
	assert.Equal(s.T(), "siteA", got.SiteName)
}

func (s *DeriveSuite) TestActiveSession() {
	sessions := Derive([]domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(9, 0), "siteA"),
	})
	require.Len(s.T(), sessions, 1)
	assert.True(s.T(), sessions[0].Active)
	assert.Nil(s.T(), sessions[0].Out)
}

func (s *DeriveSuite) TestDoubleInProducesDegenerate() {
	events := []domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(8, 0), "siteA"),
		event("e1", domain.ActionIn, s.at(12, 0), "siteA"),
		event("e1", domain.ActionOut, s.at(16, 0), "siteA"),
	}

	sessions := Derive(events)
	require.Len(s.T(), sessions, 2)

	degenerate := sessions[0]
	assert.True(s.T(), degenerate.Active, "degenerate session stays active")
	assert.Nil(s.T(), degenerate.Out)
	require.NotNil(s.T(), degenerate.In)
	assert.Equal(s.T(), s.at(8, 0), degenerate.In.Timestamp)

	closed := sessions[1]
	assert.False(s.T(), closed.Active)
	assert.EqualValues(s.T(), 240, closed.Minutes)
}

func (s *DeriveSuite) TestOrphanOut() {
	sessions := Derive([]domain.TimeEvent{
		event("e1", domain.ActionOut, s.at(17, 0), "siteA"),
	})
	require.Len(s.T(), sessions, 1)
	assert.Nil(s.T(), sessions[0].In)
	require.NotNil(s.T(), sessions[0].Out)
	assert.Equal(s.T(), s.at(17, 0), sessions[0].Out.Timestamp)
}

func (s *DeriveSuite) TestSitesPairIndependently() {
	events := []domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(9, 0), "siteA"),
		event("e1", domain.ActionIn, s.at(10, 0), "siteB"),
		event("e1", domain.ActionOut, s.at(11, 0), "SITEA"),
		event("e1", domain.ActionOut, s.at(12, 0), "siteB"),
	}

	sessions := Derive(events)
	require.Len(s.T(), sessions, 2)

	// Case-insensitive site match: SITEA closes the siteA session.
	assert.False(s.T(), sessions[0].Active)
	assert.EqualValues(s.T(), 120, sessions[0].Minutes)
	assert.False(s.T(), sessions[1].Active)
	assert.EqualValues(s.T(), 120, sessions[1].Minutes)
}

func (s *DeriveSuite) TestOrderingFollowsOpeningTimestamp() {
	events := []domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(8, 0), "siteA"),
		event("e2", domain.ActionIn, s.at(9, 0), "siteA"),
		event("e1", domain.ActionOut, s.at(17, 0), "siteA"),
		event("e2", domain.ActionOut, s.at(18, 0), "siteA"),
	}

	sessions := Derive(events)
	require.Len(s.T(), sessions, 2)
	assert.Equal(s.T(), "e1", sessions[0].EmployeeID)
	assert.Equal(s.T(), "e2", sessions[1].EmployeeID)
	assert.LessOrEqual(s.T(), sessions[0].StartMillis(), sessions[1].StartMillis())
}

func (s *DeriveSuite) TestMinutesIsFlooredDivision() {
	events := []domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(9, 0), "siteA"),
		event("e1", domain.ActionOut, s.at(9, 0)+90*1000+500, "siteA"), // 90.5s
	}

	sessions := Derive(events)
	require.Len(s.T(), sessions, 1)
	assert.EqualValues(s.T(), 1, sessions[0].Minutes)
}

func (s *DeriveSuite) TestPureAndRepeatable() {
	events := []domain.TimeEvent{
		event("e1", domain.ActionIn, s.at(9, 0), "siteA"),
		event("e1", domain.ActionOut, s.at(17, 0), "siteA"),
		event("e2", domain.ActionIn, s.at(10, 0), "siteB"),
	}

	first := Derive(events)
	second := Derive(events)
	assert.Equal(s.T(), first, second)
}

func (s *DeriveSuite) TestEmptyInput() {
	assert.Empty(s.T(), Derive(nil))
}

func TestDeriveSuite(t *testing.T) {
	suite.Run(t, new(DeriveSuite))
}
