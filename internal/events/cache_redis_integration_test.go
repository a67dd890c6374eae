//go:build integration

package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"shiftledger/internal/domain"
	"shiftledger/internal/events"
	"shiftledger/pkg/testutil"
	"shiftledger/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	inner *events.InMemoryStore
	cache *events.RedisCache
	ctx   context.Context
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) SetupTest() {
	require.NoError(s.T(), s.redis.FlushAll(s.ctx))
	s.inner = events.NewInMemoryStore()
	s.cache = events.NewRedisCache(s.inner, s.redis.Client, testutil.Logger())
}

func (s *RedisCacheSuite) event(emp string, action domain.Action, at time.Time) domain.TimeEvent {
	return domain.TimeEvent{
		EmployeeID: emp, EmployeeName: emp, Action: action,
		Timestamp: at.UnixMilli(), SiteName: "siteA",
	}
}

func (s *RedisCacheSuite) TestListServesFromCacheAfterAppend() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	appended, err := s.cache.Append(s.ctx, tenant, s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)

	// Drop the inner copy; a warm cache must still serve the read.
	require.NoError(s.T(), s.inner.Remove(s.ctx, tenant, appended[0].ID))

	listed, err := s.cache.List(s.ctx, tenant)
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 1)
	assert.Equal(s.T(), appended[0].ID, listed[0].ID)
}

func (s *RedisCacheSuite) TestColdListWarmsCache() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	_, err := s.inner.Append(s.ctx, tenant,
		s.event("e1", domain.ActionOut, base.Add(8*time.Hour)),
		s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)

	listed, err := s.cache.List(s.ctx, tenant)
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 2)
	assert.Equal(s.T(), domain.ActionIn, listed[0].Action, "sorted ascending")

	keys, err := s.redis.Client.HLen(s.ctx, "shiftledger:events:"+tenant).Result()
	require.NoError(s.T(), err)
	assert.EqualValues(s.T(), 2, keys)
}

func (s *RedisCacheSuite) TestRemoveEvictsCacheEntry() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	appended, err := s.cache.Append(s.ctx, tenant, s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)

	require.NoError(s.T(), s.cache.Remove(s.ctx, tenant, appended[0].ID))

	listed, err := s.cache.List(s.ctx, tenant)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), listed)
}

func (s *RedisCacheSuite) TestPatchRefreshesCachedCopy() {
	base := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	appended, err := s.cache.Append(s.ctx, tenant, s.event("e1", domain.ActionIn, base))
	require.NoError(s.T(), err)

	note := "left badge at home"
	_, err = s.cache.Patch(s.ctx, tenant, appended[0].ID, domain.EventPatch{Note: &note})
	require.NoError(s.T(), err)

	listed, err := s.cache.List(s.ctx, tenant)
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 1)
	assert.Equal(s.T(), "left badge at home", listed[0].Note)
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}
