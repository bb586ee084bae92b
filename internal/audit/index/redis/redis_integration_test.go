//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	redisindex "github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/internal/audit/index/redis"
	"github.com/BlackGrimR34per/Explainable-AI-XAI-Decision-Engine/pkg/testutil/containers"
)

type RedisIndexSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	index *redisindex.Index
}

func TestRedisIndexSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIndexSuite))
}

func (s *RedisIndexSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.index = redisindex.New(s.redis.Client, redisindex.WithTTL(time.Hour))
}

func (s *RedisIndexSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisIndexSuite) TestFirstPositionWins() {
	ctx := context.Background()
	s.Require().NoError(s.index.Put(ctx, "dec-1", 128))
	s.Require().NoError(s.index.Put(ctx, "dec-1", 512))

	pos, ok, err := s.index.Lookup(ctx, "dec-1")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(int64(128), pos)
}

func (s *RedisIndexSuite) TestMissingID() {
	_, ok, err := s.index.Lookup(context.Background(), "missing")
	s.Require().NoError(err)
	s.False(ok)
}
