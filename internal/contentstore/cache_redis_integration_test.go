//go:build integration

package contentstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credo/internal/contentstore"
	"credo/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *contentstore.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = contentstore.NewRedisCache(s.redis.Client, 200*time.Millisecond, nil)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestRoundTrip() {
	ctx := context.Background()
	doc := []byte(`{"name":"Alice"}`)
	contentID, err := contentstore.ComputeCID(doc)
	s.Require().NoError(err)

	_, err = s.cache.Get(ctx, contentID)
	s.ErrorIs(err, contentstore.ErrNotFound)

	s.Require().NoError(s.cache.Set(ctx, contentID, doc))
	got, err := s.cache.Get(ctx, contentID)
	s.Require().NoError(err)
	s.Equal(doc, got)
}

func (s *RedisCacheSuite) TestEntriesExpire() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy", []byte("{}")))

	s.Eventually(func() bool {
		_, err := s.cache.Get(ctx, "bafkreigh2akiscaildcqabsyg3dfr6chu3fgpregiymsck7e7aqa4s52zy")
		return err == contentstore.ErrNotFound
	}, 2*time.Second, 50*time.Millisecond)
}

func (s *RedisCacheSuite) TestCachingFetcherUsesRedis() {
	ctx := context.Background()
	store := contentstore.NewMemoryStore()
	contentID, err := store.Pin(ctx, "doc.json", []byte(`{"year":"2020"}`))
	s.Require().NoError(err)

	f := contentstore.NewCachingFetcher(store, s.cache, nil)
	for range 2 {
		got, err := f.Fetch(ctx, contentID)
		s.Require().NoError(err)
		s.JSONEq(`{"year":"2020"}`, string(got))
	}
	s.Equal(1, store.FetchCount())
}
