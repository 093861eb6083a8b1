package otp

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type CacheSuite struct {
	suite.Suite
	clock *fakeClock
	store *MemoryStore
	cache *Cache
	ctx   context.Context
}

func TestCacheSuite(t *testing.T) {
	suite.Run(t, new(CacheSuite))
}

func (s *CacheSuite) SetupTest() {
	s.clock = &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	s.store = NewMemoryStore(WithClock(s.clock.Now))
	s.cache = NewCache(s.store, time.Minute)
	s.ctx = context.Background()
}

func (s *CacheSuite) TestIssueFormat() {
	code, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)
	s.Regexp(regexp.MustCompile(`^\d{6}$`), code)
}

func (s *CacheSuite) TestVerifySucceedsOnce() {
	code, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)

	s.Require().NoError(s.cache.Verify(s.ctx, "admin", code))
	s.ErrorIs(s.cache.Verify(s.ctx, "admin", code), ErrNotFound)
}

func (s *CacheSuite) TestSubjectIsNormalized() {
	code, err := s.cache.Issue(s.ctx, " Admin ")
	s.Require().NoError(err)
	s.NoError(s.cache.Verify(s.ctx, "admin", " "+code+" "))
}

func (s *CacheSuite) TestMismatchConsumesCode() {
	code, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	s.ErrorIs(s.cache.Verify(s.ctx, "admin", wrong), ErrMismatch)
	s.ErrorIs(s.cache.Verify(s.ctx, "admin", code), ErrNotFound)
}

func (s *CacheSuite) TestExpired() {
	code, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)

	s.clock.Advance(time.Minute)
	s.ErrorIs(s.cache.Verify(s.ctx, "admin", code), ErrExpired)
}

func (s *CacheSuite) TestJustBeforeExpiry() {
	code, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)

	s.clock.Advance(time.Minute - time.Nanosecond)
	s.NoError(s.cache.Verify(s.ctx, "admin", code))
}

func (s *CacheSuite) TestReissueReplacesPendingCode() {
	first, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)
	second, err := s.cache.Issue(s.ctx, "admin")
	s.Require().NoError(err)

	if first != second {
		s.ErrorIs(s.cache.Verify(s.ctx, "admin", first), ErrMismatch)
		return
	}
	s.NoError(s.cache.Verify(s.ctx, "admin", second))
}

func (s *CacheSuite) TestUnknownSubject() {
	s.ErrorIs(s.cache.Verify(s.ctx, "ghost", "123456"), ErrNotFound)
}

func (s *CacheSuite) TestSweepRemovesOnlyExpired() {
	_, err := s.cache.Issue(s.ctx, "old")
	s.Require().NoError(err)
	s.clock.Advance(45 * time.Second)
	_, err = s.cache.Issue(s.ctx, "fresh")
	s.Require().NoError(err)
	s.clock.Advance(30 * time.Second)

	s.Equal(1, s.store.Sweep())
	s.Equal(1, s.store.Len())
}

func TestNewCache_DefaultTTL(t *testing.T) {
	c := NewCache(NewMemoryStore(), 0)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestMemoryStore_RunStopsOnCancel(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "admin", "123456", time.Nanosecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestGenerateCode_Distribution(t *testing.T) {
	seen := make(map[string]struct{})
	for range 200 {
		code, err := generateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190)
}
