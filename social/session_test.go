package social

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/huddle/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
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

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	s, err := NewSession(context.Background(),
		storage.NewMemoryBackend(),
		storage.NewLocalBus(),
		WithClock(clock.Now),
		WithSweepInterval(time.Hour))
	require.NoError(t, err)
	t.Cleanup(s.Close)

	return s, clock
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials set the current user", func(t *testing.T) {
		s, _ := newTestSession(t)

		user, err := s.Login(ctx, "avery@demo.com", "password")
		require.NoError(t, err)
		assert.Equal(t, "user1", user.ID)

		active, ok := s.ActiveUser()
		require.True(t, ok)
		assert.Equal(t, "user1", active.ID)
	})

	t.Run("wrong password leaves the current user unset", func(t *testing.T) {
		s, _ := newTestSession(t)

		_, err := s.Login(ctx, "avery@demo.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, ok := s.ActiveUser()
		assert.False(t, ok)
	})

	t.Run("match is case-sensitive", func(t *testing.T) {
		s, _ := newTestSession(t)

		_, err := s.Login(ctx, "Avery@demo.com", "password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("logout clears the current user", func(t *testing.T) {
		s, _ := newTestSession(t)

		_, err := s.Login(ctx, "avery@demo.com", "password")
		require.NoError(t, err)
		require.NoError(t, s.Logout(ctx))

		_, ok := s.ActiveUser()
		assert.False(t, ok)
	})
}

func TestCurrentUserReconciliation(t *testing.T) {
	ctx := context.Background()

	t.Run("bio edit propagates into the current-user slot", func(t *testing.T) {
		s, _ := newTestSession(t)

		_, err := s.Login(ctx, "avery@demo.com", "password")
		require.NoError(t, err)

		require.NoError(t, s.UpdateBio(ctx, "user1", "new bio"))

		active, ok := s.ActiveUser()
		require.True(t, ok)
		assert.Equal(t, "new bio", active.Bio)
	})

	t.Run("other users' edits leave the current user alone", func(t *testing.T) {
		s, _ := newTestSession(t)

		_, err := s.Login(ctx, "avery@demo.com", "password")
		require.NoError(t, err)

		require.NoError(t, s.UpdateBio(ctx, "user2", "someone else"))

		active, ok := s.ActiveUser()
		require.True(t, ok)
		assert.Equal(t, "Digital creator & tech enthusiast", active.Bio)
	})

	t.Run("roster broadcast reconciles a logged-in session", func(t *testing.T) {
		backend := storage.NewMemoryBackend()
		bus := storage.NewLocalBus()
		clock := newFakeClock()

		a, err := NewSession(context.Background(), backend, bus,
			WithClock(clock.Now), WithSweepInterval(time.Hour))
		require.NoError(t, err)
		t.Cleanup(a.Close)

		b, err := NewSession(context.Background(), backend, bus,
			WithClock(clock.Now), WithSweepInterval(time.Hour))
		require.NoError(t, err)
		t.Cleanup(b.Close)

		_, err = a.Login(ctx, "avery@demo.com", "password")
		require.NoError(t, err)

		// A profile edit in session B reaches session A's current user
		// through the users broadcast.
		require.NoError(t, b.UpdateBio(ctx, "user1", "edited elsewhere"))

		active, ok := a.ActiveUser()
		require.True(t, ok)
		assert.Equal(t, "edited elsewhere", active.Bio)
	})
}

func TestSeededDefaults(t *testing.T) {
	s, _ := newTestSession(t)

	assert.Len(t, s.Users.Get(), 3)
	assert.Len(t, s.Groups.Get(), 3)
	assert.Empty(t, s.Posts.Get())
	assert.Empty(t, s.Stories.Get())
	assert.Empty(t, s.Chats.Get())

	for _, g := range s.Groups.Get() {
		assert.True(t, g.HasMember(g.OwnerID), "owner of %s must be a member", g.ID)
	}
}

func TestUserByID(t *testing.T) {
	s, _ := newTestSession(t)

	u, ok := s.UserByID("user2")
	require.True(t, ok)
	assert.Equal(t, "Jordan Lee", u.Username)

	_, ok = s.UserByID("ghost")
	assert.False(t, ok)
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)

	require.NoError(t, s.ToggleFollow(ctx, "user1", "user2"))
	u, _ := s.UserByID("user1")
	assert.True(t, u.IsFollowing("user2"))

	// Toggling again unfollows.
	require.NoError(t, s.ToggleFollow(ctx, "user1", "user2"))
	u, _ = s.UserByID("user1")
	assert.False(t, u.IsFollowing("user2"))

	// Following is asymmetric.
	require.NoError(t, s.ToggleFollow(ctx, "user1", "user2"))
	u2, _ := s.UserByID("user2")
	assert.False(t, u2.IsFollowing("user1"))

	assert.ErrorIs(t, s.ToggleFollow(ctx, "user1", "user1"), ErrPermissionDenied)
	assert.ErrorIs(t, s.ToggleFollow(ctx, "user1", "ghost"), ErrNotFound)
}
