package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/c360studio/huddle/storage"
)

// Store names used for persisted state. Each maps to one entry in the
// durable backend.
const (
	StoreCurrentUser = "currentUser"
	StoreUsers       = "users"
	StorePosts       = "posts"
	StoreStories     = "stories"
	StoreChats       = "chats"
	StoreGroups      = "groups"
)

const (
	// StoryTTL is how long a story stays visible after creation.
	StoryTTL = 24 * time.Hour

	// DefaultSweepInterval is how often expired stories are evicted.
	DefaultSweepInterval = time.Minute
)

// Common session errors.
var (
	// ErrInvalidCredentials is returned when no roster entry matches the
	// supplied email and password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrPermissionDenied is returned when a mutation is gated on
	// ownership or membership the caller does not have.
	ErrPermissionDenied = errors.New("permission denied")
)

// Session owns one store per named collection and enforces the
// cross-entity consistency rules: story-expiry sweeping and current-user
// reconciliation. All domain operations go through it.
type Session struct {
	CurrentUser *storage.Store[*User]
	Users       *storage.Store[[]User]
	Posts       *storage.Store[[]Post]
	Stories     *storage.Store[[]Story]
	Chats       *storage.Store[[]Chat]
	Groups      *storage.Store[[]Group]

	logger        *slog.Logger
	clock         func() time.Time
	sweepInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

type sessionOptions struct {
	logger        *slog.Logger
	clock         func() time.Time
	sweepInterval time.Duration
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

// WithSessionLogger sets the logger for the session.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source. Used by tests to pin expiry
// boundaries.
func WithClock(clock func() time.Time) SessionOption {
	return func(o *sessionOptions) {
		o.clock = clock
	}
}

// WithSweepInterval overrides the story sweep interval.
func WithSweepInterval(interval time.Duration) SessionOption {
	return func(o *sessionOptions) {
		o.sweepInterval = interval
	}
}

// NewSession opens the six named stores over the given backend and bus,
// seeds defaults where storage is empty, runs an immediate story sweep,
// and starts the periodic sweeper. Close releases everything.
func NewSession(ctx context.Context, backend storage.Backend, bus storage.Bus, opts ...SessionOption) (*Session, error) {
	o := &sessionOptions{
		logger:        slog.Default(),
		clock:         time.Now,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(o)
	}

	storeOpts := []storage.Option{
		storage.WithBackend(backend),
		storage.WithBus(bus),
		storage.WithLogger(o.logger),
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		logger:        o.logger,
		clock:         o.clock,
		sweepInterval: o.sweepInterval,
		ctx:           sessionCtx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	var err error
	if s.CurrentUser, err = storage.Open[*User](ctx, StoreCurrentUser, nil, storeOpts...); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", StoreCurrentUser, err)
	}
	if s.Users, err = storage.Open(ctx, StoreUsers, DefaultUsers(), storeOpts...); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", StoreUsers, err)
	}
	if s.Posts, err = storage.Open(ctx, StorePosts, []Post{}, storeOpts...); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", StorePosts, err)
	}
	if s.Stories, err = storage.Open(ctx, StoreStories, []Story{}, storeOpts...); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", StoreStories, err)
	}
	if s.Chats, err = storage.Open(ctx, StoreChats, []Chat{}, storeOpts...); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", StoreChats, err)
	}
	if s.Groups, err = storage.Open(ctx, StoreGroups, DefaultGroups(), storeOpts...); err != nil {
		cancel()
		return nil, fmt.Errorf("open %s: %w", StoreGroups, err)
	}

	// Profile edits land in the users collection; mirror them into the
	// logged-in slot so no mutation site has to remember both.
	s.Users.OnChange(s.reconcileCurrentUser)

	go s.runSweeper(sessionCtx)

	return s, nil
}

// Close stops the sweeper and detaches all stores from the bus.
func (s *Session) Close() {
	s.cancel()
	<-s.done

	s.CurrentUser.Close()
	s.Users.Close()
	s.Posts.Close()
	s.Stories.Close()
	s.Chats.Close()
	s.Groups.Close()
}

// Login authenticates with exact, case-sensitive email and password
// match against the user roster. On success the matched user becomes the
// current user.
func (s *Session) Login(ctx context.Context, email, password string) (User, error) {
	for _, u := range s.Users.Get() {
		if u.Email == email && u.Password == password {
			user := u
			if err := s.CurrentUser.Set(ctx, &user); err != nil {
				return user, fmt.Errorf("set current user: %w", err)
			}
			return user, nil
		}
	}
	return User{}, ErrInvalidCredentials
}

// Logout clears the current user. There is no server-side session to
// invalidate.
func (s *Session) Logout(ctx context.Context) error {
	return s.CurrentUser.Set(ctx, nil)
}

// ActiveUser returns the logged-in user, if any.
func (s *Session) ActiveUser() (User, bool) {
	current := s.CurrentUser.Get()
	if current == nil {
		return User{}, false
	}
	return *current, true
}

// UserByID resolves a user reference. A miss is a modeled case: callers
// render a fallback rather than fail.
func (s *Session) UserByID(id string) (User, bool) {
	for _, u := range s.Users.Get() {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// reconcileCurrentUser re-derives the logged-in user's record from a
// refreshed roster and updates the current-user slot when it differs
// structurally.
func (s *Session) reconcileCurrentUser(users []User) {
	current := s.CurrentUser.Get()
	if current == nil {
		return
	}
	for _, u := range users {
		if u.ID != current.ID {
			continue
		}
		if !reflect.DeepEqual(u, *current) {
			user := u
			if err := s.CurrentUser.Set(s.ctx, &user); err != nil {
				s.logger.Warn("Current-user reconciliation write failed",
					"user", u.ID,
					"error", err)
			}
		}
		return
	}
}

// runSweeper evicts expired stories at start and then on every interval
// until the session context ends.
func (s *Session) runSweeper(ctx context.Context) {
	defer close(s.done)

	s.SweepExpiredStories(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpiredStories(ctx)
		}
	}
}

// SweepExpiredStories removes every story at or past its expiry.
// Idempotent: with no expired entries the write is a no-op.
func (s *Session) SweepExpiredStories(ctx context.Context) {
	now := s.clock()
	swept := 0
	if err := s.Stories.Update(ctx, func(stories []Story) []Story {
		kept := make([]Story, 0, len(stories))
		for _, story := range stories {
			if story.Expired(now) {
				swept++
				continue
			}
			kept = append(kept, story)
		}
		return kept
	}); err != nil {
		s.logger.Warn("Story sweep write failed", "error", err)
	}
	if swept > 0 {
		storiesSweptTotal.Add(float64(swept))
		s.logger.Debug("Swept expired stories", "count", swept)
	}
}
