// Package social defines the domain entities and the session that wires
// them onto named storage stores.
package social

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// MediaType tags an attached media blob.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// User is a member of the demo roster. Users are seeded at first run and
// mutated in place, never deleted.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	// Password is a plaintext demo credential. There is no real
	// authentication in this system.
	Password string `json:"password"`

	ProfilePicURL string `json:"profilePicUrl"`
	Bio           string `json:"bio"`

	// Following holds followed user IDs. It excludes the user's own ID
	// and implies no reciprocity.
	Following []string `json:"following"`
}

// IsFollowing reports whether the user follows id.
func (u User) IsFollowing(id string) bool {
	return slices.Contains(u.Following, id)
}

// Post is a feed entry. New posts are prepended, so the collection is
// newest first.
type Post struct {
	ID       string `json:"id"`
	AuthorID string `json:"authorId"`
	Content  string `json:"content,omitempty"`

	// Media is an opaque blob reference handed over by the capture
	// layer; the core never inspects media bytes.
	Media     string    `json:"media,omitempty"`
	MediaType MediaType `json:"mediaType,omitempty"`

	Likes    []string  `json:"likes"`
	Comments []Comment `json:"comments"`

	// Timestamp is milliseconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`
}

// LikedBy reports whether userID has liked the post.
func (p Post) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

// Comment belongs to exactly one post. Comments are appended in arrival
// order.
type Comment struct {
	ID        string `json:"id"`
	AuthorID  string `json:"authorId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Story is an ephemeral media entry. A story is logically deleted once
// expired: excluded from active views and eligible for sweep removal.
type Story struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Media     string    `json:"media"`
	MediaType MediaType `json:"mediaType"`
	Timestamp int64     `json:"timestamp"`

	// ExpiresAt is Timestamp plus the story TTL. A story whose ExpiresAt
	// is at or before now is expired.
	ExpiresAt int64 `json:"expiresAt"`
}

// Expired reports whether the story is expired at now.
func (s Story) Expired(now time.Time) bool {
	return s.ExpiresAt <= now.UnixMilli()
}

// Chat is a direct conversation. Direct chats hold exactly two
// participants and are deduplicated by unordered participant pair.
type Chat struct {
	ID             string    `json:"id"`
	ParticipantIDs []string  `json:"participantIds"`
	Messages       []Message `json:"messages"`
	IsGroup        bool      `json:"isGroup"`
}

// HasParticipant reports whether userID takes part in the chat.
func (c Chat) HasParticipant(userID string) bool {
	return slices.Contains(c.ParticipantIDs, userID)
}

// Group is a topical group with its own message thread. The owner is
// always a member.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	MemberIDs   []string  `json:"memberIds"`
	Messages    []Message `json:"messages"`
}

// HasMember reports whether userID belongs to the group.
func (g Group) HasMember(userID string) bool {
	return slices.Contains(g.MemberIDs, userID)
}

// Message belongs to exactly one chat or group. Messages are appended in
// arrival order.
type Message struct {
	ID        string `json:"id"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// NewID returns a globally unique identifier for a new entity.
// Uniqueness is best-effort via randomized generation and never
// validated against storage.
func NewID() string {
	return uuid.New().String()
}
