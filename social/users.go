package social

import (
	"context"
	"fmt"
	"slices"
)

// ToggleFollow follows target on behalf of userID, or unfollows when
// already following. Following is asymmetric and self-follow is
// rejected.
func (s *Session) ToggleFollow(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", ErrPermissionDenied)
	}
	if _, ok := s.UserByID(targetID); !ok {
		return fmt.Errorf("user %s: %w", targetID, ErrNotFound)
	}

	return s.Users.Update(ctx, func(users []User) []User {
		next := make([]User, len(users))
		copy(next, users)
		for i, u := range next {
			if u.ID != userID {
				continue
			}
			if u.IsFollowing(targetID) {
				next[i].Following = slices.DeleteFunc(slices.Clone(u.Following), func(id string) bool {
					return id == targetID
				})
			} else {
				next[i].Following = append(slices.Clone(u.Following), targetID)
			}
		}
		return next
	})
}

// UpdateBio replaces a user's bio. The change propagates into the
// current-user slot through reconciliation.
func (s *Session) UpdateBio(ctx context.Context, userID, bio string) error {
	if _, ok := s.UserByID(userID); !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}

	return s.Users.Update(ctx, func(users []User) []User {
		next := make([]User, len(users))
		copy(next, users)
		for i, u := range next {
			if u.ID == userID {
				next[i].Bio = bio
			}
		}
		return next
	})
}
