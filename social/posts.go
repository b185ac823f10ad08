package social

import (
	"context"
	"fmt"
	"slices"
)

// CreatePost publishes a post for authorID. Either content or media must
// be present. The new post is prepended so feeds read newest first.
func (s *Session) CreatePost(ctx context.Context, authorID, content string, media string, mediaType MediaType) (Post, error) {
	if content == "" && media == "" {
		return Post{}, fmt.Errorf("post needs content or media")
	}

	post := Post{
		ID:        NewID(),
		AuthorID:  authorID,
		Content:   content,
		Media:     media,
		MediaType: mediaType,
		Likes:     []string{},
		Comments:  []Comment{},
		Timestamp: s.clock().UnixMilli(),
	}

	err := s.Posts.Update(ctx, func(posts []Post) []Post {
		return append([]Post{post}, posts...)
	})
	if err != nil {
		return post, err
	}
	return post, nil
}

// ToggleLike likes the post on behalf of userID, or removes the like
// when already present.
func (s *Session) ToggleLike(ctx context.Context, postID, userID string) error {
	found := false
	err := s.Posts.Update(ctx, func(posts []Post) []Post {
		next := make([]Post, len(posts))
		copy(next, posts)
		for i, p := range next {
			if p.ID != postID {
				continue
			}
			found = true
			if p.LikedBy(userID) {
				next[i].Likes = slices.DeleteFunc(slices.Clone(p.Likes), func(id string) bool {
					return id == userID
				})
			} else {
				next[i].Likes = append(slices.Clone(p.Likes), userID)
			}
		}
		return next
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return nil
}

// AddComment appends a comment to the post.
func (s *Session) AddComment(ctx context.Context, postID, authorID, content string) (Comment, error) {
	if content == "" {
		return Comment{}, fmt.Errorf("comment needs content")
	}

	comment := Comment{
		ID:        NewID(),
		AuthorID:  authorID,
		Content:   content,
		Timestamp: s.clock().UnixMilli(),
	}

	found := false
	err := s.Posts.Update(ctx, func(posts []Post) []Post {
		next := make([]Post, len(posts))
		copy(next, posts)
		for i, p := range next {
			if p.ID == postID {
				found = true
				next[i].Comments = append(slices.Clone(p.Comments), comment)
			}
		}
		return next
	})
	if err != nil {
		return comment, err
	}
	if !found {
		return Comment{}, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	return comment, nil
}

// DeleteComment removes a comment. Only the comment's author may delete
// it.
func (s *Session) DeleteComment(ctx context.Context, postID, commentID, requesterID string) error {
	var found, denied bool
	err := s.Posts.Update(ctx, func(posts []Post) []Post {
		next := make([]Post, len(posts))
		copy(next, posts)
		for i, p := range next {
			if p.ID != postID {
				continue
			}
			for _, c := range p.Comments {
				if c.ID != commentID {
					continue
				}
				found = true
				if c.AuthorID != requesterID {
					denied = true
					return posts
				}
				next[i].Comments = slices.DeleteFunc(slices.Clone(p.Comments), func(cc Comment) bool {
					return cc.ID == commentID
				})
			}
		}
		return next
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
	}
	if denied {
		return fmt.Errorf("delete comment %s: %w", commentID, ErrPermissionDenied)
	}
	return nil
}

// DeletePost removes a post. Only the author may delete it.
func (s *Session) DeletePost(ctx context.Context, postID, requesterID string) error {
	var found, denied bool
	err := s.Posts.Update(ctx, func(posts []Post) []Post {
		for _, p := range posts {
			if p.ID == postID {
				found = true
				if p.AuthorID != requesterID {
					denied = true
					return posts
				}
			}
		}
		if !found || denied {
			return posts
		}
		return slices.DeleteFunc(slices.Clone(posts), func(p Post) bool {
			return p.ID == postID
		})
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if denied {
		return fmt.Errorf("delete post %s: %w", postID, ErrPermissionDenied)
	}
	return nil
}

// Feed returns posts from the viewer and the users they follow, in
// stored order (newest first).
func (s *Session) Feed(viewerID string) []Post {
	viewer, ok := s.UserByID(viewerID)
	if !ok {
		return nil
	}

	var feed []Post
	for _, p := range s.Posts.Get() {
		if p.AuthorID == viewerID || viewer.IsFollowing(p.AuthorID) {
			feed = append(feed, p)
		}
	}
	return feed
}

// PostsBy returns all posts authored by userID, newest first.
func (s *Session) PostsBy(userID string) []Post {
	var out []Post
	for _, p := range s.Posts.Get() {
		if p.AuthorID == userID {
			out = append(out, p)
		}
	}
	return out
}

// VideoPosts returns all posts carrying video media, newest first.
func (s *Session) VideoPosts() []Post {
	var out []Post
	for _, p := range s.Posts.Get() {
		if p.MediaType == MediaTypeVideo {
			out = append(out, p)
		}
	}
	return out
}
