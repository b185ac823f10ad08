package social

import (
	"context"
	"fmt"
	"slices"
)

// CreateStory publishes an ephemeral story for authorID. Media is
// required; the story expires StoryTTL after creation.
func (s *Session) CreateStory(ctx context.Context, authorID, media string, mediaType MediaType) (Story, error) {
	if media == "" {
		return Story{}, fmt.Errorf("story needs media")
	}

	now := s.clock()
	story := Story{
		ID:        NewID(),
		AuthorID:  authorID,
		Media:     media,
		MediaType: mediaType,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(StoryTTL).UnixMilli(),
	}

	err := s.Stories.Update(ctx, func(stories []Story) []Story {
		return append([]Story{story}, stories...)
	})
	if err != nil {
		return story, err
	}
	return story, nil
}

// ActiveStories returns stories that have not yet expired, in stored
// order. A story expiring exactly now is already excluded.
func (s *Session) ActiveStories() []Story {
	now := s.clock()
	var active []Story
	for _, story := range s.Stories.Get() {
		if !story.Expired(now) {
			active = append(active, story)
		}
	}
	return active
}

// DeleteStory removes a story before its expiry. Only the author may
// delete it.
func (s *Session) DeleteStory(ctx context.Context, storyID, requesterID string) error {
	var found, denied bool
	err := s.Stories.Update(ctx, func(stories []Story) []Story {
		for _, story := range stories {
			if story.ID == storyID {
				found = true
				if story.AuthorID != requesterID {
					denied = true
					return stories
				}
			}
		}
		if !found || denied {
			return stories
		}
		return slices.DeleteFunc(slices.Clone(stories), func(story Story) bool {
			return story.ID == storyID
		})
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}
	if denied {
		return fmt.Errorf("delete story %s: %w", storyID, ErrPermissionDenied)
	}
	return nil
}
