package social

import (
	"context"
	"fmt"
	"slices"
)

// StartDirectChat returns the direct chat between the two users,
// creating it when none exists. At most one direct chat exists per
// unordered participant pair, regardless of argument order.
func (s *Session) StartDirectChat(ctx context.Context, userID, otherID string) (Chat, error) {
	if userID == otherID {
		return Chat{}, fmt.Errorf("%w: cannot chat with yourself", ErrPermissionDenied)
	}
	if _, ok := s.UserByID(otherID); !ok {
		return Chat{}, fmt.Errorf("user %s: %w", otherID, ErrNotFound)
	}

	var result Chat
	err := s.Chats.Update(ctx, func(chats []Chat) []Chat {
		for _, c := range chats {
			if !c.IsGroup && len(c.ParticipantIDs) == 2 &&
				c.HasParticipant(userID) && c.HasParticipant(otherID) {
				result = c
				return chats
			}
		}
		result = Chat{
			ID:             NewID(),
			ParticipantIDs: []string{userID, otherID},
			Messages:       []Message{},
			IsGroup:        false,
		}
		return append(slices.Clone(chats), result)
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

// SendChatMessage appends a message to the chat. The sender must be a
// participant.
func (s *Session) SendChatMessage(ctx context.Context, chatID, senderID, content string) (Message, error) {
	if content == "" {
		return Message{}, fmt.Errorf("message needs content")
	}

	msg := Message{
		ID:        NewID(),
		SenderID:  senderID,
		Content:   content,
		Timestamp: s.clock().UnixMilli(),
	}

	var found, denied bool
	err := s.Chats.Update(ctx, func(chats []Chat) []Chat {
		next := make([]Chat, len(chats))
		copy(next, chats)
		for i, c := range next {
			if c.ID != chatID {
				continue
			}
			found = true
			if !c.HasParticipant(senderID) {
				denied = true
				return chats
			}
			next[i].Messages = append(slices.Clone(c.Messages), msg)
		}
		return next
	})
	if err != nil {
		return msg, err
	}
	if !found {
		return Message{}, fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
	}
	if denied {
		return Message{}, fmt.Errorf("send to chat %s: %w", chatID, ErrPermissionDenied)
	}
	return msg, nil
}

// ChatsFor returns every chat the user takes part in.
func (s *Session) ChatsFor(userID string) []Chat {
	var out []Chat
	for _, c := range s.Chats.Get() {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out
}
