package social

import (
	"context"
	"fmt"
	"slices"
)

// CreateGroup creates a group owned by ownerID. The owner is always a
// member.
func (s *Session) CreateGroup(ctx context.Context, ownerID, name, description string) (Group, error) {
	if name == "" {
		return Group{}, fmt.Errorf("group needs a name")
	}

	group := Group{
		ID:          NewID(),
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		MemberIDs:   []string{ownerID},
		Messages:    []Message{},
	}

	err := s.Groups.Update(ctx, func(groups []Group) []Group {
		return append(slices.Clone(groups), group)
	})
	if err != nil {
		return group, err
	}
	return group, nil
}

// JoinGroup adds userID to the group's members. Joining a group you
// already belong to is a no-op.
func (s *Session) JoinGroup(ctx context.Context, groupID, userID string) error {
	found := false
	err := s.Groups.Update(ctx, func(groups []Group) []Group {
		next := make([]Group, len(groups))
		copy(next, groups)
		for i, g := range next {
			if g.ID != groupID {
				continue
			}
			found = true
			if !g.HasMember(userID) {
				next[i].MemberIDs = append(slices.Clone(g.MemberIDs), userID)
			}
		}
		return next
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	return nil
}

// SendGroupMessage appends a message to the group thread. The sender
// must be a member.
func (s *Session) SendGroupMessage(ctx context.Context, groupID, senderID, content string) (Message, error) {
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
	err := s.Groups.Update(ctx, func(groups []Group) []Group {
		next := make([]Group, len(groups))
		copy(next, groups)
		for i, g := range next {
			if g.ID != groupID {
				continue
			}
			found = true
			if !g.HasMember(senderID) {
				denied = true
				return groups
			}
			next[i].Messages = append(slices.Clone(g.Messages), msg)
		}
		return next
	})
	if err != nil {
		return msg, err
	}
	if !found {
		return Message{}, fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if denied {
		return Message{}, fmt.Errorf("send to group %s: %w", groupID, ErrPermissionDenied)
	}
	return msg, nil
}

// GroupsFor returns every group the user belongs to.
func (s *Session) GroupsFor(userID string) []Group {
	var out []Group
	for _, g := range s.Groups.Get() {
		if g.HasMember(userID) {
			out = append(out, g)
		}
	}
	return out
}
