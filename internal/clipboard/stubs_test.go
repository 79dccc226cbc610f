package clipboard

import (
	"context"

	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
)

type stubParticipants struct {
	// participation maps conversation id to the users participating in it.
	participation map[int64][]int64
	err           error
	calls         int
	lastIDs       []int64
}

func (s *stubParticipants) ParticipatingIDs(ctx context.Context, conversationIDs []int64, userID int64) (map[int64]struct{}, error) {
	s.calls++
	s.lastIDs = append([]int64(nil), conversationIDs...)
	if s.err != nil {
		return nil, s.err
	}
	found := make(map[int64]struct{})
	for _, id := range conversationIDs {
		for _, u := range s.participation[id] {
			if u == userID {
				found[id] = struct{}{}
			}
		}
	}
	return found, nil
}

type stubLabels struct {
	counts map[int64]int
	err    error
	calls  int
}

func (s *stubLabels) CountLabels(ctx context.Context, userID int64) (int, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[userID], nil
}

const (
	actorA int64 = 1
	actorB int64 = 2
)

func conv(id, owner int64, closed bool) conversation.Conversation {
	return conversation.Conversation{ID: id, Subject: "subject", OwnerID: owner, IsClosed: closed}
}

func selectionOf(cs ...conversation.Conversation) Selection {
	sel := newSelection(len(cs))
	for _, c := range cs {
		sel.put(c)
	}
	return sel
}
