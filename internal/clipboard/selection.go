package clipboard

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
)

// ParticipationStore answers batched participation lookups.
type ParticipationStore interface {
	// ParticipatingIDs returns the subset of conversationIDs userID participates in.
	ParticipatingIDs(ctx context.Context, conversationIDs []int64, userID int64) (map[int64]struct{}, error)
}

// Selection holds the marked conversations an actor may act on at all,
// keyed by conversation id. Iteration follows first insertion order.
type Selection struct {
	order []int64
	items map[int64]conversation.Conversation
}

func newSelection(capacity int) Selection {
	return Selection{
		order: make([]int64, 0, capacity),
		items: make(map[int64]conversation.Conversation, capacity),
	}
}

// put stores c under its id. A repeated id replaces the stored snapshot but keeps its position.
func (s *Selection) put(c conversation.Conversation) {
	if _, ok := s.items[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.items[c.ID] = c
}

// Len returns the number of conversations in the selection.
func (s Selection) Len() int {
	return len(s.order)
}

// IDs returns the conversation ids in selection order.
func (s Selection) IDs() []int64 {
	ids := make([]int64, len(s.order))
	copy(ids, s.order)
	return ids
}

// Get looks up a conversation by id.
func (s Selection) Get(id int64) (conversation.Conversation, bool) {
	c, ok := s.items[id]
	return c, ok
}

// Conversations returns the snapshots in selection order.
func (s Selection) Conversations() []conversation.Conversation {
	out := make([]conversation.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// matching returns the ids, in selection order, of conversations accepted by keep.
func (s Selection) matching(keep func(conversation.Conversation) bool) []int64 {
	var ids []int64
	for _, id := range s.order {
		if keep(s.items[id]) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Validator reduces a raw clipboard selection to the conversations the actor
// owns or participates in.
type Validator struct {
	participants ParticipationStore
}

// NewValidator constructs a Validator.
func NewValidator(participants ParticipationStore) *Validator {
	return &Validator{participants: participants}
}

// Filter keeps owned conversations unconditionally and foreign ones only when
// actorID participates in them. Participation is resolved with one batched
// lookup, skipped entirely when nothing foreign was selected. candidates is
// not modified.
func (v *Validator) Filter(ctx context.Context, candidates []conversation.Conversation, actorID int64) (Selection, error) {
	unique := newSelection(len(candidates))
	for _, c := range candidates {
		unique.put(c)
	}

	foreign := unique.matching(func(c conversation.Conversation) bool {
		return !c.OwnedBy(actorID)
	})
	if len(foreign) == 0 {
		return unique, nil
	}

	participating, err := v.participants.ParticipatingIDs(ctx, foreign, actorID)
	if err != nil {
		return Selection{}, fmt.Errorf("clipboard: check participation: %w", err)
	}

	selection := newSelection(unique.Len())
	for _, c := range unique.Conversations() {
		if c.OwnedBy(actorID) {
			selection.put(c)
			continue
		}
		if _, ok := participating[c.ID]; ok {
			selection.put(c)
		}
	}
	return selection, nil
}
