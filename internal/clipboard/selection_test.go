package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
)

func TestFilterKeepsOwnedWithoutLookup(t *testing.T) {
	store := &stubParticipants{}
	v := NewValidator(store)

	sel, err := v.Filter(context.Background(), []conversation.Conversation{
		conv(10, actorA, false),
		conv(11, actorA, true),
	}, actorA)

	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11}, sel.IDs())
	assert.Zero(t, store.calls, "owned conversations must not hit the participation store")
}

func TestFilterEmptyCandidates(t *testing.T) {
	store := &stubParticipants{}
	v := NewValidator(store)

	sel, err := v.Filter(context.Background(), nil, actorA)

	require.NoError(t, err)
	assert.Zero(t, sel.Len())
	assert.Empty(t, sel.IDs())
	assert.Zero(t, store.calls)
}

func TestFilterParticipationDecidesForeignConversations(t *testing.T) {
	store := &stubParticipants{participation: map[int64][]int64{
		21: {actorA},
		22: {actorB},
	}}
	v := NewValidator(store)

	sel, err := v.Filter(context.Background(), []conversation.Conversation{
		conv(20, actorA, false),
		conv(21, actorB, false),
		conv(22, actorB, false),
		conv(23, 3, false),
	}, actorA)

	require.NoError(t, err)
	assert.Equal(t, []int64{20, 21}, sel.IDs())
	assert.Equal(t, 1, store.calls, "participation must be resolved in one batch")
	assert.Equal(t, []int64{21, 22, 23}, store.lastIDs)
}

func TestFilterDeduplicatesLastWriteWins(t *testing.T) {
	v := NewValidator(&stubParticipants{})

	sel, err := v.Filter(context.Background(), []conversation.Conversation{
		conv(30, actorA, false),
		conv(31, actorA, false),
		conv(30, actorA, true),
	}, actorA)

	require.NoError(t, err)
	assert.Equal(t, []int64{30, 31}, sel.IDs())
	got, ok := sel.Get(30)
	require.True(t, ok)
	assert.True(t, got.IsClosed)
}

func TestFilterDoesNotMutateCandidates(t *testing.T) {
	candidates := []conversation.Conversation{
		conv(40, actorB, false),
		conv(41, actorA, false),
	}
	before := append([]conversation.Conversation(nil), candidates...)
	v := NewValidator(&stubParticipants{})

	sel, err := v.Filter(context.Background(), candidates, actorA)

	require.NoError(t, err)
	assert.Equal(t, []int64{41}, sel.IDs())
	assert.Equal(t, before, candidates)
}

func TestFilterPropagatesStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	v := NewValidator(&stubParticipants{err: boom})

	_, err := v.Filter(context.Background(), []conversation.Conversation{conv(50, actorB, false)}, actorA)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnsupportedAction)
}

func TestSelectionIDsReturnsCopy(t *testing.T) {
	sel := selectionOf(conv(1, actorA, false), conv(2, actorA, false))

	ids := sel.IDs()
	ids[0] = 99

	assert.Equal(t, []int64{1, 2}, sel.IDs())
}
