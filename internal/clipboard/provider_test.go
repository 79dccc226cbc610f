package clipboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
)

func newTestProvider(participants *stubParticipants, labels *stubLabels, actorID int64, candidates ...conversation.Conversation) *Provider {
	return NewProvider(NewValidator(participants), NewBuilder(labels), actorID, candidates)
}

func TestProviderEndToEndScenario(t *testing.T) {
	participants := &stubParticipants{participation: map[int64][]int64{2: {actorA}}}
	p := newTestProvider(participants, &stubLabels{}, actorA,
		conv(1, actorA, false),
		conv(2, actorB, false),
	)

	sel, err := p.Selection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, sel.IDs())

	closeDesc, err := p.Execute(context.Background(), "close")
	require.NoError(t, err)
	require.NotNil(t, closeDesc)
	assert.Equal(t, []int64{1}, closeDesc.ObjectIDs())

	leaveDesc, err := p.Execute(context.Background(), "leave")
	require.NoError(t, err)
	require.NotNil(t, leaveDesc)
	assert.Equal(t, []int64{1, 2}, leaveDesc.ObjectIDs())

	assert.Equal(t, 1, participants.calls, "selection must be validated once per request")
}

func TestProviderEmptySelectionHidesEveryAction(t *testing.T) {
	participants := &stubParticipants{}
	labels := &stubLabels{counts: map[int64]int{actorA: 4}}
	p := newTestProvider(participants, labels, actorA, conv(1, actorB, false))

	for _, action := range Actions() {
		d, err := p.Execute(context.Background(), action.String())
		require.NoError(t, err)
		assert.Nil(t, d)
	}
	assert.Equal(t, 1, participants.calls)
	assert.Zero(t, labels.calls)
}

func TestProviderUnknownTokenFailsBeforeStoreAccess(t *testing.T) {
	participants := &stubParticipants{}
	p := newTestProvider(participants, &stubLabels{}, actorA, conv(1, actorA, false))

	d, err := p.Execute(context.Background(), "deleteForever")

	assert.Nil(t, d)
	assert.ErrorIs(t, err, ErrUnsupportedAction)
	assert.Zero(t, participants.calls)
}

func TestProviderActionsListsApplicableInMenuOrder(t *testing.T) {
	participants := &stubParticipants{participation: map[int64][]int64{3: {actorA}}}
	labels := &stubLabels{counts: map[int64]int{actorA: 1}}
	p := newTestProvider(participants, labels, actorA,
		conv(1, actorA, false),
		conv(3, actorB, true),
	)

	descriptors, err := p.Actions(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"conversation.assignLabel",
		"conversation.close",
		"conversation.leave",
		"conversation.leavePermanently",
	}, names)
	assert.Equal(t, 1, participants.calls)
}

func TestProviderTypeName(t *testing.T) {
	p := newTestProvider(&stubParticipants{}, &stubLabels{}, actorA)
	assert.Equal(t, "com.woltlab.wcf.conversation.conversation", p.TypeName())
}

func TestProviderMarkedCountIncludesFilteredConversations(t *testing.T) {
	p := newTestProvider(&stubParticipants{}, &stubLabels{}, actorA,
		conv(1, actorA, false),
		conv(2, actorB, false),
	)

	sel, err := p.Selection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sel.Len())
	assert.Equal(t, 2, p.MarkedCount())
}
