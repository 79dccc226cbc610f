package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmptySelectionNeverErrors(t *testing.T) {
	labels := &stubLabels{counts: map[int64]int{actorA: 3}}
	b := NewBuilder(labels)

	for _, action := range Actions() {
		d, err := b.Build(context.Background(), Selection{}, action, actorA)
		require.NoError(t, err, action.String())
		assert.Nil(t, d, action.String())
	}
	assert.Zero(t, labels.calls)
}

func TestBuildUnknownActionFailsClosed(t *testing.T) {
	b := NewBuilder(&stubLabels{})
	sel := selectionOf(conv(1, actorA, false))

	for _, action := range []Action{ActionUnspecified, Action(42)} {
		d, err := b.Build(context.Background(), sel, action, actorA)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, ErrUnsupportedAction)
	}
}

func TestBuildCloseSkipsClosedAndForeign(t *testing.T) {
	b := NewBuilder(&stubLabels{})
	sel := selectionOf(
		conv(1, actorA, false),
		conv(2, actorA, true),
		conv(3, actorB, false),
		conv(4, actorA, false),
	)

	d, err := b.Build(context.Background(), sel, ActionClose, actorA)

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "conversation.close", d.Name)
	assert.Equal(t, ActionClose, d.Action)
	assert.Equal(t, []int64{1, 4}, d.ObjectIDs())
	assert.Equal(t, "close", d.Parameters[ParamActionName])
	assert.Equal(t, ExecutorType, d.Parameters[ParamExecutorType])
}

func TestBuildOpenSkipsOpenAndForeign(t *testing.T) {
	b := NewBuilder(&stubLabels{})
	sel := selectionOf(
		conv(1, actorA, false),
		conv(2, actorA, true),
		conv(3, actorB, true),
	)

	d, err := b.Build(context.Background(), sel, ActionOpen, actorA)

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "conversation.open", d.Name)
	assert.Equal(t, []int64{2}, d.ObjectIDs())
	assert.Equal(t, "open", d.Parameters[ParamActionName])
	assert.Equal(t, ExecutorType, d.Parameters[ParamExecutorType])
}

func TestBuildStateGatedActionsEmptyWhenNothingQualifies(t *testing.T) {
	b := NewBuilder(&stubLabels{})

	d, err := b.Build(context.Background(), selectionOf(conv(1, actorA, true), conv(2, actorB, false)), ActionClose, actorA)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = b.Build(context.Background(), selectionOf(conv(1, actorA, false), conv(2, actorB, true)), ActionOpen, actorA)
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestBuildLeaveTargetsWholeSelection(t *testing.T) {
	b := NewBuilder(&stubLabels{})
	sel := selectionOf(conv(5, actorB, true), conv(6, actorA, false))

	for _, tc := range []struct {
		action Action
		name   string
	}{
		{ActionLeave, "conversation.leave"},
		{ActionLeavePermanently, "conversation.leavePermanently"},
	} {
		d, err := b.Build(context.Background(), sel, tc.action, actorA)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, tc.name, d.Name)
		assert.Equal(t, []int64{5, 6}, d.ObjectIDs())
		assert.Len(t, d.Parameters, 1)
	}
}

func TestBuildAssignLabelRequiresOwnedLabels(t *testing.T) {
	labels := &stubLabels{counts: map[int64]int{actorB: 2}}
	b := NewBuilder(labels)
	sel := selectionOf(conv(7, actorB, false), conv(8, actorA, true))

	d, err := b.Build(context.Background(), sel, ActionAssignLabel, actorA)
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = b.Build(context.Background(), sel, ActionAssignLabel, actorB)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "conversation.assignLabel", d.Name)
	assert.Equal(t, []int64{7, 8}, d.ObjectIDs())
	assert.Equal(t, 2, labels.calls)
}

func TestBuildAssignLabelPropagatesStoreError(t *testing.T) {
	boom := errors.New("timeout")
	b := NewBuilder(&stubLabels{err: boom})

	d, err := b.Build(context.Background(), selectionOf(conv(1, actorA, false)), ActionAssignLabel, actorA)

	assert.Nil(t, d)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUnsupportedAction)
}

func TestBuildOnlyAssignLabelQueriesStore(t *testing.T) {
	labels := &stubLabels{counts: map[int64]int{actorA: 1}}
	b := NewBuilder(labels)
	sel := selectionOf(conv(1, actorA, false), conv(2, actorA, true))

	for _, action := range []Action{ActionClose, ActionOpen, ActionLeave, ActionLeavePermanently} {
		_, err := b.Build(context.Background(), sel, action, actorA)
		require.NoError(t, err)
	}
	assert.Zero(t, labels.calls)
}

func TestDescriptorObjectIDsNilSafe(t *testing.T) {
	var d *Descriptor
	assert.Nil(t, d.ObjectIDs())
}
