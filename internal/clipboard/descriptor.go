package clipboard

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/conversation-clipboard/internal/conversation"
)

// Descriptor parameter keys read by the bulk executor.
const (
	ParamObjectIDs    = "objectIDs"
	ParamActionName   = "actionName"
	ParamExecutorType = "executorType"
)

// ExecutorType names the executor that applies state changes to conversations.
const ExecutorType = "conversation.ConversationAction"

// LabelCounter counts the custom labels a user owns.
type LabelCounter interface {
	CountLabels(ctx context.Context, userID int64) (int, error)
}

// Descriptor tells the clipboard UI which action to offer and carries what the
// bulk executor needs to run it. A Descriptor always targets at least one object.
type Descriptor struct {
	Action     Action         `json:"action"`
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

// ObjectIDs returns the target conversation ids.
func (d *Descriptor) ObjectIDs() []int64 {
	if d == nil {
		return nil
	}
	ids, _ := d.Parameters[ParamObjectIDs].([]int64)
	return ids
}

func newDescriptor(action Action, objectIDs []int64) *Descriptor {
	return &Descriptor{
		Action:     action,
		Name:       "conversation." + action.String(),
		Parameters: map[string]any{ParamObjectIDs: objectIDs},
	}
}

// executorDescriptor builds a descriptor dispatched through ExecutorType, or
// nil when no object qualified.
func executorDescriptor(action Action, objectIDs []int64) *Descriptor {
	if len(objectIDs) == 0 {
		return nil
	}
	d := newDescriptor(action, objectIDs)
	d.Parameters[ParamActionName] = action.String()
	d.Parameters[ParamExecutorType] = ExecutorType
	return d
}

// Builder applies per-action eligibility rules to a validated selection.
type Builder struct {
	labels LabelCounter
}

// NewBuilder constructs a Builder.
func NewBuilder(labels LabelCounter) *Builder {
	return &Builder{labels: labels}
}

// Build returns the descriptor for action, or nil when no conversation in sel
// is eligible. A nil descriptor tells the caller to hide the action; it is not
// an error. Only ActionAssignLabel touches the store.
func (b *Builder) Build(ctx context.Context, sel Selection, action Action, actorID int64) (*Descriptor, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
	if sel.Len() == 0 {
		return nil, nil
	}

	switch action {
	case ActionAssignLabel:
		count, err := b.labels.CountLabels(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("clipboard: count labels: %w", err)
		}
		if count == 0 {
			return nil, nil
		}
		return newDescriptor(action, sel.IDs()), nil
	case ActionClose:
		return executorDescriptor(action, sel.matching(func(c conversation.Conversation) bool {
			return !c.IsClosed && c.OwnedBy(actorID)
		})), nil
	case ActionLeave, ActionLeavePermanently:
		return newDescriptor(action, sel.IDs()), nil
	case ActionOpen:
		return executorDescriptor(action, sel.matching(func(c conversation.Conversation) bool {
			return c.IsClosed && c.OwnedBy(actorID)
		})), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAction, action)
	}
}
