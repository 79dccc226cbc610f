// Package clipboard decides which bulk actions an actor may run on the
// conversations they marked, and describes them for the bulk executor.
package clipboard

import (
	"errors"
	"fmt"
)

// ErrUnsupportedAction indicates an action token outside the known set.
var ErrUnsupportedAction = errors.New("clipboard: unsupported action")

// Action enumerates the bulk actions offered for marked conversations.
type Action int

const (
	ActionUnspecified Action = iota
	ActionAssignLabel
	ActionClose
	ActionLeave
	ActionLeavePermanently
	ActionOpen
)

var actionTokens = map[Action]string{
	ActionAssignLabel:      "assignLabel",
	ActionClose:            "close",
	ActionLeave:            "leave",
	ActionLeavePermanently: "leavePermanently",
	ActionOpen:             "open",
}

// Actions lists every advertised action in menu order.
func Actions() []Action {
	return []Action{ActionAssignLabel, ActionClose, ActionLeave, ActionLeavePermanently, ActionOpen}
}

// ParseAction maps a token such as "close" onto its Action. Tokens are case-sensitive.
func ParseAction(token string) (Action, error) {
	for action, t := range actionTokens {
		if t == token {
			return action, nil
		}
	}
	return ActionUnspecified, fmt.Errorf("%w: %q", ErrUnsupportedAction, token)
}

// String returns the action token.
func (a Action) String() string {
	if t, ok := actionTokens[a]; ok {
		return t
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// Valid reports whether a is one of the advertised actions.
func (a Action) Valid() bool {
	_, ok := actionTokens[a]
	return ok
}

// MarshalText encodes the action as its token.
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedAction, int(a))
	}
	return []byte(actionTokens[a]), nil
}

// UnmarshalText decodes a token produced by MarshalText.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
