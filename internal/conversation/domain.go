package conversation

import (
	"errors"
	"time"
)

// HideState tracks how a participant has left a conversation.
type HideState int16

const (
	HideStateVisible     HideState = 0
	HideStateHidden      HideState = 1
	HideStateLeftForGood HideState = 2
)

// Conversation is a read-only snapshot of a conversation thread.
type Conversation struct {
	ID        int64
	Subject   string
	OwnerID   int64
	IsClosed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether userID started the conversation.
func (c Conversation) OwnedBy(userID int64) bool {
	return userID != 0 && c.OwnerID == userID
}

// ErrNoConversations is returned by bulk writes given an empty id list.
var ErrNoConversations = errors.New("conversation: no conversation ids given")
