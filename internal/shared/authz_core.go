package shared

// Conversation permissions.
const (
	PermConversationUse = "conversation.canUse"
)
