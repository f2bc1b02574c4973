package models

// TypingSignal records the last keystroke for one user in one conversation.
// At most one live signal per (conversation, user); overwritten in place.
// Staleness is decided at read time against the typing window.
type TypingSignal struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	LastTypedAt    int64  `json:"last_typed_at"`
}
