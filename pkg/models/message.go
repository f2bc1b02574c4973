package models

// Message is an entry in a conversation's append-only log. Immutable once
// written except for the Deleted flag (soft delete; the body is retained).
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	Body           string `json:"body"`
	// CreatedAt is the store-assigned creation timestamp (unix nanos); log
	// order is by this value plus a tie-breaking sequence.
	CreatedAt int64 `json:"created_at"`
	Deleted   bool  `json:"deleted"`
}

// Reaction is one (message, user, emoji) membership row. At most one row
// exists per triple; presence of the row means the user reacted.
type Reaction struct {
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Emoji     string `json:"emoji"`
	// CreatedAt (unix nanos) and the tie-breaking Seq keep voter lists in
	// first-reacted order; both are baked into the row key so the order
	// survives process restarts.
	CreatedAt int64  `json:"created_at"`
	Seq       uint64 `json:"seq,omitempty"`
}

// ReactionGroup aggregates one emoji on one message. VoterIDs are ordered by
// insertion.
type ReactionGroup struct {
	Emoji    string   `json:"emoji"`
	VoterIDs []string `json:"voter_ids"`
}
