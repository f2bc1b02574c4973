package models

// Conversation is the pairwise container for a message log. Exactly one
// conversation exists per unordered participant pair; uniqueness is enforced
// by the store's canonical pair index.
type Conversation struct {
	ID             string   `json:"id"`
	ParticipantIDs []string `json:"participant_ids"`
	// LastMessageTime (unix nanos) and LastMessagePreview are the recency
	// pointer the directory sorts by; both move together with every append.
	LastMessageTime    int64  `json:"last_message_time"`
	LastMessagePreview string `json:"last_message_preview,omitempty"`
	// ReadWatermarks maps userID -> unix-nano read watermark. Assembled from
	// per-user records at read time; never written back as a whole map.
	ReadWatermarks map[string]int64 `json:"read_watermarks,omitempty"`
}

// Other returns the participant that is not userID, or "" when userID is not
// a participant.
func (c *Conversation) Other(userID string) string {
	for _, p := range c.ParticipantIDs {
		if p != userID {
			return p
		}
	}
	return ""
}

// Has reports whether userID participates in the conversation.
func (c *Conversation) Has(userID string) bool {
	for _, p := range c.ParticipantIDs {
		if p == userID {
			return true
		}
	}
	return false
}

// ConversationEntry is a directory listing row: the conversation joined with
// the other participant's current profile. OtherUser is nil when the profile
// lookup misses; the row is still returned.
type ConversationEntry struct {
	Conversation
	OtherUser *User `json:"other_user"`
}
