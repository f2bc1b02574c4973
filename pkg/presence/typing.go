package presence

import (
	"encoding/json"
	"errors"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/validation"
)

// SignalTyping upserts the (conversation, user) typing signal to now. One
// record per pair, overwritten in place; stale entries are filtered by the
// window at read time, not purged here. Signaling into a missing
// conversation is a no-op.
func SignalTyping(convID, userID string) error {
	if err := validation.ValidateUserID(userID); err != nil {
		return err
	}
	if _, err := store.Get(store.ConvKey(convID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	sig := models.TypingSignal{
		ConversationID: convID,
		UserID:         userID,
		LastTypedAt:    now().UTC().UnixNano(),
	}
	b, err := json.Marshal(sig)
	if err != nil {
		return err
	}
	return store.Set(store.TypingKey(convID, userID), b)
}

// TypingUsers returns ids of users other than excludeUserID whose signal in
// the conversation is within the typing window.
func TypingUsers(convID, excludeUserID string) ([]string, error) {
	kvs, err := store.ScanPrefix(store.TypingPrefix(convID))
	if err != nil {
		return nil, err
	}
	cutoff := now().UTC().Add(-typingWindow).UnixNano()
	out := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		var sig models.TypingSignal
		if err := json.Unmarshal(kv.Value, &sig); err != nil {
			logger.Warn("skip_invalid_typing_record", "key", kv.Key, "error", err)
			continue
		}
		if sig.UserID == excludeUserID {
			continue
		}
		if sig.LastTypedAt > cutoff {
			out = append(out, sig.UserID)
		}
	}
	return out, nil
}
