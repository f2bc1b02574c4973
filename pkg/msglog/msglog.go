// Package msglog is the append-only message log: appends, ordered listing,
// and soft deletion.
package msglog

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/validation"
)

var now = time.Now

// ErrConversationNotFound is returned by Append when the parent conversation
// does not exist. A message cannot exist without the recency pointer its
// directory listing depends on.
var ErrConversationNotFound = errors.New("conversation not found")

// Append validates and inserts a message, and moves the parent
// conversation's preview and recency pointer in the same atomic batch.
func Append(convID, senderID, body string) (*models.Message, error) {
	if err := validation.ValidateUserID(senderID); err != nil {
		return nil, err
	}
	if err := validation.ValidateBody(body); err != nil {
		return nil, err
	}

	// serialize against concurrent appends to the same conversation so the
	// recency pointer always reflects the logically last append
	convKey := store.ConvKey(convID)
	unlock := store.Lock(convKey)
	defer unlock()

	cv, err := store.Get(convKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	var conv models.Conversation
	if err := json.Unmarshal(cv, &conv); err != nil {
		return nil, fmt.Errorf("invalid stored conversation: %w", err)
	}

	ts := now().UTC().UnixNano()
	seq := store.NextSeq()
	msg := models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      ts,
	}
	mb, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	conv.LastMessageTime = ts
	conv.LastMessagePreview = body
	cb, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation: %w", err)
	}

	key := store.MsgKey(convID, ts, seq)
	batch := store.NewBatch()
	_ = batch.Set([]byte(key), mb, nil)
	_ = batch.Set([]byte(store.MsgIDKey(msg.ID)), []byte(key), nil)
	_ = batch.Set([]byte(convKey), cb, nil)
	if err := store.Apply(batch); err != nil {
		return nil, err
	}
	logger.Info("message_appended", "conversation", convID, "message", msg.ID)
	return &msg, nil
}

// List returns all messages in the conversation in creation order. Deleted
// messages are included; the Deleted flag is part of the visible record and
// rendering placeholders is the caller's concern.
func List(convID string) ([]models.Message, error) {
	vals, err := store.ScanValues(store.MsgPrefix(convID))
	if err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(vals))
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			logger.Warn("skip_invalid_message_record", "conversation", convID, "error", err)
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// Get returns one message by id, or store.ErrNotFound.
func Get(msgID string) (*models.Message, error) {
	key, err := store.Get(store.MsgIDKey(msgID))
	if err != nil {
		return nil, err
	}
	v, err := store.Get(string(key))
	if err != nil {
		return nil, err
	}
	var m models.Message
	if err := json.Unmarshal(v, &m); err != nil {
		return nil, fmt.Errorf("invalid stored message: %w", err)
	}
	return &m, nil
}

// SoftDelete flags a message as deleted in place. The body is retained and
// the record stays in the log; reactions on it remain queryable. Deleting an
// absent or already-deleted message is a no-op.
func SoftDelete(msgID string) error {
	keyv, err := store.Get(store.MsgIDKey(msgID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	key := string(keyv)

	unlock := store.Lock(key)
	defer unlock()

	v, err := store.Get(key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	var m models.Message
	if err := json.Unmarshal(v, &m); err != nil {
		return fmt.Errorf("invalid stored message: %w", err)
	}
	if m.Deleted {
		return nil
	}
	m.Deleted = true
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := store.Set(key, b); err != nil {
		return err
	}
	logger.Info("message_soft_deleted", "message", msgID, "conversation", m.ConversationID)
	return nil
}
