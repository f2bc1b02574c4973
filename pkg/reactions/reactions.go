// Package reactions maintains (message, user, emoji) membership rows and
// aggregates them into per-message emoji groups.
package reactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/msglog"
	"pairchat/pkg/store"
	"pairchat/pkg/validation"
)

var now = time.Now

// Toggle flips the reaction row for the exact triple: present rows are
// removed, absent rows inserted. Two calls with the same arguments cancel
// out. The row and its triple index move in one atomic batch.
func Toggle(msgID, userID, emoji string) error {
	if err := validation.ValidateUserID(userID); err != nil {
		return err
	}
	if err := validation.ValidateEmoji(emoji); err != nil {
		return err
	}

	idxKey := store.ReactIdxKey(msgID, userID, emoji)
	unlock := store.Lock(idxKey)
	defer unlock()

	batch := store.NewBatch()
	if rowKey, err := store.Get(idxKey); err == nil {
		_ = batch.Delete([]byte(rowKey), nil)
		_ = batch.Delete([]byte(idxKey), nil)
		if err := store.Apply(batch); err != nil {
			return err
		}
		logger.Debug("reaction_removed", "message", msgID, "user", userID, "emoji", emoji)
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	ts := now().UTC().UnixNano()
	seq := store.NextSeq()
	row := models.Reaction{MessageID: msgID, UserID: userID, Emoji: emoji, CreatedAt: ts, Seq: seq}
	b, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal reaction: %w", err)
	}
	rowKey := store.ReactKey(msgID, ts, seq)
	_ = batch.Set([]byte(rowKey), b, nil)
	_ = batch.Set([]byte(idxKey), []byte(rowKey), nil)
	if err := store.Apply(batch); err != nil {
		return err
	}
	logger.Debug("reaction_added", "message", msgID, "user", userID, "emoji", emoji)
	return nil
}

// ForMessage returns the message's reactions grouped by emoji. Group order
// and voter order both follow first insertion.
func ForMessage(msgID string) ([]models.ReactionGroup, error) {
	vals, err := store.ScanValues(store.ReactPrefix(msgID))
	if err != nil {
		return nil, err
	}
	var order []string
	voters := make(map[string][]string)
	for _, v := range vals {
		var r models.Reaction
		if err := json.Unmarshal(v, &r); err != nil {
			logger.Warn("skip_invalid_reaction_record", "message", msgID, "error", err)
			continue
		}
		if _, ok := voters[r.Emoji]; !ok {
			order = append(order, r.Emoji)
		}
		voters[r.Emoji] = append(voters[r.Emoji], r.UserID)
	}
	out := make([]models.ReactionGroup, 0, len(order))
	for _, e := range order {
		out = append(out, models.ReactionGroup{Emoji: e, VoterIDs: voters[e]})
	}
	return out, nil
}

// AggregateForConversation maps message id -> reaction groups for every
// message in the conversation. Messages without reactions are absent from
// the map, not mapped to an empty list; deletion state is ignored, a deleted
// message's reactions stay queryable.
func AggregateForConversation(convID string) (map[string][]models.ReactionGroup, error) {
	msgs, err := msglog.List(convID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]models.ReactionGroup)
	for _, m := range msgs {
		groups, err := ForMessage(m.ID)
		if err != nil {
			return nil, err
		}
		if len(groups) > 0 {
			out[m.ID] = groups
		}
	}
	return out, nil
}
