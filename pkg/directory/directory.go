// Package directory finds and creates the unique pairwise conversation
// between two users and produces a user's conversation listing.
package directory

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/users"
	"pairchat/pkg/validation"
)

var now = time.Now

// ErrSameUser is returned when both participants are the same id.
var ErrSameUser = errors.New("conversation requires two distinct users")

// GetOrCreate returns the id of the conversation between userA and userB,
// creating it on first contact. The check-then-insert is serialized behind
// the canonical pair lock and backed by the pair index key, so concurrent
// calls from both participants settle on one conversation.
func GetOrCreate(userA, userB string) (string, error) {
	if err := validation.ValidateUserID(userA); err != nil {
		return "", err
	}
	if err := validation.ValidateUserID(userB); err != nil {
		return "", err
	}
	if userA == userB {
		return "", ErrSameUser
	}

	unlock := store.LockPair(userA, userB)
	defer unlock()

	pairKey := store.PairKey(userA, userB)
	if v, err := store.Get(pairKey); err == nil {
		return string(v), nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	lo, hi := store.SortPair(userA, userB)
	conv := models.Conversation{
		ID:              uuid.NewString(),
		ParticipantIDs:  []string{lo, hi},
		LastMessageTime: now().UTC().UnixNano(),
	}
	b, err := json.Marshal(conv)
	if err != nil {
		return "", fmt.Errorf("failed to marshal conversation: %w", err)
	}

	// conversation, pair index and both membership rows land atomically
	batch := store.NewBatch()
	_ = batch.Set([]byte(store.ConvKey(conv.ID)), b, nil)
	_ = batch.Set([]byte(pairKey), []byte(conv.ID), nil)
	_ = batch.Set([]byte(store.UserConvKey(lo, conv.ID)), nil, nil)
	_ = batch.Set([]byte(store.UserConvKey(hi, conv.ID)), nil, nil)
	if err := store.Apply(batch); err != nil {
		return "", err
	}
	logger.Info("conversation_created", "conversation", conv.ID, "a", lo, "b", hi)
	return conv.ID, nil
}

// Get returns the conversation record, with read watermarks assembled from
// their per-user rows, or store.ErrNotFound.
func Get(convID string) (*models.Conversation, error) {
	v, err := store.Get(store.ConvKey(convID))
	if err != nil {
		return nil, err
	}
	var conv models.Conversation
	if err := json.Unmarshal(v, &conv); err != nil {
		return nil, fmt.Errorf("invalid stored conversation: %w", err)
	}
	marks, err := store.ScanPrefix(store.ReadPrefix(convID))
	if err != nil {
		return nil, err
	}
	if len(marks) > 0 {
		conv.ReadWatermarks = make(map[string]int64, len(marks))
		for _, kv := range marks {
			userID := kv.Key[len(store.ReadPrefix(convID)):]
			var ns int64
			if _, err := fmt.Sscanf(string(kv.Value), "%d", &ns); err == nil {
				conv.ReadWatermarks[userID] = ns
			}
		}
	}
	return &conv, nil
}

// ListForUser returns the user's conversations joined with the other
// participant's profile, newest activity first. A failed profile join
// surfaces the row with a nil OtherUser rather than failing the listing.
func ListForUser(userID string) ([]models.ConversationEntry, error) {
	keys, err := store.ScanKeys(store.UserConvPrefix(userID))
	if err != nil {
		return nil, err
	}
	prefix := store.UserConvPrefix(userID)
	out := make([]models.ConversationEntry, 0, len(keys))
	for _, k := range keys {
		convID := k[len(prefix):]
		conv, err := Get(convID)
		if err != nil {
			logger.Warn("skip_unreadable_conversation", "conversation", convID, "error", err)
			continue
		}
		entry := models.ConversationEntry{Conversation: *conv}
		if other := conv.Other(userID); other != "" {
			if u, err := users.Get(other); err == nil {
				entry.OtherUser = u
			}
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTime > out[j].LastMessageTime
	})
	return out, nil
}
