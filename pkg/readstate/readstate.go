// Package readstate maintains per-user read watermarks and derives unread
// counts from them and the message log.
package readstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

var now = time.Now

// MarkRead raises the user's watermark on the conversation to the current
// wall clock. Each watermark is its own record, so concurrent markRead calls
// for different users can never clobber each other. Marking a missing
// conversation is a no-op.
func MarkRead(convID, userID string) error {
	if _, err := store.Get(store.ConvKey(convID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	ns := now().UTC().UnixNano()
	if err := store.Set(store.ReadKey(convID, userID), []byte(fmt.Sprintf("%d", ns))); err != nil {
		return err
	}
	logger.Debug("read_watermark_set", "conversation", convID, "user", userID, "ns", ns)
	return nil
}

// Watermark returns the user's watermark for the conversation, or 0 when
// none has been recorded.
func Watermark(convID, userID string) int64 {
	v, err := store.Get(store.ReadKey(convID, userID))
	if err != nil {
		return 0
	}
	var ns int64
	if _, err := fmt.Sscanf(string(v), "%d", &ns); err != nil {
		return 0
	}
	return ns
}

// UnreadCount counts messages in the conversation created strictly after the
// user's watermark and sent by someone else. Deleted messages still count;
// the log is append-only and an unseen deletion is still unseen. A missing
// conversation yields 0.
func UnreadCount(convID, userID string) (int, error) {
	if _, err := store.Get(store.ConvKey(convID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return countAfter(convID, userID, Watermark(convID, userID))
}

// UnreadCountsForUser computes UnreadCount for every conversation the user
// participates in. This walks each conversation's log; callers that poll it
// frequently should memoize at their boundary.
func UnreadCountsForUser(userID string) (map[string]int, error) {
	keys, err := store.ScanKeys(store.UserConvPrefix(userID))
	if err != nil {
		return nil, err
	}
	prefix := store.UserConvPrefix(userID)
	out := make(map[string]int, len(keys))
	for _, k := range keys {
		convID := k[len(prefix):]
		n, err := countAfter(convID, userID, Watermark(convID, userID))
		if err != nil {
			return nil, err
		}
		out[convID] = n
	}
	return out, nil
}

func countAfter(convID, userID string, watermark int64) (int, error) {
	vals, err := store.ScanValues(store.MsgPrefix(convID))
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range vals {
		var m models.Message
		if err := json.Unmarshal(v, &m); err != nil {
			continue
		}
		if m.CreatedAt > watermark && m.SenderID != userID {
			n++
		}
	}
	return n, nil
}
