// Package presence derives "online" and "currently typing" sets from
// monotonically advancing last-seen timestamps compared against sliding
// windows. There are no explicit offline or stopped-typing events; absence
// is inferred from the passage of time at read time.
package presence

import (
	"encoding/json"
	"fmt"
	"time"

	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/validation"
)

var now = time.Now

var (
	typingWindow   = 2 * time.Second
	presenceWindow = 30 * time.Second
)

// SetWindows installs the configured liveness windows. Non-positive values
// keep the defaults.
func SetWindows(typing, presence time.Duration) {
	if typing > 0 {
		typingWindow = typing
	}
	if presence > 0 {
		presenceWindow = presence
	}
}

// TypingWindow returns the active typing window.
func TypingWindow() time.Duration { return typingWindow }

// PresenceWindow returns the active presence window.
func PresenceWindow() time.Duration { return presenceWindow }

// Touch records a heartbeat for the user. The presence record and the
// profile's LastActiveAt move together.
func Touch(userID string) error {
	if err := validation.ValidateUserID(userID); err != nil {
		return err
	}
	unlock := store.Lock(store.UserKey(userID))
	defer unlock()

	ts := now().UTC().UnixNano()
	batch := store.NewBatch()
	_ = batch.Set([]byte(store.PresenceKey(userID)), []byte(fmt.Sprintf("%d", ts)), nil)
	if v, err := store.Get(store.UserKey(userID)); err == nil {
		var u models.User
		if err := json.Unmarshal(v, &u); err == nil {
			u.LastActiveAt = ts
			if b, err := json.Marshal(u); err == nil {
				_ = batch.Set([]byte(store.UserKey(userID)), b, nil)
			}
		}
	}
	return store.Apply(batch)
}

// OnlineUsers returns ids whose last heartbeat falls within the presence
// window. Users who stop heartbeating age out silently.
func OnlineUsers() ([]string, error) {
	kvs, err := store.ScanPrefix(store.PresencePrefix)
	if err != nil {
		return nil, err
	}
	cutoff := now().UTC().Add(-presenceWindow).UnixNano()
	out := make([]string, 0, len(kvs))
	for _, kv := range kvs {
		var ns int64
		if _, err := fmt.Sscanf(string(kv.Value), "%d", &ns); err != nil {
			continue
		}
		if ns > cutoff {
			out = append(out, kv.Key[len(store.PresencePrefix):])
		}
	}
	return out, nil
}
