// Package users caches identity-provider profiles keyed by their opaque
// external ids and tracks per-user activity timestamps.
package users

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
	"pairchat/pkg/validation"
)

// now is swapped out in tests.
var now = time.Now

// Upsert inserts or refreshes the profile for u.ID. An upsert counts as
// activity, so the heartbeat timestamp advances too.
func Upsert(u models.User) error {
	if err := validation.ValidateUserID(u.ID); err != nil {
		return err
	}
	unlock := store.Lock(store.UserKey(u.ID))
	defer unlock()

	ts := now().UTC().UnixNano()
	u.LastActiveAt = ts
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	batch := store.NewBatch()
	_ = batch.Set([]byte(store.UserKey(u.ID)), b, nil)
	_ = batch.Set([]byte(store.PresenceKey(u.ID)), nsBytes(ts), nil)
	if err := store.Apply(batch); err != nil {
		return err
	}
	logger.Info("user_upserted", "user", u.ID)
	return nil
}

// Get returns the profile for userID or store.ErrNotFound.
func Get(userID string) (*models.User, error) {
	v, err := store.Get(store.UserKey(userID))
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, fmt.Errorf("invalid stored user: %w", err)
	}
	return &u, nil
}

// List returns every known profile except excludeID, in id order. Clients
// use it to pick someone to start a conversation with.
func List(excludeID string) ([]models.User, error) {
	kvs, err := store.ScanPrefix(store.UserPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(kvs))
	for _, kv := range kvs {
		if len(kv.Key) < len(store.UserProfileSuffix) ||
			kv.Key[len(kv.Key)-len(store.UserProfileSuffix):] != store.UserProfileSuffix {
			continue
		}
		var u models.User
		if err := json.Unmarshal(kv.Value, &u); err != nil {
			logger.Warn("skip_invalid_user_record", "key", kv.Key, "error", err)
			continue
		}
		if u.ID == excludeID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// IsNotFound reports whether err means the user record is absent.
func IsNotFound(err error) bool { return errors.Is(err, store.ErrNotFound) }

func nsBytes(ns int64) []byte {
	return []byte(fmt.Sprintf("%d", ns))
}
