package reactions

import (
	"testing"

	"pairchat/pkg/directory"
	"pairchat/pkg/msglog"
	"pairchat/pkg/store"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func seedMessage(t *testing.T) (convID, msgID string) {
	t.Helper()
	conv, err := directory.GetOrCreate("alice", "bob")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	msg, err := msglog.Append(conv, "alice", "react to this")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	return conv, msg.ID
}

func TestToggleIsAnInvolution(t *testing.T) {
	openTestDB(t)
	_, msgID := seedMessage(t)

	if err := Toggle(msgID, "bob", "👍"); err != nil {
		t.Fatalf("Toggle on: %v", err)
	}
	groups, err := ForMessage(msgID)
	if err != nil {
		t.Fatalf("ForMessage: %v", err)
	}
	if len(groups) != 1 || groups[0].Emoji != "👍" || len(groups[0].VoterIDs) != 1 {
		t.Fatalf("after first toggle: %+v", groups)
	}

	if err := Toggle(msgID, "bob", "👍"); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	groups, err = ForMessage(msgID)
	if err != nil {
		t.Fatalf("ForMessage: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("two identical toggles must cancel out: %+v", groups)
	}
}

func TestToggleDistinguishesEmojiAndUser(t *testing.T) {
	openTestDB(t)
	_, msgID := seedMessage(t)

	if err := Toggle(msgID, "bob", "👍"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	// same user, different emoji: both stand
	if err := Toggle(msgID, "bob", "🎉"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	// different user, same emoji
	if err := Toggle(msgID, "alice", "👍"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	groups, err := ForMessage(msgID)
	if err != nil {
		t.Fatalf("ForMessage: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups; got %+v", groups)
	}
	// group order and voter order both follow first insertion
	if groups[0].Emoji != "👍" || groups[1].Emoji != "🎉" {
		t.Fatalf("group order: %+v", groups)
	}
	if len(groups[0].VoterIDs) != 2 || groups[0].VoterIDs[0] != "bob" || groups[0].VoterIDs[1] != "alice" {
		t.Fatalf("voter order: %+v", groups[0].VoterIDs)
	}
}

func TestToggleValidation(t *testing.T) {
	openTestDB(t)
	_, msgID := seedMessage(t)

	if err := Toggle(msgID, "", "👍"); err == nil {
		t.Fatalf("empty user accepted")
	}
	if err := Toggle(msgID, "bob", ""); err == nil {
		t.Fatalf("empty emoji accepted")
	}
	if err := Toggle(msgID, "bob", "a|b"); err == nil {
		t.Fatalf("separator emoji accepted")
	}
}

func TestAggregateOmitsUnreactedMessages(t *testing.T) {
	openTestDB(t)
	conv, msgID := seedMessage(t)

	plain, err := msglog.Append(conv, "bob", "no reactions here")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := Toggle(msgID, "bob", "❤️"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}

	agg, err := AggregateForConversation(conv)
	if err != nil {
		t.Fatalf("AggregateForConversation: %v", err)
	}
	if len(agg) != 1 {
		t.Fatalf("expected 1 reacted message; got %v", agg)
	}
	if _, ok := agg[plain.ID]; ok {
		t.Fatalf("unreacted message must be absent, not empty")
	}
	if groups := agg[msgID]; len(groups) != 1 || groups[0].Emoji != "❤️" {
		t.Fatalf("aggregate: %+v", groups)
	}
}

// Reaction rows persist across a store reopen; rows written by the next
// process lifetime must neither overwrite them nor sort before them.
func TestReactionRowsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	if err := store.Open(dir); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	_, msgID := seedMessage(t)
	for _, u := range []string{"u1", "u2"} {
		if err := Toggle(msgID, u, "👍"); err != nil {
			t.Fatalf("Toggle %s: %v", u, err)
		}
	}

	if err := store.Close(); err != nil {
		t.Fatalf("store.Close: %v", err)
	}
	if err := store.Open(dir); err != nil {
		t.Fatalf("store.Open reopened: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	for _, u := range []string{"u3", "u4"} {
		if err := Toggle(msgID, u, "👍"); err != nil {
			t.Fatalf("Toggle %s: %v", u, err)
		}
	}

	groups, err := ForMessage(msgID)
	if err != nil {
		t.Fatalf("ForMessage: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("groups: %+v", groups)
	}
	want := []string{"u1", "u2", "u3", "u4"}
	if len(groups[0].VoterIDs) != len(want) {
		t.Fatalf("voters lost across reopen: got %v want %v", groups[0].VoterIDs, want)
	}
	for i, u := range want {
		if groups[0].VoterIDs[i] != u {
			t.Fatalf("voter order across reopen: got %v want %v", groups[0].VoterIDs, want)
		}
	}

	// the triple index still points at the right row: untoggling u1 must
	// remove u1, not anyone else
	if err := Toggle(msgID, "u1", "👍"); err != nil {
		t.Fatalf("Toggle off: %v", err)
	}
	groups, err = ForMessage(msgID)
	if err != nil {
		t.Fatalf("ForMessage: %v", err)
	}
	if len(groups[0].VoterIDs) != 3 || groups[0].VoterIDs[0] != "u2" {
		t.Fatalf("untoggle removed the wrong row: %v", groups[0].VoterIDs)
	}
}

func TestReactionsSurviveSoftDelete(t *testing.T) {
	openTestDB(t)
	conv, msgID := seedMessage(t)

	if err := Toggle(msgID, "bob", "👍"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if err := msglog.SoftDelete(msgID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	agg, err := AggregateForConversation(conv)
	if err != nil {
		t.Fatalf("AggregateForConversation: %v", err)
	}
	if len(agg[msgID]) != 1 {
		t.Fatalf("reactions on a deleted message must stay queryable: %v", agg)
	}
}
