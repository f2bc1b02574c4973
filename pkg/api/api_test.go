package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pairchat/pkg/api"
	"pairchat/pkg/live"
	"pairchat/pkg/models"
	"pairchat/pkg/store"
)

func setupServer(t *testing.T) *httptest.Server {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	b := live.NewBroker(64, 50*time.Millisecond)
	b.Start()
	live.SetDefault(b)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(func() {
		srv.Close()
		b.Stop()
		live.SetDefault(nil)
		_ = store.Close()
	})
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, url, err)
		}
	}
	return resp
}

func TestHealthz(t *testing.T) {
	srv := setupServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}

// Full conversation lifecycle: profiles, first contact, messages, unread,
// read watermarks, typing, reactions, soft delete, presence.
func TestConversationFlow(t *testing.T) {
	srv := setupServer(t)

	for _, u := range []models.User{
		{ID: "alice", DisplayName: "Alice"},
		{ID: "bob", DisplayName: "Bob"},
	} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/v1/users", u, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("upsert %s: %d", u.ID, resp.StatusCode)
		}
	}

	var created struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/v1/conversations",
		map[string]string{"user_a": "alice", "user_b": "bob"}, &created)
	if created.ID == "" {
		t.Fatalf("no conversation id")
	}
	// second contact from the other side lands on the same conversation
	var again struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/v1/conversations",
		map[string]string{"user_a": "bob", "user_b": "alice"}, &again)
	if again.ID != created.ID {
		t.Fatalf("pair uniqueness broken: %q vs %q", created.ID, again.ID)
	}

	var sent models.Message
	doJSON(t, http.MethodPost, srv.URL+"/v1/conversations/"+created.ID+"/messages",
		map[string]string{"sender_id": "bob", "body": "hi alice"}, &sent)
	if sent.ID == "" || sent.SenderID != "bob" {
		t.Fatalf("send: %+v", sent)
	}

	var unread struct {
		Count int `json:"count"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+created.ID+"/unread?user=alice", nil, &unread)
	if unread.Count != 1 {
		t.Fatalf("alice unread: %d", unread.Count)
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+created.ID+"/unread?user=bob", nil, &unread)
	if unread.Count != 0 {
		t.Fatalf("own message counted as unread: %d", unread.Count)
	}

	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/conversations/"+created.ID+"/read",
		map[string]string{"user_id": "alice"}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("mark read: %d", resp.StatusCode)
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+created.ID+"/unread?user=alice", nil, &unread)
	if unread.Count != 0 {
		t.Fatalf("unread after read: %d", unread.Count)
	}

	// typing indicator excludes the asking user
	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/conversations/"+created.ID+"/typing",
		map[string]string{"user_id": "bob"}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set typing: %d", resp.StatusCode)
	}
	var typing struct {
		Typing []string `json:"typing"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+created.ID+"/typing?exclude=alice", nil, &typing)
	if len(typing.Typing) != 1 || typing.Typing[0] != "bob" {
		t.Fatalf("typing: %v", typing.Typing)
	}

	// reaction round trip
	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/messages/"+sent.ID+"/reactions",
		map[string]string{"user_id": "alice", "emoji": "👍"}, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("toggle reaction: %d", resp.StatusCode)
	}
	var reacts struct {
		Reactions map[string][]models.ReactionGroup `json:"reactions"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+created.ID+"/reactions", nil, &reacts)
	if groups := reacts.Reactions[sent.ID]; len(groups) != 1 || groups[0].Emoji != "👍" {
		t.Fatalf("reactions: %+v", reacts.Reactions)
	}

	// soft delete keeps the record in the listing
	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/messages/"+sent.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %d", delResp.StatusCode)
	}
	var listing struct {
		Messages []models.Message `json:"messages"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations/"+created.ID+"/messages", nil, &listing)
	if len(listing.Messages) != 1 || !listing.Messages[0].Deleted {
		t.Fatalf("soft delete: %+v", listing.Messages)
	}

	// upsert already counted as a heartbeat for presence
	var online struct {
		Online []string `json:"online"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/presence", nil, &online)
	if len(online.Online) != 2 {
		t.Fatalf("online: %v", online.Online)
	}

	// the directory lists the conversation for both users, newest first
	var convs struct {
		Conversations []models.ConversationEntry `json:"conversations"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/conversations?user=alice", nil, &convs)
	if len(convs.Conversations) != 1 {
		t.Fatalf("directory: %+v", convs.Conversations)
	}
	if convs.Conversations[0].OtherUser == nil || convs.Conversations[0].OtherUser.ID != "bob" {
		t.Fatalf("profile join: %+v", convs.Conversations[0].OtherUser)
	}
}

func TestErrorSurfaces(t *testing.T) {
	srv := setupServer(t)

	// self conversation
	resp := doJSON(t, http.MethodPost, srv.URL+"/v1/conversations",
		map[string]string{"user_a": "alice", "user_b": "alice"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("self conversation: %d", resp.StatusCode)
	}

	// message into a missing conversation
	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/conversations/ghost/messages",
		map[string]string{"sender_id": "alice", "body": "hello"}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing conversation: %d", resp.StatusCode)
	}

	// unknown user profile
	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/users/nobody", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown user: %d", resp.StatusCode)
	}

	// listing without the user param
	resp = doJSON(t, http.MethodGet, srv.URL+"/v1/conversations", nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing user param: %d", resp.StatusCode)
	}

	// reserved separator bytes in ids
	resp = doJSON(t, http.MethodPost, srv.URL+"/v1/users", models.User{ID: "a:b"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("separator id: %d", resp.StatusCode)
	}
}

func TestUserListingExcludesCaller(t *testing.T) {
	srv := setupServer(t)
	for _, id := range []string{"alice", "bob", "carol"} {
		doJSON(t, http.MethodPost, srv.URL+"/v1/users", models.User{ID: id, DisplayName: id}, nil)
	}
	var out struct {
		Users []models.User `json:"users"`
	}
	doJSON(t, http.MethodGet, srv.URL+"/v1/users?exclude=alice", nil, &out)
	if len(out.Users) != 2 {
		t.Fatalf("users: %+v", out.Users)
	}
	for _, u := range out.Users {
		if u.ID == "alice" {
			t.Fatalf("caller leaked into listing")
		}
	}
}

// readSSEFrame blocks until one data frame arrives and returns its payload.
func readSSEFrame(t *testing.T, br *bufio.Reader) []byte {
	t.Helper()
	deadline := time.After(5 * time.Second)
	frame := make(chan []byte, 1)
	go func() {
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			if strings.HasPrefix(line, "data: ") {
				frame <- []byte(strings.TrimSuffix(strings.TrimPrefix(line, "data: "), "\n"))
				return
			}
		}
	}()
	select {
	case b := <-frame:
		return b
	case <-deadline:
		t.Fatalf("no SSE frame within deadline")
		return nil
	}
}

func TestSubscribeMessagesPushesAfterSend(t *testing.T) {
	srv := setupServer(t)

	doJSON(t, http.MethodPost, srv.URL+"/v1/users", models.User{ID: "alice"}, nil)
	doJSON(t, http.MethodPost, srv.URL+"/v1/users", models.User{ID: "bob"}, nil)
	var created struct {
		ID string `json:"id"`
	}
	doJSON(t, http.MethodPost, srv.URL+"/v1/conversations",
		map[string]string{"user_a": "alice", "user_b": "bob"}, &created)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/subscribe/messages?conversation=%s", srv.URL, created.ID), nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %q", ct)
	}
	br := bufio.NewReader(resp.Body)

	var snap struct {
		Messages []models.Message `json:"messages"`
	}
	if err := json.Unmarshal(readSSEFrame(t, br), &snap); err != nil {
		t.Fatalf("initial frame: %v", err)
	}
	if len(snap.Messages) != 0 {
		t.Fatalf("initial snapshot should be empty: %+v", snap.Messages)
	}

	doJSON(t, http.MethodPost, srv.URL+"/v1/conversations/"+created.ID+"/messages",
		map[string]string{"sender_id": "bob", "body": "pushed"}, nil)

	if err := json.Unmarshal(readSSEFrame(t, br), &snap); err != nil {
		t.Fatalf("pushed frame: %v", err)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Body != "pushed" {
		t.Fatalf("pushed snapshot: %+v", snap.Messages)
	}
}
