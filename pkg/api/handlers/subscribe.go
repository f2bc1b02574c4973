package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"pairchat/pkg/directory"
	"pairchat/pkg/live"
	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/msglog"
	"pairchat/pkg/presence"
	"pairchat/pkg/reactions"
	"pairchat/pkg/readstate"
	"pairchat/pkg/utils"
)

// RegisterSubscriptions registers the SSE live-query endpoints. Every read
// surface has a subscribable twin; a subscriber receives the current
// snapshot immediately and a fresh one after every mutation that touches a
// record the query reads.
func RegisterSubscriptions(r *mux.Router) {
	r.HandleFunc("/subscribe/conversations", subscribeConversations).Methods(http.MethodGet)
	r.HandleFunc("/subscribe/messages", subscribeMessages).Methods(http.MethodGet)
	r.HandleFunc("/subscribe/typing", subscribeTyping).Methods(http.MethodGet)
	r.HandleFunc("/subscribe/presence", subscribePresence).Methods(http.MethodGet)
}

func subscribeConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		utils.JSONError(w, http.StatusBadRequest, "user query param required")
		return
	}
	stream(w, r, []string{live.TopicUser(userID)}, false, func() (any, error) {
		convs, err := directory.ListForUser(userID)
		if err != nil {
			return nil, err
		}
		unread, err := readstate.UnreadCountsForUser(userID)
		if err != nil {
			return nil, err
		}
		return struct {
			Conversations []models.ConversationEntry `json:"conversations"`
			Unread        map[string]int             `json:"unread"`
		}{Conversations: convs, Unread: unread}, nil
	})
}

func subscribeMessages(w http.ResponseWriter, r *http.Request) {
	convID := r.URL.Query().Get("conversation")
	if convID == "" {
		utils.JSONError(w, http.StatusBadRequest, "conversation query param required")
		return
	}
	stream(w, r, []string{live.TopicConversation(convID)}, false, func() (any, error) {
		msgs, err := msglog.List(convID)
		if err != nil {
			return nil, err
		}
		agg, err := reactions.AggregateForConversation(convID)
		if err != nil {
			return nil, err
		}
		return struct {
			Messages  []models.Message                  `json:"messages"`
			Reactions map[string][]models.ReactionGroup `json:"reactions"`
		}{Messages: msgs, Reactions: agg}, nil
	})
}

func subscribeTyping(w http.ResponseWriter, r *http.Request) {
	convID := r.URL.Query().Get("conversation")
	if convID == "" {
		utils.JSONError(w, http.StatusBadRequest, "conversation query param required")
		return
	}
	exclude := r.URL.Query().Get("exclude")
	// refresh: aging out of the typing window has no mutation edge
	stream(w, r, []string{live.TopicConversation(convID)}, true, func() (any, error) {
		typing, err := presence.TypingUsers(convID, exclude)
		if err != nil {
			return nil, err
		}
		return struct {
			Typing []string `json:"typing"`
		}{Typing: typing}, nil
	})
}

func subscribePresence(w http.ResponseWriter, r *http.Request) {
	stream(w, r, []string{live.TopicPresence}, true, func() (any, error) {
		online, err := presence.OnlineUsers()
		if err != nil {
			return nil, err
		}
		return struct {
			Online []string `json:"online"`
		}{Online: online}, nil
	})
}

// stream runs one SSE subscription until the client disconnects. Each
// snapshot is one data frame; a comment frame every 30s keeps intermediaries
// from closing idle streams.
func stream(w http.ResponseWriter, r *http.Request, topics []string, refresh bool, q live.Query) {
	if live.Default == nil {
		utils.JSONError(w, http.StatusServiceUnavailable, "live queries not available")
		return
	}
	fl, ok := w.(http.Flusher)
	if !ok {
		utils.JSONError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ch, err := live.Default.Subscribe(r.Context(), topics, refresh, q)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			logger.Debug("subscription_closed", "path", r.URL.Path)
			return
		case data := <-ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			fl.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			fl.Flush()
		}
	}
}
