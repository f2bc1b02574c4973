package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/directory"
	"pairchat/pkg/live"
	"pairchat/pkg/metrics"
	"pairchat/pkg/models"
	"pairchat/pkg/presence"
	"pairchat/pkg/readstate"
	"pairchat/pkg/store"
	"pairchat/pkg/utils"
)

// RegisterConversations registers directory, typing and read-state
// endpoints.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/conversations", getOrCreateConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/typing", setTyping).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/typing", getTypingUsers).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/read", markRead).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/unread", getUnreadCount).Methods(http.MethodGet)
	r.HandleFunc("/unread", getUnreadCounts).Methods(http.MethodGet)
}

func getOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserA string `json:"user_a"`
		UserB string `json:"user_b"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	id, err := directory.GetOrCreate(req.UserA, req.UserB)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("get_or_create_conversation").Inc()
	live.Publish(live.TopicUser(req.UserA), live.TopicUser(req.UserB))
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"id": id})
}

func listConversations(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		utils.JSONError(w, http.StatusBadRequest, "user query param required")
		return
	}
	out, err := directory.ListForUser(userID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Conversations []models.ConversationEntry `json:"conversations"`
	}{Conversations: out})
}

func setTyping(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := presence.SignalTyping(convID, req.UserID); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("set_typing").Inc()
	live.Publish(live.TopicConversation(convID))
	w.WriteHeader(http.StatusNoContent)
}

func getTypingUsers(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	exclude := r.URL.Query().Get("exclude")
	out, err := presence.TypingUsers(convID, exclude)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Typing []string `json:"typing"`
	}{Typing: out})
}

func markRead(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := readstate.MarkRead(convID, req.UserID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("mark_read").Inc()
	live.Publish(live.TopicConversation(convID), live.TopicUser(req.UserID))
	w.WriteHeader(http.StatusNoContent)
}

func getUnreadCount(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	userID := r.URL.Query().Get("user")
	if userID == "" {
		utils.JSONError(w, http.StatusBadRequest, "user query param required")
		return
	}
	n, err := readstate.UnreadCount(convID, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]int{"count": n})
}

func getUnreadCounts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		utils.JSONError(w, http.StatusBadRequest, "user query param required")
		return
	}
	counts, err := readstate.UnreadCountsForUser(userID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Counts map[string]int `json:"counts"`
	}{Counts: counts})
}
