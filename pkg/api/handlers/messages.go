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
	"pairchat/pkg/msglog"
	"pairchat/pkg/reactions"
	"pairchat/pkg/utils"
)

// RegisterMessages registers log and reaction endpoints.
func RegisterMessages(r *mux.Router) {
	r.HandleFunc("/conversations/{id}/messages", sendMessage).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{id}/messages", listMessages).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{id}/reactions", getReactions).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", softDeleteMessage).Methods(http.MethodDelete)
	r.HandleFunc("/messages/{id}/reactions", toggleReaction).Methods(http.MethodPost)
}

// publishConversation fans an invalidation out to the conversation topic and
// both participants' directory topics.
func publishConversation(convID string) {
	topics := []string{live.TopicConversation(convID)}
	if conv, err := directory.Get(convID); err == nil {
		for _, p := range conv.ParticipantIDs {
			topics = append(topics, live.TopicUser(p))
		}
	}
	live.Publish(topics...)
}

func sendMessage(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	var req struct {
		SenderID string `json:"sender_id"`
		Body     string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	msg, err := msglog.Append(convID, req.SenderID, req.Body)
	if err != nil {
		if errors.Is(err, msglog.ErrConversationNotFound) {
			utils.JSONError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("send_message").Inc()
	publishConversation(convID)
	_ = utils.JSONWrite(w, http.StatusOK, msg)
}

func listMessages(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	msgs, err := msglog.List(convID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Conversation string           `json:"conversation"`
		Messages     []models.Message `json:"messages"`
	}{Conversation: convID, Messages: msgs})
}

func softDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	// resolve the parent before the flag flips so the fanout reaches it
	var convID string
	if m, err := msglog.Get(id); err == nil {
		convID = m.ConversationID
	}
	if err := msglog.SoftDelete(id); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("soft_delete_message").Inc()
	if convID != "" {
		publishConversation(convID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func toggleReaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req struct {
		UserID string `json:"user_id"`
		Emoji  string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := reactions.Toggle(id, req.UserID, req.Emoji); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("toggle_reaction").Inc()
	if m, err := msglog.Get(id); err == nil {
		publishConversation(m.ConversationID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func getReactions(w http.ResponseWriter, r *http.Request) {
	convID := mux.Vars(r)["id"]
	agg, err := reactions.AggregateForConversation(convID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Reactions map[string][]models.ReactionGroup `json:"reactions"`
	}{Reactions: agg})
}
