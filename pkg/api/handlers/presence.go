package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/live"
	"pairchat/pkg/metrics"
	"pairchat/pkg/presence"
	"pairchat/pkg/utils"
)

// RegisterPresence registers heartbeat and online-set endpoints.
func RegisterPresence(r *mux.Router) {
	r.HandleFunc("/presence/{id}", touchPresence).Methods(http.MethodPost)
	r.HandleFunc("/presence", getOnlineUsers).Methods(http.MethodGet)
}

func touchPresence(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := presence.Touch(id); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("touch_presence").Inc()
	live.Publish(live.TopicPresence, live.TopicUser(id))
	w.WriteHeader(http.StatusNoContent)
}

func getOnlineUsers(w http.ResponseWriter, r *http.Request) {
	out, err := presence.OnlineUsers()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Online []string `json:"online"`
	}{Online: out})
}
