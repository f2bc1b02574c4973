package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/live"
	"pairchat/pkg/logger"
	"pairchat/pkg/metrics"
	"pairchat/pkg/models"
	"pairchat/pkg/users"
	"pairchat/pkg/utils"
)

// RegisterUsers registers profile endpoints.
func RegisterUsers(r *mux.Router) {
	r.HandleFunc("/users", upsertUser).Methods(http.MethodPost)
	r.HandleFunc("/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}", getUser).Methods(http.MethodGet)
}

func upsertUser(w http.ResponseWriter, r *http.Request) {
	var u models.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := users.Upsert(u); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	metrics.Mutations.WithLabelValues("upsert_user").Inc()
	live.Publish(live.TopicUser(u.ID), live.TopicPresence)
	logger.Info("user_upsert_handled", "user", u.ID)
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"id": u.ID})
}

func getUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	u, err := users.Get(id)
	if err != nil {
		if users.IsNotFound(err) {
			utils.JSONError(w, http.StatusNotFound, "user not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, u)
}

func listUsers(w http.ResponseWriter, r *http.Request) {
	exclude := r.URL.Query().Get("exclude")
	out, err := users.List(exclude)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Users []models.User `json:"users"`
	}{Users: out})
}
