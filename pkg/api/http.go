// Package api assembles the HTTP surface: JSON command/query endpoints plus
// the SSE subscription endpoints backed by the live broker.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"pairchat/pkg/api/handlers"
)

// Handler returns the versioned API router.
func Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterUsers(v1)
	handlers.RegisterConversations(v1)
	handlers.RegisterMessages(v1)
	handlers.RegisterPresence(v1)
	handlers.RegisterSubscriptions(v1)
	return r
}
