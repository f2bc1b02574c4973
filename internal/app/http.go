package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pairchat/pkg/api"
)

// buildHandler mounts the API router and the Prometheus scrape endpoint.
func buildHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api.Handler())
	return mux
}
