// Package shutdown coordinates graceful teardown: stop accepting requests,
// let in-flight subscriptions and mutations finish, then release resources
// in order.
package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pairchat/pkg/logger"
)

// Hook is a named teardown step run after the HTTP server has drained.
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// drainTimeout bounds how long we wait for in-flight requests (including
// long-lived SSE streams, which end when the server closes their contexts).
const drainTimeout = 10 * time.Second

// WaitAndStop blocks until SIGINT/SIGTERM, then shuts the server down and
// runs the hooks in order. Hook errors are logged, not fatal; later hooks
// still run.
func WaitAndStop(srv *http.Server, hooks ...Hook) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	logger.Info("signal_received", "signal", s.String())

	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("http_shutdown_failed", "error", err)
	} else {
		logger.Info("http_drained")
	}

	for _, h := range hooks {
		hctx, hcancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := h.Fn(hctx); err != nil {
			logger.Error("shutdown_hook_failed", "hook", h.Name, "error", err)
		} else {
			logger.Info("shutdown_hook_done", "hook", h.Name)
		}
		hcancel()
	}
	logger.Info("shutdown_complete")
}
