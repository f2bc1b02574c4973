// Package app wires the subsystems together: store, validation rules,
// liveness windows, live broker, sweeper and HTTP server. Tests boot the
// same wiring as main.
package app

import (
	"context"
	"net/http"

	"pairchat/internal/sweeper"
	"pairchat/pkg/config"
	"pairchat/pkg/live"
	"pairchat/pkg/logger"
	"pairchat/pkg/presence"
	"pairchat/pkg/shutdown"
	"pairchat/pkg/store"
	"pairchat/pkg/validation"
)

// Options carries the resolved runtime settings (flags already merged over
// config and env by the caller).
type Options struct {
	Cfg    *config.Config
	Addr   string
	DBPath string
}

// App is a booted server instance.
type App struct {
	srv           *http.Server
	broker        *live.Broker
	sweeperCancel context.CancelFunc
	cfg           *config.Config
}

// New opens the store and starts the background machinery. The HTTP server
// is constructed but not yet listening; call Serve.
func New(opts Options) (*App, error) {
	cfg := opts.Cfg
	if cfg == nil {
		cfg = &config.Config{}
	}

	validation.SetRules(validation.Rules{
		MaxBodyBytes:  cfg.MaxBodyBytes(),
		MaxEmojiBytes: cfg.MaxEmojiBytes(),
	})
	presence.SetWindows(cfg.TypingWindow(), cfg.PresenceWindow())

	if err := store.Open(opts.DBPath); err != nil {
		return nil, err
	}

	broker := live.NewBroker(cfg.Live.QueueCapacity, cfg.Live.RefreshInterval.Duration())
	broker.Start()
	live.SetDefault(broker)

	cancel, err := sweeper.Start(context.Background(), cfg.Sweeper)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		srv:           &http.Server{Addr: opts.Addr, Handler: buildHandler()},
		broker:        broker,
		sweeperCancel: cancel,
		cfg:           cfg,
	}
	return a, nil
}

// Server returns the underlying HTTP server.
func (a *App) Server() *http.Server { return a.srv }

// Serve blocks on the listener. http.ErrServerClosed signals an orderly
// shutdown and is swallowed here.
func (a *App) Serve() error {
	cert := a.cfg.Server.TLS.CertFile
	key := a.cfg.Server.TLS.KeyFile
	var err error
	if cert != "" && key != "" {
		err = a.srv.ListenAndServeTLS(cert, key)
	} else {
		err = a.srv.ListenAndServe()
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Hooks returns the teardown steps in release order.
func (a *App) Hooks() []shutdown.Hook {
	return []shutdown.Hook{
		{Name: "sweeper", Fn: func(context.Context) error {
			a.sweeperCancel()
			return nil
		}},
		{Name: "live_broker", Fn: func(context.Context) error {
			a.broker.Stop()
			return nil
		}},
		{Name: "store", Fn: func(context.Context) error {
			return store.Close()
		}},
	}
}

// Close tears everything down without waiting for a signal; used by tests.
func (a *App) Close() {
	for _, h := range a.Hooks() {
		if err := h.Fn(context.Background()); err != nil {
			logger.Error("app_close_hook_failed", "hook", h.Name, "error", err)
		}
	}
}
