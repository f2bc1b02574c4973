// Package sweeper prunes long-dead ephemeral records (typing signals and
// presence heartbeats) on a cron schedule. Pure hygiene: liveness is always
// derived at read time from (now, lastSeen, window), so read paths never
// depend on a sweep having run.
package sweeper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"pairchat/pkg/config"
	"pairchat/pkg/logger"
	"pairchat/pkg/models"
	"pairchat/pkg/presence"
	"pairchat/pkg/store"
)

// staleFactor: records older than staleFactor times their window are dead
// beyond any doubt and safe to remove.
const staleFactor = 10

// Start launches the sweep scheduler when enabled and returns a cancel
// func. An empty cron defaults to hourly.
func Start(ctx context.Context, cfg config.SweeperConfig) (context.CancelFunc, error) {
	if !cfg.Enabled {
		logger.Info("sweeper_disabled")
		return func() {}, nil
	}
	cronExpr := cfg.Cron
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("sweeper_invalid_cron", "cron", cfg.Cron)
		return nil, fmt.Errorf("invalid sweeper cron expression: %s", cfg.Cron)
	}
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, cronExpr)
	logger.Info("sweeper_started", "cron", cronExpr)
	return cancel, nil
}

// runScheduler sleeps until each next cron tick and triggers a sweep.
func runScheduler(ctx context.Context, cronExpr string) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("sweeper_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if err := RunOnce(); err != nil {
				logger.Error("sweep_run_error", "error", err)
			}
		case <-ctx.Done():
			logger.Info("sweeper_stopping")
			return
		}
	}
}

// RunOnce performs a single sweep over typing and presence records.
func RunOnce() error {
	nowNS := time.Now().UTC().UnixNano()

	typingCutoff := nowNS - int64(staleFactor*presence.TypingWindow())
	kvs, err := store.ScanPrefix(store.TypingAllPrefix)
	if err != nil {
		return err
	}
	removed := 0
	for _, kv := range kvs {
		var sig models.TypingSignal
		if err := json.Unmarshal(kv.Value, &sig); err != nil || sig.LastTypedAt < typingCutoff {
			if err := store.Delete(kv.Key); err != nil {
				return err
			}
			removed++
		}
	}

	presenceCutoff := nowNS - int64(staleFactor*presence.PresenceWindow())
	pvs, err := store.ScanPrefix(store.PresencePrefix)
	if err != nil {
		return err
	}
	for _, kv := range pvs {
		var ns int64
		if _, err := fmt.Sscanf(string(kv.Value), "%d", &ns); err != nil || ns < presenceCutoff {
			if err := store.Delete(kv.Key); err != nil {
				return err
			}
			removed++
		}
	}
	logger.Info("sweep_complete", "removed", removed)
	return nil
}
