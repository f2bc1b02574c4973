package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"time"
)

// ParseCommandFlags parses command-line flags and returns the raw values
// plus a set of which flags were explicitly provided.
func ParseCommandFlags() (addr, db, cfg string, set map[string]bool) {
	addrPtr := flag.String("addr", ":8080", "HTTP listen address")
	dbPtr := flag.String("db", "./.database", "Pebble DB path")
	cfgPtr := flag.String("config", "./config.yaml", "Path to config file")
	flag.Parse()
	set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *addrPtr, *dbPtr, *cfgPtr, set
}

// applyEnv overlays PAIRCHAT_* environment variables onto cfg and reports
// whether any were present.
func applyEnv(cfg *Config) bool {
	used := false

	if v := os.Getenv("PAIRCHAT_ADDR"); v != "" {
		used = true
		if h, p, err := net.SplitHostPort(v); err == nil {
			cfg.Server.Address = h
			if pi, err := strconv.Atoi(p); err == nil {
				cfg.Server.Port = pi
			}
		} else {
			cfg.Server.Address = v
		}
	}
	if v := os.Getenv("PAIRCHAT_DB_PATH"); v != "" {
		used = true
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("PAIRCHAT_LOG_LEVEL"); v != "" {
		used = true
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PAIRCHAT_TYPING_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			used = true
			cfg.Windows.Typing = Duration(d)
		}
	}
	if v := os.Getenv("PAIRCHAT_PRESENCE_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			used = true
			cfg.Windows.Presence = Duration(d)
		}
	}
	if v := os.Getenv("PAIRCHAT_SWEEPER_CRON"); v != "" {
		used = true
		cfg.Sweeper.Enabled = true
		cfg.Sweeper.Cron = v
	}
	return used
}
