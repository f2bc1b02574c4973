package main

import (
	"log"
	"strings"

	"github.com/joho/godotenv"

	"pairchat/internal/app"
	"pairchat/pkg/banner"
	"pairchat/pkg/config"
	"pairchat/pkg/logger"
	"pairchat/pkg/shutdown"
)

func main() {
	// build metadata - set via ldflags during build/release
	var (
		version   = "dev"
		commit    = "none"
		buildDate = "unknown"
	)
	_ = godotenv.Load(".env")
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	// Resolve config path (file flag wins over env)
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitWithLevel(cfg.Logging.Level)

	// Flags explicitly set win over env/config for addr and dbPath.
	addr := addrVal
	if !setFlags["addr"] {
		addr = cfg.Addr()
	}
	dbPath := dbVal
	if !setFlags["db"] {
		if p := cfg.Server.DBPath; p != "" {
			dbPath = p
		}
	}

	a, err := app.New(app.Options{Cfg: cfg, Addr: addr, DBPath: dbPath})
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	// Config sources summary for the banner (flags/env/config)
	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr = verStr + " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr = verStr + " @ " + buildDate
	}
	banner.Print(addr, dbPath, strings.Join(srcs, ", "), verStr)

	go func() {
		if err := a.Serve(); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown.WaitAndStop(a.Server(), a.Hooks()...)
}
