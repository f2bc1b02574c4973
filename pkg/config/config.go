package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path. A missing file surfaces as the
// underlying os error so callers can distinguish absent from malformed.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveConfigPath returns the config file path to use: an explicitly set
// flag wins, then the PAIRCHAT_CONFIG env var, then the flag default.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet {
		return flagVal
	}
	if v := os.Getenv("PAIRCHAT_CONFIG"); v != "" {
		return v
	}
	return flagVal
}

// LoadEffective merges the config file (when present) with environment
// overrides and reports whether any env var contributed.
func LoadEffective(path string) (*Config, bool, error) {
	cfg := &Config{}
	if fileCfg, err := Load(path); err == nil {
		cfg = fileCfg
	} else if !os.IsNotExist(err) {
		return nil, false, err
	}
	envUsed := applyEnv(cfg)
	return cfg, envUsed, nil
}
