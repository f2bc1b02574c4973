package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Windows WindowsConfig `yaml:"windows"`
	Limits  LimitsConfig  `yaml:"limits"`
	Live    LiveConfig    `yaml:"live"`
	Sweeper SweeperConfig `yaml:"sweeper"`
}

// ServerConfig holds http and storage settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WindowsConfig holds the liveness windows used to derive ephemeral state
// from last-seen timestamps.
type WindowsConfig struct {
	Typing   Duration `yaml:"typing"`
	Presence Duration `yaml:"presence"`
}

// LimitsConfig bounds user-supplied payloads.
type LimitsConfig struct {
	MaxBodyBytes  SizeBytes `yaml:"max_body_bytes"`
	MaxEmojiBytes SizeBytes `yaml:"max_emoji_bytes"`
}

// LiveConfig tunes the live-query broker.
type LiveConfig struct {
	QueueCapacity   int      `yaml:"queue_capacity"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// SweeperConfig controls the background pruning of aged ephemeral signals.
type SweeperConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"`
}

const (
	DefaultTypingWindow   = 2 * time.Second
	DefaultPresenceWindow = 30 * time.Second
	DefaultMaxBodyBytes   = 4 * 1024
	DefaultMaxEmojiBytes  = 32
)

// TypingWindow returns the configured typing window or the default.
func (c *Config) TypingWindow() time.Duration {
	if d := c.Windows.Typing.Duration(); d > 0 {
		return d
	}
	return DefaultTypingWindow
}

// PresenceWindow returns the configured presence window or the default.
func (c *Config) PresenceWindow() time.Duration {
	if d := c.Windows.Presence.Duration(); d > 0 {
		return d
	}
	return DefaultPresenceWindow
}

// MaxBodyBytes returns the configured message body limit or the default.
func (c *Config) MaxBodyBytes() int {
	if n := c.Limits.MaxBodyBytes.Int64(); n > 0 {
		return int(n)
	}
	return DefaultMaxBodyBytes
}

// MaxEmojiBytes returns the configured emoji limit or the default.
func (c *Config) MaxEmojiBytes() int {
	if n := c.Limits.MaxEmojiBytes.Int64(); n > 0 {
		return int(n)
	}
	return DefaultMaxEmojiBytes
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly
// strings like "64KB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*s = 0
		return nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		*s = SizeBytes(v)
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*s = SizeBytes(i)
		return nil
	}
	return fmt.Errorf("invalid size value: %q", node.Value)
}

func (s SizeBytes) Int64() int64 { return int64(s) }

// Duration is a wrapper around time.Duration that supports YAML parsing from
// strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
