// Package config loads voicelink configuration from a TOML, YAML or JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Default configuration values used when a field is missing from the file.
const (
	DefaultConfigPath    = "config.toml"
	LegacyConfigPath     = "config.json"
	DefaultPort          = 3000
	DefaultDataDir       = "data"
	DefaultStorageDriver = "json"
	DefaultCallTimeout   = "10s"
)

// Config is the root application configuration.
type Config struct {
	Log      LogConfig      `toml:"log" yaml:"log"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Discord  DiscordConfig  `toml:"discord" yaml:"discord"`
	Auth     AuthConfig     `toml:"auth" yaml:"auth"`
	Storage  StorageConfig  `toml:"storage" yaml:"storage"`
	Dispatch DispatchConfig `toml:"dispatch" yaml:"dispatch"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// ServerConfig holds the HTTP listen port.
type ServerConfig struct {
	Port int `toml:"port" yaml:"port"`
}

// DiscordConfig holds the bot token, the guild whose members are moved, and
// the per-call timeout applied to Discord requests (e.g. "10s").
type DiscordConfig struct {
	Token       string `toml:"token" yaml:"token"`
	GuildID     string `toml:"guild_id" yaml:"guild_id"`
	CallTimeout string `toml:"call_timeout" yaml:"call_timeout"`
}

// AuthConfig holds the shared bearer secret for the HTTP API.
type AuthConfig struct {
	Secret string `toml:"secret" yaml:"secret"`
}

// StorageConfig selects the link store backend ("json" or "sqlite") and its directory.
type StorageConfig struct {
	Driver  string `toml:"driver" yaml:"driver"`
	DataDir string `toml:"data_dir" yaml:"data_dir"`
}

// DispatchConfig paces batch moves; zero disables pacing.
type DispatchConfig struct {
	RatePerSecond float64 `toml:"rate_per_second" yaml:"rate_per_second"`
}

// legacyJSON is the flat config.json layout: {"token", "guildId", "port", "secret"}.
type legacyJSON struct {
	Token   string `json:"token"`
	GuildID string `json:"guildId"`
	Port    int    `json:"port"`
	Secret  string `json:"secret"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Port: DefaultPort,
		},
		Discord: DiscordConfig{
			CallTimeout: DefaultCallTimeout,
		},
		Storage: StorageConfig{
			Driver:  DefaultStorageDriver,
			DataDir: DefaultDataDir,
		},
	}
}

// Load reads the config file at path, picking the decoder from the file extension.
// With no path, config.toml in the working directory is used, or config.json
// when only that exists. A missing file is not an error: defaults are returned.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		path = defaultPath(".")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode yaml config: %w", err)
		}
	case ".json":
		var legacy legacyJSON
		if err := json.Unmarshal(data, &legacy); err != nil {
			return cfg, fmt.Errorf("decode json config: %w", err)
		}
		legacy.applyTo(&cfg)
	default:
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return cfg, fmt.Errorf("decode toml config: %w", err)
		}
	}
	return cfg, nil
}

// defaultPath picks the config file in dir when none was named.
func defaultPath(dir string) string {
	primary := filepath.Join(dir, DefaultConfigPath)
	if _, err := os.Stat(primary); err == nil {
		return primary
	}
	legacy := filepath.Join(dir, LegacyConfigPath)
	if _, err := os.Stat(legacy); err == nil {
		return legacy
	}
	return primary
}

func (l legacyJSON) applyTo(cfg *Config) {
	if l.Token != "" {
		cfg.Discord.Token = l.Token
	}
	if l.GuildID != "" {
		cfg.Discord.GuildID = l.GuildID
	}
	if l.Port != 0 {
		cfg.Server.Port = l.Port
	}
	if l.Secret != "" {
		cfg.Auth.Secret = l.Secret
	}
}
