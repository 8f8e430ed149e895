// Package boot resolves the runtime settings voicelink starts with.
package boot

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/memohai/voicelink/internal/config"
)

// RuntimeConfig holds parsed runtime settings. Environment variables take
// precedence over the config file: DISCORD_TOKEN, DISCORD_GUILD_ID, PORT,
// BOT_SECRET, DATA_DIR, STORAGE_DRIVER, LOG_LEVEL.
type RuntimeConfig struct {
	Token         string
	GuildID       string
	Port          int
	Secret        string
	DataDir       string
	StorageDriver string
	CallTimeout   time.Duration
	DispatchRate  float64
	LogLevel      string
	LogFormat     string
}

// ProvideRuntimeConfig builds RuntimeConfig from cfg and applies env overrides.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	return build(cfg, os.Getenv)
}

func build(cfg config.Config, getenv func(string) string) (*RuntimeConfig, error) {
	ret := &RuntimeConfig{
		Token:         cfg.Discord.Token,
		GuildID:       cfg.Discord.GuildID,
		Port:          cfg.Server.Port,
		Secret:        cfg.Auth.Secret,
		DataDir:       cfg.Storage.DataDir,
		StorageDriver: cfg.Storage.Driver,
		DispatchRate:  cfg.Dispatch.RatePerSecond,
		LogLevel:      cfg.Log.Level,
		LogFormat:     cfg.Log.Format,
	}

	if value := getenv("DISCORD_TOKEN"); value != "" {
		ret.Token = value
	}
	if value := getenv("DISCORD_GUILD_ID"); value != "" {
		ret.GuildID = value
	}
	if value := getenv("BOT_SECRET"); value != "" {
		ret.Secret = value
	}
	if value := getenv("DATA_DIR"); value != "" {
		ret.DataDir = value
	}
	if value := getenv("STORAGE_DRIVER"); value != "" {
		ret.StorageDriver = value
	}
	if value := getenv("LOG_LEVEL"); value != "" {
		ret.LogLevel = value
	}
	if value := getenv("PORT"); value != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", value, err)
		}
		ret.Port = port
	}

	if ret.Port <= 0 {
		ret.Port = config.DefaultPort
	}
	if strings.TrimSpace(ret.DataDir) == "" {
		ret.DataDir = config.DefaultDataDir
	}
	ret.StorageDriver = strings.ToLower(strings.TrimSpace(ret.StorageDriver))
	if ret.StorageDriver == "" {
		ret.StorageDriver = config.DefaultStorageDriver
	}

	rawTimeout := strings.TrimSpace(cfg.Discord.CallTimeout)
	if rawTimeout == "" {
		rawTimeout = config.DefaultCallTimeout
	}
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid discord call timeout: %w", err)
	}
	ret.CallTimeout = timeout
	return ret, nil
}

// Addr is the HTTP listen address.
func (r *RuntimeConfig) Addr() string {
	return ":" + strconv.Itoa(r.Port)
}

// Problems lists settings that are missing. They are reported at startup but
// do not stop the process.
func (r *RuntimeConfig) Problems() []string {
	var missing []string
	if strings.TrimSpace(r.Token) == "" {
		missing = append(missing, "discord token is not set (DISCORD_TOKEN)")
	}
	if strings.TrimSpace(r.GuildID) == "" {
		missing = append(missing, "discord guild id is not set (DISCORD_GUILD_ID)")
	}
	if strings.TrimSpace(r.Secret) == "" {
		missing = append(missing, "bearer secret is not set (BOT_SECRET)")
	}
	return missing
}
