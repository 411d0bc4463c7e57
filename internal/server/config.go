// Package server provides configuration helpers that define runtime defaults
// and validation for the chat gateway.
package server

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort           = ":8080"
	defaultMaxMessageSize = 4096
	defaultSendBufferSize = 256
	defaultPingInterval   = 54 * time.Second
	defaultPongWait       = 60 * time.Second
	defaultWriteWait      = 10 * time.Second
)

// Config holds the server configuration. It is built once at startup and
// passed by value into New; nothing re-reads the environment afterwards.
type Config struct {
	Port           string
	BotToken       string
	AllowedOrigins []string
	MaxMessageSize int64
	SendBufferSize int
	PingInterval   time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	LogLevel       string
	LogFormat      string
}

func defaultConfig() Config {
	return Config{
		Port:           defaultPort,
		AllowedOrigins: []string{"*"},
		MaxMessageSize: defaultMaxMessageSize,
		SendBufferSize: defaultSendBufferSize,
		PingInterval:   defaultPingInterval,
		PongWait:       defaultPongWait,
		WriteWait:      defaultWriteWait,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// NewConfig creates a Config instance populated with default values for all
// settings. The bot token is left empty.
func NewConfig() *Config {
	cfg := defaultConfig()
	return &cfg
}

// NewConfigFromEnv creates a Config instance from environment variables.
// Falls back to default values if environment variables are not set.
func NewConfigFromEnv() *Config {
	cfg := defaultConfig()

	cfg.BotToken = os.Getenv("BOT_TOKEN")

	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseOrigins(origins)
	}

	if maxSize := os.Getenv("MAX_MESSAGE_SIZE"); maxSize != "" {
		cfg.MaxMessageSize = parseMaxMessageSize(maxSize, cfg.MaxMessageSize)
	}

	if size := os.Getenv("SEND_BUFFER_SIZE"); size != "" {
		cfg.SendBufferSize = parseIntValue(size, cfg.SendBufferSize)
	}

	if interval := os.Getenv("PING_INTERVAL"); interval != "" {
		cfg.PingInterval = parseSeconds(interval, cfg.PingInterval)
	}

	if wait := os.Getenv("PONG_WAIT"); wait != "" {
		cfg.PongWait = parseSeconds(wait, cfg.PongWait)
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(level))
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.LogFormat = strings.ToLower(strings.TrimSpace(format))
	}

	return &cfg
}

// Validate reports configuration errors that make the server unusable.
func (c *Config) Validate() error {
	if c == nil || c.BotToken == "" {
		return ErrMissingBotToken
	}
	return nil
}

func sanitizeConfig(cfg Config) Config {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = defaultMaxMessageSize
	}

	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = defaultSendBufferSize
	}

	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}

	// Pings must go out before the peer's read deadline expires.
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.PongWait {
		cfg.PingInterval = cfg.PongWait * 9 / 10
	}

	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}

	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return cfg
}

func parseOrigins(origins string) []string {
	parts := strings.Split(origins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseMaxMessageSize(value string, defaultValue int64) int64 {
	if size, err := strconv.ParseInt(value, 10, 64); err == nil && size > 0 {
		return size
	}
	return defaultValue
}

func parseIntValue(value string, defaultValue int) int {
	if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
		return parsed
	}
	return defaultValue
}

func parseSeconds(value string, defaultValue time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
