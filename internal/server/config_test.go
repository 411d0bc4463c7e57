package server

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, ":8080", cfg.Port)
	assert.Empty(t, cfg.BotToken)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(defaultMaxMessageSize), cfg.MaxMessageSize)
	assert.Equal(t, defaultSendBufferSize, cfg.SendBufferSize)
	assert.Equal(t, defaultPingInterval, cfg.PingInterval)
	assert.Equal(t, defaultPongWait, cfg.PongWait)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingBotToken)
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("SERVER_PORT", ":9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("MAX_MESSAGE_SIZE", "1024")
	t.Setenv("SEND_BUFFER_SIZE", "32")
	t.Setenv("PING_INTERVAL", "20")
	t.Setenv("PONG_WAIT", "30")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("LOG_FORMAT", "console")

	cfg := NewConfigFromEnv()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(1024), cfg.MaxMessageSize)
	assert.Equal(t, 32, cfg.SendBufferSize)
	assert.Equal(t, 20*time.Second, cfg.PingInterval)
	assert.Equal(t, 30*time.Second, cfg.PongWait)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestNewConfigFromEnvInvalidValues(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("MAX_MESSAGE_SIZE", "-1")
	t.Setenv("SEND_BUFFER_SIZE", "many")
	t.Setenv("PING_INTERVAL", "0")
	t.Setenv("PONG_WAIT", "soon")

	cfg := NewConfigFromEnv()

	assert.ErrorIs(t, cfg.Validate(), ErrMissingBotToken)
	assert.Equal(t, int64(defaultMaxMessageSize), cfg.MaxMessageSize)
	assert.Equal(t, defaultSendBufferSize, cfg.SendBufferSize)
	assert.Equal(t, defaultPingInterval, cfg.PingInterval)
	assert.Equal(t, defaultPongWait, cfg.PongWait)
}

func TestValidateNilConfig(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrMissingBotToken)
}

func TestSanitizeConfig(t *testing.T) {
	cfg := sanitizeConfig(Config{PingInterval: time.Minute, PongWait: 10 * time.Second})

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, int64(defaultMaxMessageSize), cfg.MaxMessageSize)
	assert.Equal(t, defaultSendBufferSize, cfg.SendBufferSize)
	assert.Equal(t, 9*time.Second, cfg.PingInterval)
	assert.Equal(t, defaultWriteWait, cfg.WriteWait)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestServerConfigIsCopied(t *testing.T) {
	origins := []string{"https://a.example"}
	srv := New(&Config{BotToken: testBotToken, AllowedOrigins: origins})

	origins[0] = "https://evil.example"
	got := srv.Config()
	assert.Equal(t, []string{"https://a.example"}, got.AllowedOrigins)

	got.AllowedOrigins[0] = "changed"
	assert.Equal(t, []string{"https://a.example"}, srv.Config().AllowedOrigins)
}

func TestNewWithNilConfig(t *testing.T) {
	srv := New(nil)
	assert.Equal(t, defaultPort, srv.Config().Port)

	_, err := srv.verifier.Verify("hash=00")
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	previous := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(previous) })

	ConfigureLogging("debug", "json")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	ConfigureLogging("warn", "console")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	ConfigureLogging("chatty", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
