// Package server ties configuration, the init data verifier and the hub
// together behind the Server type.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/miniapp-chat/internal/initdata"
)

// Server owns everything a running gateway needs: the immutable config, the
// verifier keyed with the bot token and the hub of live clients.
type Server struct {
	config   Config
	verifier *initdata.Verifier
	hub      *Hub
	origins  *originPolicy
	upgrader websocket.Upgrader
}

// New builds a Server from cfg. The bot token is read from cfg once; a
// Server built without one rejects every init data check.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := sanitizeConfig(*cfg)
	origins := newOriginPolicy(sanitized.AllowedOrigins)

	return &Server{
		config:   sanitized,
		verifier: initdata.NewVerifier([]byte(sanitized.BotToken)),
		hub:      NewHub(),
		origins:  origins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     origins.checkOrigin,
		},
	}
}

// Hub returns the server's client registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Config returns a copy of the sanitized configuration.
func (s *Server) Config() Config {
	cfg := s.config
	cfg.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	return cfg
}

// Shutdown gracefully stops the HTTP server and then closes all clients.
func (s *Server) Shutdown(httpServer *http.Server, timeout time.Duration) error {
	if httpServer != nil {
		if err := ShutdownServer(httpServer, timeout); err != nil {
			return err
		}
	}
	return s.hub.Shutdown(timeout)
}
